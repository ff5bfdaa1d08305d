package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bsagevedant/akashvani-ai/internal/intent"
	"github.com/bsagevedant/akashvani-ai/internal/memory"
	"github.com/bsagevedant/akashvani-ai/internal/news"
	"github.com/bsagevedant/akashvani-ai/internal/observability"
)

// Prometheus collectors register globally, so the whole package shares one
// Metrics instance.
var testMetrics = observability.NewMetrics("assistanttest")

type scriptClassifier struct {
	result   intent.Result
	lastText string
	calls    int
	cleared  bool
	panics   bool
}

func (c *scriptClassifier) Classify(_ context.Context, text string) intent.Result {
	c.calls++
	c.lastText = text
	if c.panics {
		panic("classifier exploded")
	}
	return c.result
}

func (c *scriptClassifier) ClearHistory() { c.cleared = true }

func (c *scriptClassifier) Summary() string { return "No conversation history available." }

type stubNews struct {
	headlines    []news.Article
	searchHits   []news.Article
	allByCat     map[string][]news.Article
	err          error
	topCalls     int
	searchCalls  int
	lastCategory string
	lastQuery    string
}

func (s *stubNews) TopHeadlines(_ context.Context, category, _ string, _ int) ([]news.Article, error) {
	s.topCalls++
	s.lastCategory = category
	return s.headlines, s.err
}

func (s *stubNews) Search(_ context.Context, query string, _ int) ([]news.Article, error) {
	s.searchCalls++
	s.lastQuery = query
	return s.searchHits, s.err
}

func (s *stubNews) AllCategories(_ context.Context, _ int) (map[string][]news.Article, error) {
	return s.allByCat, s.err
}

type stubTranscriber struct {
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return s.transcript, s.err
}

type stubSynthesizer struct {
	audio     []byte
	err       error
	lastText  string
	lastVoice string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	s.lastText = text
	s.lastVoice = voice
	return s.audio, s.err
}

func newTestOrchestrator(c *scriptClassifier, n *stubNews, tr *stubTranscriber, sy *stubSynthesizer) *Orchestrator {
	return New(c, n, tr, sy, memory.NewInMemoryStore(), testMetrics, "us")
}

func articles(titles ...string) []news.Article {
	out := make([]news.Article, 0, len(titles))
	for i, title := range titles {
		out = append(out, news.Article{Number: i + 1, Title: title, Source: "Wire"})
	}
	return out
}

func TestHandleTextFetchCategory(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsCategory, Category: "sports", Action: intent.ActionFetchNews,
	}}
	provider := &stubNews{headlines: articles("Cup final tonight", "Transfer saga ends")}
	synth := &stubSynthesizer{audio: []byte("pcm")}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, synth)

	reply := o.HandleText(context.Background(), "sports news please", "female")

	if !strings.Contains(reply.Text, "Here are the top 2 sports news updates") {
		t.Fatalf("unexpected response text: %q", reply.Text)
	}
	if string(reply.Audio) != "pcm" {
		t.Fatalf("audio = %q, want synthesized bytes", reply.Audio)
	}
	if provider.lastCategory != "sports" {
		t.Fatalf("fetched category = %q, want sports", provider.lastCategory)
	}

	info := o.SessionInfo()
	if info.Session.LastCategory != "sports" || info.Session.LastAction != lastActionFetch {
		t.Fatalf("session not updated: %+v", info.Session)
	}
	if len(info.Session.LastNewsData) != 2 {
		t.Fatalf("LastNewsData len = %d, want 2", len(info.Session.LastNewsData))
	}
}

func TestHandleTextFetchEmptyCategory(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsCategory, Category: "health", Action: intent.ActionFetchNews,
	}}
	provider := &stubNews{}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "health news", "")

	want := "I'm sorry, I couldn't fetch health news at the moment. Would you like news from another category?"
	if reply.Text != want {
		t.Fatalf("text = %q, want %q", reply.Text, want)
	}

	info := o.SessionInfo()
	if info.Session.LastCategory != "health" || info.Session.LastAction != lastActionFetch {
		t.Fatalf("session should record the empty fetch: %+v", info.Session)
	}
	if len(info.Session.LastNewsData) != 0 {
		t.Fatalf("LastNewsData should be empty, got %d", len(info.Session.LastNewsData))
	}
}

func TestHandleTextGeneralDigest(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsCategory, Category: "general", Action: intent.ActionFetchNews,
	}}
	provider := &stubNews{allByCat: map[string][]news.Article{
		"technology": articles("Chips get smaller", "Robots get taller"),
		"sports":     articles("Marathon record falls"),
	}}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "give me the news", "female")

	if !strings.HasPrefix(reply.Text, "Here's your news briefing from Akashvani AI.\n\n") {
		t.Fatalf("digest missing intro: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Top technology headline: Chips get smaller.\n\n") {
		t.Fatalf("digest missing technology headline: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Top sports headline: Marathon record falls.\n\n") {
		t.Fatalf("digest missing sports headline: %q", reply.Text)
	}
	if strings.Contains(reply.Text, "politics") {
		t.Fatalf("empty categories must be skipped: %q", reply.Text)
	}
	if !strings.HasSuffix(reply.Text, "Which category would you like me to read in detail?") {
		t.Fatalf("digest missing closing prompt: %q", reply.Text)
	}
	// technology comes before sports in the category order.
	if strings.Index(reply.Text, "technology") > strings.Index(reply.Text, "sports") {
		t.Fatalf("digest categories out of order: %q", reply.Text)
	}

	info := o.SessionInfo()
	if info.Session.LastCategory != "general" || len(info.Session.LastNewsData) != 3 {
		t.Fatalf("session digest state wrong: %+v", info.Session)
	}
}

func TestHandleTextSearch(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsSearch, SearchQuery: "climate summit", Action: intent.ActionSearchNews,
	}}
	provider := &stubNews{searchHits: articles("Summit opens in Nairobi")}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "any climate news?", "")

	if !strings.Contains(reply.Text, "search results for climate summit") {
		t.Fatalf("search label missing: %q", reply.Text)
	}
	if provider.lastQuery != "climate summit" {
		t.Fatalf("query = %q", provider.lastQuery)
	}

	info := o.SessionInfo()
	if info.Session.LastSearchQuery != "climate summit" || info.Session.LastAction != lastActionSearch {
		t.Fatalf("session search state wrong: %+v", info.Session)
	}
	if info.Session.LastCategory != "" {
		t.Fatalf("LastCategory should be cleared by a search, got %q", info.Session.LastCategory)
	}
}

func TestHandleTextSearchEmptyQuery(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsSearch, SearchQuery: "   ", Action: intent.ActionSearchNews,
	}}
	provider := &stubNews{}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "search", "")

	if reply.Text != emptySearchResponse {
		t.Fatalf("text = %q", reply.Text)
	}
	if provider.searchCalls != 0 {
		t.Fatalf("provider must not be called for an empty query")
	}
}

func TestHandleTextSearchNoResults(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsSearch, SearchQuery: "quantum badminton", Action: intent.ActionSearchNews,
	}}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "search quantum badminton", "")

	want := "I couldn't find any recent news about 'quantum badminton'. Would you like me to search for something else?"
	if reply.Text != want {
		t.Fatalf("text = %q, want %q", reply.Text, want)
	}
}

func TestHandleTextRespondOnly(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentGreeting, Response: "Hello! I'm Akashvani AI.", Action: intent.ActionRespondOnly,
	}}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "hello", "")
	if reply.Text != "Hello! I'm Akashvani AI." {
		t.Fatalf("text = %q", reply.Text)
	}
}

func TestHandleTextRespondOnlyEmptyDraft(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentGeneral, Action: intent.ActionRespondOnly,
	}}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, &stubSynthesizer{})

	reply := o.HandleText(context.Background(), "hmm", "")
	if reply.Text != defaultHelpResponse {
		t.Fatalf("text = %q, want generic help response", reply.Text)
	}
}

func TestHandleVoiceEmptyTranscript(t *testing.T) {
	classifier := &scriptClassifier{}
	synth := &stubSynthesizer{audio: []byte("pcm")}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{transcript: "  "}, synth)

	reply := o.HandleVoice(context.Background(), []byte("audio"), "female")

	if reply.Text != transcriptClarification {
		t.Fatalf("text = %q", reply.Text)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not run without a transcript")
	}
	if string(reply.Audio) != "pcm" {
		t.Fatalf("clarification should still be synthesized")
	}
}

func TestHandleVoiceTranscribeError(t *testing.T) {
	classifier := &scriptClassifier{}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{err: errors.New("listen: 502")}, &stubSynthesizer{})

	reply := o.HandleVoice(context.Background(), []byte("audio"), "")
	if reply.Text != transcriptClarification {
		t.Fatalf("text = %q", reply.Text)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not run after a failed transcription")
	}
}

func TestHandleVoiceContinuesAsText(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentGeneral, Response: "Sure.", Action: intent.ActionRespondOnly,
	}}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{transcript: "tell me something"}, &stubSynthesizer{})

	reply := o.HandleVoice(context.Background(), []byte("audio"), "male")

	if classifier.lastText != "tell me something" {
		t.Fatalf("classifier got %q, want the transcript", classifier.lastText)
	}
	if reply.Text != "Sure." {
		t.Fatalf("text = %q", reply.Text)
	}
}

func TestSynthesisFailureKeepsText(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentGeneral, Response: "Still here.", Action: intent.ActionRespondOnly,
	}}
	synth := &stubSynthesizer{err: errors.New("speak: 500")}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, synth)

	reply := o.HandleText(context.Background(), "hi", "")
	if reply.Text != "Still here." {
		t.Fatalf("text = %q", reply.Text)
	}
	if reply.Audio != nil {
		t.Fatalf("audio should be nil after a synthesis failure")
	}
}

func TestPipelinePanicBecomesApology(t *testing.T) {
	classifier := &scriptClassifier{panics: true}
	synth := &stubSynthesizer{audio: []byte("pcm")}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, synth)

	reply := o.HandleText(context.Background(), "anything", "female")

	if reply.Text != technicalDifficulties {
		t.Fatalf("text = %q", reply.Text)
	}
	if string(reply.Audio) != "pcm" {
		t.Fatalf("apology should still be synthesized")
	}
}

func TestVoicePreferenceUsedWhenUnset(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentGeneral, Response: "Ok.", Action: intent.ActionRespondOnly,
	}}
	synth := &stubSynthesizer{}
	o := newTestOrchestrator(classifier, &stubNews{}, &stubTranscriber{}, synth)

	if got := o.SetVoicePreference("male"); got != "male" {
		t.Fatalf("SetVoicePreference = %q", got)
	}
	o.HandleText(context.Background(), "hi", "")
	if synth.lastVoice != "male" {
		t.Fatalf("synthesized voice = %q, want session preference", synth.lastVoice)
	}

	o.HandleText(context.Background(), "hi", "female")
	if synth.lastVoice != "female" {
		t.Fatalf("explicit voice should win, got %q", synth.lastVoice)
	}
}

func TestSetVoicePreferenceUnknownDegrades(t *testing.T) {
	o := newTestOrchestrator(&scriptClassifier{}, &stubNews{}, &stubTranscriber{}, &stubSynthesizer{})
	if got := o.SetVoicePreference("robot"); got != "female" {
		t.Fatalf("SetVoicePreference(robot) = %q, want female", got)
	}
}

func TestClearSession(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsCategory, Category: "science", Action: intent.ActionFetchNews,
	}}
	provider := &stubNews{headlines: articles("Probe reaches orbit")}
	o := newTestOrchestrator(classifier, provider, &stubTranscriber{}, &stubSynthesizer{})

	o.HandleText(context.Background(), "science news", "")
	o.ClearSession()
	o.ClearSession() // idempotent

	info := o.SessionInfo()
	if info.Session.LastCategory != "" || info.Session.LastAction != lastActionNone || len(info.Session.LastNewsData) != 0 {
		t.Fatalf("session not reset: %+v", info.Session)
	}
	if info.Session.VoicePreference != "female" {
		t.Fatalf("voice preference should reset to female, got %q", info.Session.VoicePreference)
	}
	if !classifier.cleared {
		t.Fatalf("classifier history should be cleared with the session")
	}
}

func TestTurnRecorded(t *testing.T) {
	classifier := &scriptClassifier{result: intent.Result{
		Intent: intent.IntentNewsSearch, SearchQuery: "moon", Action: intent.ActionSearchNews,
	}}
	store := memory.NewInMemoryStore()
	o := New(classifier, &stubNews{searchHits: articles("Lander touches down")}, &stubTranscriber{}, &stubSynthesizer{}, store, testMetrics, "us")

	o.HandleText(context.Background(), "moon news", "")

	turns, err := store.RecentTurns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("recorded turns = %d, want 1", len(turns))
	}
	if turns[0].UserText != "moon news" || turns[0].Query != "moon" || turns[0].Action != "search_news" {
		t.Fatalf("recorded turn wrong: %+v", turns[0])
	}
}

func TestHeadlinesOnly(t *testing.T) {
	provider := &stubNews{headlines: []news.Article{
		{Number: 1, Title: "Banks merge", Source: "FT", PublishedAt: "2026-08-20T10:00:00Z", Description: "long text"},
	}}
	o := newTestOrchestrator(&scriptClassifier{}, provider, &stubTranscriber{}, &stubSynthesizer{})

	headlines := o.HeadlinesOnly(context.Background(), "business")
	if len(headlines) != 1 {
		t.Fatalf("len = %d, want 1", len(headlines))
	}
	if headlines[0].Title != "Banks merge" || headlines[0].Source != "FT" {
		t.Fatalf("headline = %+v", headlines[0])
	}
	if provider.lastCategory != "business" {
		t.Fatalf("category = %q", provider.lastCategory)
	}
}

func TestCategoriesDescription(t *testing.T) {
	o := newTestOrchestrator(&scriptClassifier{}, &stubNews{}, &stubTranscriber{}, &stubSynthesizer{})
	got := o.CategoriesDescription()
	want := "I can provide news updates from these categories: technology, politics, sports, entertainment, business, health, science. Which would you like to hear about?"
	if got != want {
		t.Fatalf("description = %q", got)
	}
}
