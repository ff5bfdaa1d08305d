package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bsagevedant/akashvani-ai/internal/intent"
	"github.com/bsagevedant/akashvani-ai/internal/memory"
	"github.com/bsagevedant/akashvani-ai/internal/news"
	"github.com/bsagevedant/akashvani-ai/internal/observability"
	"github.com/bsagevedant/akashvani-ai/internal/speech"
)

// Fixed conversational responses. These are spoken as well as displayed, so
// the wording stays stable.
const (
	transcriptClarification = "I'm sorry, I couldn't understand what you said. Could you please try again?"
	technicalDifficulties   = "I'm experiencing some technical difficulties. Please try again in a moment."
	defaultHelpResponse     = "I'm here to help you with news updates!"
	emptySearchResponse     = "I need a specific topic to search for. What news would you like me to find?"

	digestIntro = "Here's your news briefing from Akashvani AI.\n\n"
	digestOutro = "Which category would you like me to read in detail?"
)

const (
	headlineLimit     = 5
	digestPerCategory = 3
)

// Classifier is the intent stage of the pipeline. Classify never fails; see
// internal/intent for the fallback contract.
type Classifier interface {
	Classify(ctx context.Context, text string) intent.Result
	ClearHistory()
	Summary() string
}

// NewsProvider is the headline source consumed by the orchestrator.
type NewsProvider interface {
	TopHeadlines(ctx context.Context, category, country string, limit int) ([]news.Article, error)
	Search(ctx context.Context, query string, limit int) ([]news.Article, error)
	AllCategories(ctx context.Context, limitPerCategory int) (map[string][]news.Article, error)
}

// Reply is a completed conversation turn. Audio is nil when synthesis failed
// or was skipped; Text is always set.
type Reply struct {
	Text  string
	Audio []byte
}

// Orchestrator runs the full conversation pipeline: classify, act, format,
// synthesize. Its public operations never return errors: every failure
// degrades to a spoken apology or a text-only reply.
type Orchestrator struct {
	classifier  Classifier
	news        NewsProvider
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	turns       memory.Store
	metrics     *observability.Metrics
	country     string

	mu      sync.RWMutex
	session Session
}

func New(classifier Classifier, provider NewsProvider, transcriber speech.Transcriber, synthesizer speech.Synthesizer, turns memory.Store, metrics *observability.Metrics, country string) *Orchestrator {
	if country == "" {
		country = "us"
	}
	return &Orchestrator{
		classifier:  classifier,
		news:        provider,
		transcriber: transcriber,
		synthesizer: synthesizer,
		turns:       turns,
		metrics:     metrics,
		country:     country,
		session:     newSession(),
	}
}

// HandleText processes one typed utterance. An empty voice selector falls
// back to the session preference.
func (o *Orchestrator) HandleText(ctx context.Context, text, voice string) Reply {
	return o.handleTurn(ctx, text, voice, "text")
}

// HandleVoice transcribes the audio and continues as a text turn. A failed
// or empty transcript short-circuits to a clarification prompt without
// invoking the classifier.
func (o *Orchestrator) HandleVoice(ctx context.Context, audio []byte, voice string) (reply Reply) {
	voice = o.voiceOrPreference(voice)
	defer o.recoverTurn(ctx, voice, &reply)

	transcript, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("deepgram", "transcribe").Inc()
		log.Error().Err(err).Msg("transcription failed")
	}
	if strings.TrimSpace(transcript) == "" {
		return Reply{
			Text:  transcriptClarification,
			Audio: o.synthesize(ctx, transcriptClarification, voice),
		}
	}
	return o.handleTurn(ctx, transcript, voice, "voice")
}

func (o *Orchestrator) handleTurn(ctx context.Context, text, voice, input string) (reply Reply) {
	voice = o.voiceOrPreference(voice)
	defer o.recoverTurn(ctx, voice, &reply)

	result := o.classifier.Classify(ctx, text)
	responseText := o.dispatch(ctx, result)

	o.metrics.ConversationTurns.WithLabelValues(input, string(result.Action)).Inc()
	o.recordTurn(ctx, text, responseText, result)

	return Reply{Text: responseText, Audio: o.synthesize(ctx, responseText, voice)}
}

// recoverTurn converts an unexpected pipeline failure into the fixed apology
// with best-effort audio, so no caller ever sees an error or a panic.
func (o *Orchestrator) recoverTurn(ctx context.Context, voice string, reply *Reply) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Msg("conversation pipeline failure")
		reply.Text = technicalDifficulties
		reply.Audio = o.synthesize(ctx, technicalDifficulties, voice)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, result intent.Result) string {
	switch result.Action {
	case intent.ActionFetchNews:
		return o.fetchNews(ctx, result.Category)
	case intent.ActionSearchNews:
		return o.searchNews(ctx, result.SearchQuery)
	default:
		if strings.TrimSpace(result.Response) != "" {
			return result.Response
		}
		return defaultHelpResponse
	}
}

func (o *Orchestrator) fetchNews(ctx context.Context, category string) string {
	if category == "general" {
		return o.newsDigest(ctx)
	}

	articles, err := o.news.TopHeadlines(ctx, category, o.country, headlineLimit)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("newsapi", "top_headlines").Inc()
		log.Error().Err(err).Str("category", category).Msg("headline fetch failed")
		articles = nil
	}

	o.updateSession(func(s *Session) {
		s.LastCategory = category
		s.LastSearchQuery = ""
		s.LastNewsData = articles
		s.LastAction = lastActionFetch
	})

	if len(articles) == 0 {
		return fmt.Sprintf("I'm sorry, I couldn't fetch %s news at the moment. Would you like news from another category?", category)
	}
	return news.FormatForVoice(articles, category)
}

// newsDigest reads one headline per category, skipping categories that came
// back empty. The full fetched set is stored in the session so a follow-up
// can drill into a category.
func (o *Orchestrator) newsDigest(ctx context.Context) string {
	byCategory, err := o.news.AllCategories(ctx, digestPerCategory)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("newsapi", "all_categories").Inc()
		log.Error().Err(err).Msg("digest fetch failed")
		byCategory = nil
	}

	var flattened []news.Article
	var sb strings.Builder
	sb.WriteString(digestIntro)
	for _, category := range news.Categories {
		articles := byCategory[category]
		flattened = append(flattened, articles...)
		if len(articles) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Top %s headline: %s.\n\n", category, articles[0].Title)
	}
	sb.WriteString(digestOutro)

	o.updateSession(func(s *Session) {
		s.LastCategory = "general"
		s.LastSearchQuery = ""
		s.LastNewsData = flattened
		s.LastAction = lastActionFetch
	})
	return sb.String()
}

func (o *Orchestrator) searchNews(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return emptySearchResponse
	}

	articles, err := o.news.Search(ctx, query, headlineLimit)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("newsapi", "search").Inc()
		log.Error().Err(err).Str("query", query).Msg("news search failed")
		articles = nil
	}

	o.updateSession(func(s *Session) {
		s.LastCategory = ""
		s.LastSearchQuery = query
		s.LastNewsData = articles
		s.LastAction = lastActionSearch
	})

	if len(articles) == 0 {
		return fmt.Sprintf("I couldn't find any recent news about '%s'. Would you like me to search for something else?", query)
	}
	return news.FormatForVoice(articles, fmt.Sprintf("search results for %s", query))
}

// synthesize is best-effort: any failure is logged and the turn degrades to
// text only.
func (o *Orchestrator) synthesize(ctx context.Context, text, voice string) []byte {
	if o.synthesizer == nil {
		return nil
	}
	start := time.Now()
	audio, err := o.synthesizer.Synthesize(ctx, text, voice)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("deepgram", "synthesize").Inc()
		log.Warn().Err(err).Msg("speech synthesis failed, replying with text only")
		return nil
	}
	o.metrics.ObserveSynthesisLatency(time.Since(start))
	return audio
}

func (o *Orchestrator) recordTurn(ctx context.Context, userText, responseText string, result intent.Result) {
	if o.turns == nil {
		return
	}
	record := memory.Record{
		UserText:     userText,
		ResponseText: responseText,
		Intent:       string(result.Intent),
		Action:       string(result.Action),
		Category:     result.Category,
		Query:        result.SearchQuery,
	}
	if err := o.turns.SaveTurn(ctx, record); err != nil {
		log.Warn().Err(err).Msg("turn log write failed")
	}
}

// HeadlinesOnly fetches the trimmed display projection for one category.
// Failures yield an empty sidebar rather than an error.
func (o *Orchestrator) HeadlinesOnly(ctx context.Context, category string) []news.Headline {
	articles, err := o.news.TopHeadlines(ctx, category, o.country, headlineLimit)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("newsapi", "top_headlines").Inc()
		log.Error().Err(err).Str("category", category).Msg("sidebar fetch failed")
		return nil
	}
	return news.HeadlinesOnly(articles)
}

// RecentTurns exposes the persisted turn log.
func (o *Orchestrator) RecentTurns(ctx context.Context, limit int) ([]memory.Record, error) {
	return o.turns.RecentTurns(ctx, limit)
}

// SessionInfo snapshots the session together with the classifier summary and
// the voice catalog.
func (o *Orchestrator) SessionInfo() SessionInfo {
	o.mu.RLock()
	snapshot := o.session
	snapshot.LastNewsData = append([]news.Article(nil), o.session.LastNewsData...)
	o.mu.RUnlock()

	return SessionInfo{
		Session:             snapshot,
		ConversationSummary: o.classifier.Summary(),
		AvailableVoices:     speech.AvailableVoices(),
	}
}

// ClearSession resets the session and the classifier history. Idempotent.
func (o *Orchestrator) ClearSession() {
	o.mu.Lock()
	o.session = newSession()
	o.mu.Unlock()
	o.classifier.ClearHistory()
}

// SetVoicePreference stores the session default voice, degrading unknown
// selectors to female. Returns the stored value.
func (o *Orchestrator) SetVoicePreference(voice string) string {
	if voice != speech.VoiceMale {
		voice = speech.VoiceFemale
	}
	o.mu.Lock()
	o.session.VoicePreference = voice
	o.mu.Unlock()
	return voice
}

// CategoriesDescription is the spoken enumeration of the fixed categories.
func (o *Orchestrator) CategoriesDescription() string {
	return fmt.Sprintf("I can provide news updates from these categories: %s. Which would you like to hear about?", strings.Join(news.Categories, ", "))
}

func (o *Orchestrator) updateSession(mutate func(*Session)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	mutate(&o.session)
}

func (o *Orchestrator) voiceOrPreference(voice string) string {
	if voice == speech.VoiceFemale || voice == speech.VoiceMale {
		return voice
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.session.VoicePreference
}
