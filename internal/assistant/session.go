package assistant

import (
	"github.com/bsagevedant/akashvani-ai/internal/news"
	"github.com/bsagevedant/akashvani-ai/internal/speech"
)

// Session action markers for the most recent news-producing turn.
const (
	lastActionNone   = "none"
	lastActionFetch  = "news_fetch"
	lastActionSearch = "news_search"
)

// Session is the process-lifetime conversation record. At most one of
// LastCategory/LastSearchQuery is current at a time; the last writer wins.
type Session struct {
	VoicePreference string         `json:"voice_preference"`
	LastCategory    string         `json:"last_category,omitempty"`
	LastSearchQuery string         `json:"last_search_query,omitempty"`
	LastNewsData    []news.Article `json:"last_news_data,omitempty"`
	LastAction      string         `json:"last_action"`
}

func newSession() Session {
	return Session{
		VoicePreference: speech.VoiceFemale,
		LastAction:      lastActionNone,
	}
}

// SessionInfo is the introspection snapshot of the conversation state.
type SessionInfo struct {
	Session             Session                 `json:"session_data"`
	ConversationSummary string                  `json:"conversation_summary"`
	AvailableVoices     map[string]speech.Voice `json:"available_voices"`
}
