package intent

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentNewsCategory Intent = "news_category"
	IntentNewsSearch   Intent = "news_search"
	IntentGeneral      Intent = "general_conversation"
	IntentGreeting     Intent = "greeting"
	IntentHelp         Intent = "help"
)

// Action is the orchestrator-level operation an intent maps to.
type Action string

const (
	ActionFetchNews   Action = "fetch_news"
	ActionSearchNews  Action = "search_news"
	ActionRespondOnly Action = "respond_only"
)

// Result is the structured classifier output consumed by the orchestrator.
// Category is meaningful only for fetch_news, SearchQuery only for
// search_news.
type Result struct {
	Intent      Intent `json:"intent"`
	Category    string `json:"category,omitempty"`
	SearchQuery string `json:"search_query,omitempty"`
	Response    string `json:"response"`
	Action      Action `json:"action"`
}

// normalize enforces the result invariants: fetch_news always carries a
// category (defaulting to "general"), and unknown actions degrade to
// respond_only handling at the orchestrator.
func (r Result) normalize() Result {
	switch r.Action {
	case ActionFetchNews:
		if r.Category == "" {
			r.Category = "general"
		}
	case ActionSearchNews, ActionRespondOnly:
	default:
		r.Action = ActionRespondOnly
	}
	if r.Intent == "" {
		r.Intent = IntentGeneral
	}
	return r
}
