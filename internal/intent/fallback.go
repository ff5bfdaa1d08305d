package intent

import (
	"fmt"
	"strings"

	"github.com/bsagevedant/akashvani-ai/internal/news"
)

const greetingResponse = "Hello! I'm Akashvani AI, your voice assistant for news updates. Ask me for news from any category like technology, politics, sports, or entertainment!"

var (
	newsKeywords     = []string{"news", "headlines", "updates"}
	greetingKeywords = []string{"hello", "hi", "hey", "good morning", "good evening"}
)

// fallbackResult reconstructs a Result from raw user text when the model
// reply does not parse as the structured contract. Precedence: literal
// category name, then generic news keywords, then greetings, then a plain
// echo of the model text.
func fallbackResult(modelReply, userText string) Result {
	lowered := strings.ToLower(userText)

	for _, category := range news.Categories {
		if strings.Contains(lowered, category) {
			return Result{
				Intent:   IntentNewsCategory,
				Category: category,
				Response: fmt.Sprintf("Let me get the latest %s news for you.", category),
				Action:   ActionFetchNews,
			}
		}
	}

	for _, keyword := range newsKeywords {
		if strings.Contains(lowered, keyword) {
			return Result{
				Intent:   IntentNewsCategory,
				Category: "general",
				Response: "Let me get the latest news updates for you.",
				Action:   ActionFetchNews,
			}
		}
	}

	for _, keyword := range greetingKeywords {
		if strings.Contains(lowered, keyword) {
			return Result{
				Intent:   IntentGreeting,
				Response: greetingResponse,
				Action:   ActionRespondOnly,
			}
		}
	}

	return Result{
		Intent:   IntentGeneral,
		Response: modelReply,
		Action:   ActionRespondOnly,
	}
}
