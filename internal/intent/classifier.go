package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const systemPrompt = `You are Akashvani AI, a helpful voice assistant that specializes in delivering news updates.
Your primary functions are:
1. Provide top 5 news updates from different categories (technology, politics, sports, entertainment, business, health, science)
2. Search for specific news topics
3. Have natural conversations about current events

Analyze the user's request and respond with a JSON object containing:
{
    "intent": "news_category" | "news_search" | "general_conversation" | "greeting" | "help",
    "category": "technology|politics|sports|entertainment|business|health|science" (if intent is news_category),
    "search_query": "search terms" (if intent is news_search),
    "response": "Your conversational response",
    "action": "fetch_news" | "search_news" | "respond_only"
}

For news requests, be enthusiastic and professional. For greetings, introduce yourself as Akashvani AI.`

const upstreamFailureResponse = "I'm sorry, I'm having trouble processing your request right now. Please try again."

// historyWindow is how many of the most recent turns are sent upstream.
// Storage itself is append-only until ClearHistory.
const historyWindow = 5

type message struct {
	role    string
	content string
}

// chatCompleter is the upstream chat round-trip. Stubbed in tests.
type chatCompleter interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Classifier turns user text into a structured Result via an OpenAI chat
// model, with a deterministic keyword fallback when the reply does not
// conform to the contract. It is stateful: a rolling conversation history
// is kept across calls within the process.
type Classifier struct {
	completer chatCompleter

	mu      sync.Mutex
	history []message
}

type openAICompleter struct {
	client      *openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
}

func (c *openAICompleter) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func NewClassifier(apiKey, model string, maxTokens int) *Classifier {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &Classifier{
		completer: &openAICompleter{
			client:      &client,
			model:       openai.ChatModel(model),
			maxTokens:   int64(maxTokens),
			temperature: 0.7,
		},
	}
}

// Classify never returns an error: an upstream failure yields a fixed
// apology respond_only result, and an unparsable reply goes through the
// deterministic fallback.
func (c *Classifier) Classify(ctx context.Context, userText string) Result {
	c.mu.Lock()
	c.history = append(c.history, message{role: "user", content: userText})
	window := c.recentWindowLocked()
	c.mu.Unlock()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(window)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, m := range window {
		if m.role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.content))
		} else {
			messages = append(messages, openai.UserMessage(m.content))
		}
	}

	reply, err := c.completer.Complete(ctx, messages)
	if err != nil {
		log.Error().Err(err).Msg("intent classification failed")
		return Result{
			Intent:   IntentGeneral,
			Response: upstreamFailureResponse,
			Action:   ActionRespondOnly,
		}.normalize()
	}

	c.mu.Lock()
	c.history = append(c.history, message{role: "assistant", content: reply})
	c.mu.Unlock()

	var result Result
	if err := json.Unmarshal([]byte(stripJSONFences(reply)), &result); err != nil || result.Intent == "" || result.Action == "" {
		// Covers malformed JSON and any other non-conforming shape.
		log.Debug().Str("reply", reply).Msg("classifier reply not parseable, using fallback")
		return fallbackResult(reply, userText).normalize()
	}
	return result.normalize()
}

// ClearHistory drops the rolling conversation history.
func (c *Classifier) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// Summary describes the stored history for session introspection.
func (c *Classifier) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return "No conversation history available."
	}
	return fmt.Sprintf("Conversation has %d messages.", len(c.history))
}

func (c *Classifier) recentWindowLocked() []message {
	if len(c.history) <= historyWindow {
		return append([]message(nil), c.history...)
	}
	return append([]message(nil), c.history[len(c.history)-historyWindow:]...)
}

// stripJSONFences removes markdown code fences some models wrap around
// JSON replies.
func stripJSONFences(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
