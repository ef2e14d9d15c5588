// llmcomplete is a barebones package to abstract single-shot LLM chat completions across providers (OpenAI, Gemini). It purposefully does NOT take advantage of
// each provider's special features. There is no tool support and no streaming. It only does completions, optionally constrained to a JSON object.
package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn. Its JSON form ({"role": ..., "content": ...}) is stable and is used to derive cache keys.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	Seed        *int64 // nil means no seed is sent
	JSON        bool   // constrain the response to a JSON object
}

type Response struct {
	Text     string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	RequestID  string // ex: "chatcmpl-BXYJ0U9PpC3uDzeoP2ZN1nBthfnpu"
	Model      string // ex: "gpt-3.5-turbo-0125"
	StopReason string // pass-through of the provider's finish reason

	TotalTokens  int
	InputTokens  int
	OutputTokens int
	RateLimits
}

type RateLimits struct {
	TokensLimit       int
	RequestsLimit     int
	TokensRemaining   int
	RequestsRemaining int
	TokensResetsAt    time.Time
	RequestsResetsAt  time.Time
}

// ResponseError is returned when the provider rejects or fails a request.
type ResponseError struct {
	StatusCode int // HTTP status code, if known
	Message    string
	RateLimits
	err error
}

func (e *ResponseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "llm request failed: " + e.Message
}

func (e *ResponseError) Unwrap() error { return e.err }

// Completer performs one chat completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

type ProviderID string

const (
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
)

// DefaultAPIKeyEnv is the env var conventionally holding each provider's key.
var DefaultAPIKeyEnv = map[ProviderID]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

var ErrNoAPIKey = errors.New("llmcomplete: no API key")

// New builds a Completer for provider. baseURL may be empty to use the provider's default endpoint.
func New(ctx context.Context, provider ProviderID, apiKey string, baseURL string) (Completer, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAI(apiKey, baseURL), nil
	case ProviderGemini:
		return NewGemini(ctx, apiKey, baseURL)
	default:
		return nil, fmt.Errorf("llmcomplete: unknown provider %q", provider)
	}
}

func validateRequest(req Request) error {
	if req.Model == "" {
		return errors.New("llmcomplete: request has no model")
	}
	if len(req.Messages) == 0 {
		return errors.New("llmcomplete: request has no messages")
	}
	return nil
}
