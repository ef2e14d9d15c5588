// Package classify asks an LLM how relevant a court decision is to a search query.
//
// Calls are deterministic (temperature 0, fixed seed, JSON response format) and cached on the exact message list, so changing the prompt template naturally
// invalidates old entries. Short prompts go to a cheap model; prompts at or above Threshold tokens go to a larger one.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/codalotl/legallens/internal/llmcomplete"
	"github.com/codalotl/legallens/internal/q/health"
	"github.com/codalotl/legallens/internal/tokens"
	"go.uber.org/zap"
)

type Relevance string

const (
	NotRelevant    Relevance = "not relevant"
	Relevant       Relevance = "relevant"
	HighlyRelevant Relevance = "highly relevant"
)

// Labels lists every Relevance in ascending order.
var Labels = []Relevance{NotRelevant, Relevant, HighlyRelevant}

func ParseRelevance(s string) (Relevance, error) {
	for _, l := range Labels {
		if s == string(l) {
			return l, nil
		}
	}
	return "", fmt.Errorf("classify: unknown relevance %q", s)
}

const (
	CacheTag     = "relevance_classification"
	SystemPrompt = "You are a helpful paralegal assistant."

	DefaultCheapModel = "gpt-3.5-turbo"
	DefaultLargeModel = "gpt-4-0125-preview"
	DefaultThreshold  = 16000
	DefaultSeed       = 42
)

// Classifier is safe to reuse across queries. LLM is required; Counter is required unless every call hits the cache.
type Classifier struct {
	LLM     llmcomplete.Completer
	Cache   cache.Store // nil disables caching
	Counter tokens.Counter

	CheapModel string // "" means DefaultCheapModel
	LargeModel string // "" means DefaultLargeModel
	Threshold  int    // 0 means DefaultThreshold
	Seed       *int64 // nil means DefaultSeed

	Logger *zap.Logger
}

// Prompt builds the user prompt for one decision.
func Prompt(query string, text string) string {
	return strings.Join([]string{
		"Here is a court decision:",
		"```txt",
		text,
		"```\n",
		"How relevant is it to my search query \"" + query + "\"?",
		"Reply with a json of the type `{\"relevance\": \"not relevant\" | \"relevant\" | \"highly relevant\"}`",
	}, "\n")
}

// Messages returns the full message list sent to the LLM.
func Messages(query string, text string) []llmcomplete.Message {
	return []llmcomplete.Message{
		{Role: llmcomplete.RoleSystem, Content: SystemPrompt},
		{Role: llmcomplete.RoleUser, Content: Prompt(query, text)},
	}
}

// CacheKey returns the cache key for messages.
func CacheKey(messages []llmcomplete.Message) (string, error) {
	b, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return cache.Key(CacheTag, string(b)), nil
}

// SelectModel returns the model for prompt and its token count. The cheap model serves prompts strictly below Threshold.
func (c *Classifier) SelectModel(prompt string) (string, int, error) {
	if c.Counter == nil {
		return "", 0, fmt.Errorf("classify: no token counter")
	}
	n, err := c.Counter.Count(prompt)
	if err != nil {
		return "", 0, err
	}
	if n < c.threshold() {
		return orDefault(c.CheapModel, DefaultCheapModel), n, nil
	}
	return orDefault(c.LargeModel, DefaultLargeModel), n, nil
}

// Classify returns the relevance of text to query. The raw LLM reply is cached before it is parsed, so a malformed reply keeps failing without new calls.
func (c *Classifier) Classify(ctx context.Context, query string, text string) (Relevance, error) {
	hctx := health.NewCtx(c.logger())
	if c.LLM == nil {
		return "", hctx.LogNewErr("classify: no LLM configured")
	}

	messages := Messages(query, text)
	call := func() (string, error) {
		model, n, err := c.SelectModel(messages[1].Content)
		if err != nil {
			return "", fmt.Errorf("count tokens: %w", err)
		}
		seed := int64(DefaultSeed)
		if c.Seed != nil {
			seed = *c.Seed
		}
		resp, err := c.LLM.Complete(ctx, llmcomplete.Request{
			Model:       model,
			Messages:    messages,
			Temperature: 0,
			Seed:        &seed,
			JSON:        true,
		})
		if err != nil {
			return "", err
		}
		fields := []zap.Field{zap.String("model", model), zap.Int("prompt_tokens", n), zap.Int("total_tokens", resp.Metadata.TotalTokens)}
		hctx.Debug("classified", append(fields, rateLimitFields(resp.Metadata.RateLimits)...)...)
		return resp.Text, nil
	}

	var raw string
	var err error
	if c.Cache == nil {
		raw, err = call()
	} else {
		var key string
		key, err = CacheKey(messages)
		if err != nil {
			return "", hctx.LogWrappedErr("classify: cache key", err)
		}
		raw, _, err = cache.Fetch(c.Cache, key, call)
	}
	if err != nil {
		fields := []zap.Field{zap.String("query", query)}
		var respErr *llmcomplete.ResponseError
		if errors.As(err, &respErr) {
			fields = append(fields, rateLimitFields(respErr.RateLimits)...)
		}
		return "", hctx.LogWrappedErr("classify: completion", err, fields...)
	}

	rel, err := parseReply(raw)
	if err != nil {
		return "", hctx.LogWrappedErr("classify: parse reply", err, zap.String("query", query), zap.String("reply", raw))
	}
	return rel, nil
}

// rateLimitFields reports the provider's remaining quota. Limits the provider did not send are omitted.
func rateLimitFields(rl llmcomplete.RateLimits) []zap.Field {
	var fields []zap.Field
	if rl.RequestsLimit > 0 {
		fields = append(fields, zap.Int("requests_remaining", rl.RequestsRemaining), zap.Int("requests_limit", rl.RequestsLimit))
	}
	if !rl.RequestsResetsAt.IsZero() {
		fields = append(fields, zap.Time("requests_reset_at", rl.RequestsResetsAt))
	}
	if rl.TokensLimit > 0 {
		fields = append(fields, zap.Int("tokens_remaining", rl.TokensRemaining), zap.Int("tokens_limit", rl.TokensLimit))
	}
	if !rl.TokensResetsAt.IsZero() {
		fields = append(fields, zap.Time("tokens_reset_at", rl.TokensResetsAt))
	}
	return fields
}

func parseReply(raw string) (Relevance, error) {
	var reply struct {
		Relevance *string `json:"relevance"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return "", err
	}
	if reply.Relevance == nil {
		return "", fmt.Errorf("reply has no relevance field")
	}
	return ParseRelevance(*reply.Relevance)
}

func (c *Classifier) threshold() int {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

func (c *Classifier) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
