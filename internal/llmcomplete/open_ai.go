package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAI completes via the Chat Completions API. Retries are disabled: a failed request fails.
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(apiKey string, baseURL string, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("openai: unsupported role %q", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.Seed != nil {
		params.Seed = param.NewOpt(*req.Seed)
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	var httpResp *http.Response
	resp, err := o.client.Chat.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		responseErr := &ResponseError{Message: err.Error(), err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			responseErr.StatusCode = apiErr.StatusCode
			if apiErr.Message != "" {
				responseErr.Message = apiErr.Message
			}
		}
		if httpResp != nil {
			setRateLimitsFromHeaders(&responseErr.RateLimits, httpResp.Header)
			if responseErr.StatusCode == 0 {
				responseErr.StatusCode = httpResp.StatusCode
			}
		}
		return nil, responseErr
	}

	if resp == nil {
		return nil, fmt.Errorf("openai: chat completion response is nil")
	}
	if len(resp.Choices) != 1 {
		return nil, fmt.Errorf("openai: unexpected choices length: %d", len(resp.Choices))
	}
	choice := resp.Choices[0]
	if role := string(choice.Message.Role); role != "assistant" {
		return nil, fmt.Errorf("openai: unexpected role of reply: %s", role)
	}
	text := choice.Message.Content
	if text == "" {
		text = choice.Message.Refusal
	}

	out := &Response{
		Text: text,
		Metadata: ResponseMetadata{
			RequestID:    resp.ID,
			Model:        resp.Model,
			StopReason:   choice.FinishReason,
			TotalTokens:  int(resp.Usage.TotalTokens),
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	if httpResp != nil {
		setRateLimitsFromHeaders(&out.Metadata.RateLimits, httpResp.Header)
	}
	return out, nil
}

func setRateLimitsFromHeaders(rateLimits *RateLimits, headers http.Header) {
	if rateLimits == nil || headers == nil {
		return
	}

	rateLimits.TokensLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-tokens"))
	rateLimits.RequestsLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-requests"))
	rateLimits.TokensRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-tokens"))
	rateLimits.RequestsRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-requests"))
	rateLimits.TokensResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-tokens"))
	rateLimits.RequestsResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-requests"))
}

func parseRateLimitInt(val string) int {
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

// parseRateLimitReset returns the zero time when val is absent or not a duration (ex: "6m0s", "20ms").
func parseRateLimitReset(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	if d, err := time.ParseDuration(val); err == nil {
		return time.Now().Add(d)
	}
	return time.Time{}
}
