package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini completes via the Gemini API. System messages become the system instruction; assistant turns are sent with the model role.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string, baseURL string) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.Seed != nil {
		config.Seed = genai.Ptr(int32(*req.Seed))
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			return nil, fmt.Errorf("gemini: unsupported role %q", m.Role)
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		responseErr := &ResponseError{Message: err.Error(), err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			responseErr.StatusCode = apiErr.Code
			responseErr.Message = apiErr.Message
		}
		return nil, responseErr
	}

	out := &Response{
		Text: strings.TrimSpace(resp.Text()),
		Metadata: ResponseMetadata{
			RequestID: resp.ResponseID,
			Model:     resp.ModelVersion,
		},
	}
	if out.Metadata.Model == "" {
		out.Metadata.Model = req.Model
	}
	if len(resp.Candidates) > 0 {
		out.Metadata.StopReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Metadata.InputTokens = int(u.PromptTokenCount)
		out.Metadata.OutputTokens = int(u.CandidatesTokenCount)
		out.Metadata.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}
