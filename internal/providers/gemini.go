package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"
)

// Gemini implements the Reviewer interface for Google's Gemini API through
// the genai SDK.
type Gemini struct {
	model string
	cli   *genai.Client
}

// NewGemini creates a new Gemini provider.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable is not set")
	}
	return newGeminiClient(ctx, model, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGeminiClient(ctx context.Context, model string, cfg *genai.ClientConfig) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{model: model, cli: cli}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.UserPrompt}}}}

	return withRetry(ctx, func(ctx context.Context) (ReviewResponse, error) {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			return ReviewResponse{}, classifyGeminiError(err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return ReviewResponse{}, fmt.Errorf("no candidates in response")
		}

		var text strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		if text.Len() == 0 {
			return ReviewResponse{}, fmt.Errorf("empty text content in API response")
		}

		out := ReviewResponse{Content: text.String()}
		if resp.UsageMetadata != nil {
			out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
		}
		return out, nil
	})
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &rateLimitError{}
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return &authError{message: apiErr.Message}
	case apiErr.Code >= 500:
		return &serverError{statusCode: apiErr.Code, body: apiErr.Message}
	}
	return err
}
