package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "qwen2.5:32b"
)

// Ollama implements the Reviewer interface for a local Ollama server using
// its native generate API.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. No API key is required.
func NewOllama(model string) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		model:   model,
		baseURL: normalizeOllamaURL(baseURL),
		client:  &http.Client{Timeout: 300 * time.Second},
	}, nil
}

// normalizeOllamaURL strips a trailing slash and any API path so that both
// "http://host:11434" and "http://host:11434/api/generate" are accepted.
func normalizeOllamaURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/api/generate")
	u = strings.TrimSuffix(u, "/v1/chat/completions")
	u = strings.TrimSuffix(u, "/v1")
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u
}

func (o *Ollama) Name() string { return "ollama" }

// Available checks that the server answers its model listing endpoint.
func (o *Ollama) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := getURL(ctx, o.client, o.baseURL+"/api/tags"); err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", o.baseURL, err)
	}
	return nil
}

func (o *Ollama) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	body := ollamaRequest{
		Model:  o.model,
		System: req.SystemPrompt,
		Prompt: req.UserPrompt,
		Stream: false,
		Format: "json",
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.Options = &ollamaOptions{NumPredict: req.MaxTokens}
		if req.Temperature > 0 {
			body.Options.Temperature = &req.Temperature
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	return withRetry(ctx, func(ctx context.Context) (ReviewResponse, error) {
		respBody, err := postJSON(ctx, o.client, o.baseURL+"/api/generate", nil, payload)
		if err != nil {
			return ReviewResponse{}, err
		}

		var result ollamaResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return ReviewResponse{}, fmt.Errorf("parsing response: %w", err)
		}
		if result.Error != "" {
			return ReviewResponse{}, fmt.Errorf("ollama: %s", result.Error)
		}
		if result.Response == "" {
			return ReviewResponse{}, fmt.Errorf("empty text content in API response")
		}
		return ReviewResponse{
			Content:    result.Response,
			TokensUsed: result.PromptEvalCount + result.EvalCount,
		}, nil
	})
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Error           string `json:"error,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}
