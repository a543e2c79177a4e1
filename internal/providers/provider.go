package providers

import (
	"context"
	"fmt"
	"strings"
)

// ReviewRequest contains the data sent to a backend for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw text returned by a backend.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the backend abstraction.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Prober is implemented by backends that can check their own availability
// before a run. A nil error means the backend can be dispatched to.
type Prober interface {
	Available(ctx context.Context) error
}

// Spec selects and parameterizes a backend.
type Spec struct {
	// Provider is one of anthropic, openai, gemini (alias google), ollama
	// (alias qwen) or command.
	Provider string
	Model    string
	// Command is the executable for the command provider.
	Command string
	// Args overrides the command argument template. "{prompt}" is replaced
	// with the combined prompt.
	Args []string
	// Endpoint overrides the base URL for HTTP backends.
	Endpoint string
}

// New creates a backend from spec.
func New(spec Spec) (Reviewer, error) {
	switch strings.ToLower(spec.Provider) {
	case "anthropic":
		return NewAnthropic(spec.Model)
	case "openai":
		o, err := NewOpenAI(spec.Model)
		if err != nil {
			return nil, err
		}
		if spec.Endpoint != "" {
			o.baseURL = spec.Endpoint
		}
		return o, nil
	case "gemini", "google":
		return NewGemini(context.Background(), spec.Model)
	case "ollama", "qwen":
		o, err := NewOllama(spec.Model)
		if err != nil {
			return nil, err
		}
		if spec.Endpoint != "" {
			o.baseURL = normalizeOllamaURL(spec.Endpoint)
		}
		return o, nil
	case "command", "cli":
		return NewCommand(spec.Command, spec.Args)
	default:
		return nil, fmt.Errorf("unknown provider: %s", spec.Provider)
	}
}

// Probe reports whether r is usable. Backends without a probe are assumed
// available.
func Probe(ctx context.Context, r Reviewer) error {
	p, ok := r.(Prober)
	if !ok {
		return nil
	}
	return p.Available(ctx)
}
