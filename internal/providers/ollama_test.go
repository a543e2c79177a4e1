package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be false")
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		if req.Model != "qwen2.5:32b" || req.System != "sys" || req.Prompt != "user" {
			t.Errorf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(ollamaResponse{
			Response:        `{"issues": []}`,
			PromptEvalCount: 80,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	o := &Ollama{model: "qwen2.5:32b", baseURL: server.URL, client: server.Client()}

	resp, err := o.Review(context.Background(), ReviewRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != `{"issues": []}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("TokensUsed = %d, want 100", resp.TokensUsed)
	}
}

func TestOllama_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
	}))
	defer server.Close()

	o := &Ollama{model: "missing", baseURL: server.URL, client: server.Client()}
	_, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "test"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOllama_ServerErrorRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer server.Close()

	o := &Ollama{model: "qwen2.5:32b", baseURL: server.URL, client: server.Client()}
	if _, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "test"}); err == nil {
		t.Fatal("Expected error for server error response")
	}
	if attempts < 2 {
		t.Errorf("expected retries, got %d attempts", attempts)
	}
}

func TestOllama_Available(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(404)
			return
		}
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	o := &Ollama{model: "qwen2.5:32b", baseURL: server.URL, client: server.Client()}
	if err := o.Available(context.Background()); err != nil {
		t.Fatalf("Available() = %v", err)
	}

	server.Close()
	if err := o.Available(context.Background()); err == nil {
		t.Fatal("expected error once the server is gone")
	}
}

func TestNormalizeOllamaURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:11434", "http://localhost:11434"},
		{"http://localhost:11434/", "http://localhost:11434"},
		{"http://localhost:11434/api/generate", "http://localhost:11434"},
		{"http://localhost:11434/v1", "http://localhost:11434"},
		{"http://localhost:11434/v1/chat/completions", "http://localhost:11434"},
		{"gpu-box:11434", "http://gpu-box:11434"},
	}
	for _, tt := range tests {
		if got := normalizeOllamaURL(tt.in); got != tt.want {
			t.Errorf("normalizeOllamaURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewOllama_Defaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	o, err := NewOllama("")
	if err != nil {
		t.Fatal(err)
	}
	if o.model != defaultOllamaModel {
		t.Errorf("model = %q, want %q", o.model, defaultOllamaModel)
	}
	if o.baseURL != defaultOllamaURL {
		t.Errorf("baseURL = %q, want %q", o.baseURL, defaultOllamaURL)
	}
}
