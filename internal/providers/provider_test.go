package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("unknown", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_OllamaDefaults(t *testing.T) {
	c, err := New("ollama", Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	o, ok := c.(*Ollama)
	if !ok {
		t.Fatalf("got %T, want *Ollama", c)
	}
	if o.model != "deepseek-r1:1.5b" {
		t.Errorf("model = %q", o.model)
	}
	if o.Name() != "ollama" {
		t.Errorf("Name = %q", o.Name())
	}
}

func TestNew_GoogleAlias(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := New("google", Options{})
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if err.Error() == "unknown provider: google" {
		t.Error("'google' should be a valid alias for gemini")
	}
}

func TestNew_MissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	for _, p := range []string{"openai", "anthropic"} {
		if _, err := New(p, Options{}); err == nil {
			t.Errorf("%s: expected missing key error", p)
		}
	}
}

func TestNew_LMStudioNeedsNoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c, err := New("lmstudio", Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Name() != "lmstudio" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestOpenAI_Advise(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "Use subprocess."}}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
		})
	}))
	defer server.Close()

	c, err := NewOpenAI(Options{Model: "gpt-test", Endpoint: server.URL, APIKey: "k", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Advise(context.Background(), AdviceRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Advise error: %v", err)
	}
	if resp.Text != "Use subprocess." || resp.TokensUsed != 7 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	c, err := NewOpenAI(Options{Model: "gpt-test", Endpoint: server.URL, APIKey: "k", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Advise(context.Background(), AdviceRequest{Prompt: "p"})
	if !IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
}

func TestAnthropic_Advise(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "No bugs."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	a, err := NewAnthropic(Options{Model: "claude-test", Endpoint: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := a.Advise(context.Background(), AdviceRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Advise error: %v", err)
	}
	if resp.Text != "No bugs." || resp.TokensUsed != 7 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGemini_Advise(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("x-goog-api-key = %q", r.Header.Get("X-Goog-Api-Key"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if !strings.Contains(fmt.Sprint(body["contents"]), "review this") {
			t.Errorf("prompt missing from contents: %v", body["contents"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Add type hints."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 3, "totalTokenCount": 7}
		}`))
	}))
	defer server.Close()

	c, err := NewGemini(Options{Model: "gemini-test", Endpoint: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Advise(context.Background(), AdviceRequest{Prompt: "review this"})
	if err != nil {
		t.Fatalf("Advise error: %v", err)
	}
	if resp.Text != "Add type hints." || resp.TokensUsed != 7 {
		t.Errorf("resp = %+v", resp)
	}
	if c.Name() != "gemini" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestGemini_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	c, err := NewGemini(Options{Model: "gemini-test", Endpoint: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Advise(context.Background(), AdviceRequest{Prompt: "p"}); err == nil {
		t.Error("expected error for empty candidates")
	}
}

func TestClassifyGeminiError(t *testing.T) {
	if !IsAuthError(classifyGeminiError(genai.APIError{Code: 403, Message: "denied"})) {
		t.Error("403 should be an auth error")
	}
	if !IsRateLimited(classifyGeminiError(genai.APIError{Code: 429})) {
		t.Error("429 should be rate limited")
	}
	if err := classifyGeminiError(errors.New("dial failed")); IsAuthError(err) || isRetryable(err) {
		t.Errorf("transport error misclassified: %v", err)
	}
}
