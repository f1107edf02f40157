package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// AdviceRequest is one advisory prompt.
type AdviceRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// AdviceResponse is the generated advisory text.
type AdviceResponse struct {
	Text       string
	TokensUsed int
}

// AdvisoryClient turns a prompt into free-form review text.
type AdvisoryClient interface {
	Advise(ctx context.Context, req AdviceRequest) (AdviceResponse, error)
	Name() string
}

// Options configures a backend. Empty fields take per-provider defaults.
type Options struct {
	Model      string
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Logger     hclog.Logger
}

// DefaultModels is the model used when none is configured.
var DefaultModels = map[string]string{
	"ollama":    "deepseek-r1:1.5b",
	"openai":    "gpt-4.1-mini",
	"lmstudio":  "local-model",
	"anthropic": "claude-haiku-4-5",
	"gemini":    "gemini-2.5-flash",
}

// New creates a backend by provider name.
func New(provider string, opts Options) (AdvisoryClient, error) {
	if provider == "google" {
		provider = "gemini"
	}
	if opts.Model == "" {
		opts.Model = DefaultModels[provider]
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	switch provider {
	case "ollama":
		return NewOllama(opts), nil
	case "openai":
		return NewOpenAI(opts)
	case "lmstudio":
		if opts.Endpoint == "" {
			opts.Endpoint = defaultLMStudioURL
		}
		return NewOpenAI(opts)
	case "anthropic":
		return NewAnthropic(opts)
	case "gemini":
		return NewGemini(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
