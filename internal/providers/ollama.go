package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/critic/internal/logging"
)

const defaultOllamaURL = "http://localhost:11434"

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Ollama calls a local Ollama server's /api/generate endpoint.
type Ollama struct {
	model  string
	apiKey string
	client *resty.Client
}

// NewOllama creates an Ollama backend. The endpoint falls back to
// OLLAMA_HOST, then to http://localhost:11434.
func NewOllama(opts Options) *Ollama {
	baseURL := opts.Endpoint
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api/generate")

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("CRITIC_OLLAMA_API_KEY")
	}

	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetLogger(logging.Resty(opts.Logger.Named("ollama"))).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(retryBaseDelay).
		SetRetryMaxWaitTime(retryBaseDelay << 3).
		AddRetryCondition(retryableResponse)

	return &Ollama{
		model:  opts.Model,
		apiKey: apiKey,
		client: client,
	}
}

func (o *Ollama) Name() string { return "ollama" }

// Advise sends one non-streaming generate request. A response without a
// "response" field yields empty text.
func (o *Ollama) Advise(ctx context.Context, req AdviceRequest) (AdviceResponse, error) {
	body := generateRequest{Model: o.model, Prompt: req.Prompt, Stream: false}

	r := o.client.R().SetContext(ctx).SetBody(body)
	if o.apiKey != "" {
		r.SetAuthToken(o.apiKey)
	}
	resp, err := r.Post("/api/generate")
	if err != nil {
		return AdviceResponse{}, fmt.Errorf("sending request: %w", err)
	}
	if err := classifyStatus(resp.StatusCode(), string(resp.Body())); err != nil {
		return AdviceResponse{}, err
	}

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return AdviceResponse{}, fmt.Errorf("parsing response: %w", err)
	}
	return AdviceResponse{
		Text:       result.Response,
		TokensUsed: result.PromptEvalCount + result.EvalCount,
	}, nil
}

// retryableResponse lets resty retry the statuses classifyStatus treats as
// transient: 429 and 5xx.
func retryableResponse(r *resty.Response, _ error) bool {
	if r == nil {
		return false
	}
	s := r.StatusCode()
	return s == 429 || s >= 500
}
