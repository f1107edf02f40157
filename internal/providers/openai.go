package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultLMStudioURL = "http://localhost:1234/v1"

// OpenAI calls the chat completions API of OpenAI or a compatible server.
type OpenAI struct {
	name       string
	model      string
	maxRetries int
	client     *openai.Client
}

// NewOpenAI creates an OpenAI backend. An API key is required unless a
// custom endpoint is set.
func NewOpenAI(opts Options) (*OpenAI, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" && opts.Endpoint == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	cfg := openai.DefaultConfig(key)
	name := "openai"
	if opts.Endpoint != "" {
		cfg.BaseURL = strings.TrimRight(opts.Endpoint, "/")
		if opts.Endpoint == defaultLMStudioURL {
			name = "lmstudio"
		}
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAI{
		name:       name,
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		client:     openai.NewClientWithConfig(cfg),
	}, nil
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Advise(ctx context.Context, req AdviceRequest) (AdviceResponse, error) {
	chat := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	var out AdviceResponse
	err := retryWithBackoff(ctx, o.maxRetries, func() error {
		resp, err := o.client.CreateChatCompletion(ctx, chat)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		out = AdviceResponse{
			Text:       resp.Choices[0].Message.Content,
			TokensUsed: resp.Usage.TotalTokens,
		}
		return nil
	})
	return out, err
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if typed := classifyStatus(apiErr.HTTPStatusCode, apiErr.Message); typed != nil {
			return typed
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if typed := classifyStatus(reqErr.HTTPStatusCode, reqErr.Error()); typed != nil {
			return typed
		}
	}
	return fmt.Errorf("chat completion: %w", err)
}
