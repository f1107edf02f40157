package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	model      string
	maxRetries int
	client     anthropic.Client
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(opts Options) (*Anthropic, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimRight(opts.Endpoint, "/")+"/"))
	}

	return &Anthropic{
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		client:     anthropic.NewClient(clientOpts...),
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Advise(ctx context.Context, req AdviceRequest) (AdviceResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	var out AdviceResponse
	err := retryWithBackoff(ctx, a.maxRetries, func() error {
		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) {
				if typed := classifyStatus(apiErr.StatusCode, apiErr.Error()); typed != nil {
					return typed
				}
			}
			return fmt.Errorf("creating message: %w", err)
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		out = AdviceResponse{
			Text:       text.String(),
			TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		}
		return nil
	})
	return out, err
}
