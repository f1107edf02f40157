package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	model      string
	maxRetries int
	client     *genai.Client
}

// NewGemini creates a Gemini backend. GEMINI_API_KEY is preferred over the
// legacy GOOGLE_API_KEY.
func NewGemini(opts Options) (*Gemini, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	cfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.Endpoint != "" {
		cfg.HTTPOptions.BaseURL = opts.Endpoint
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{model: opts.Model, maxRetries: opts.MaxRetries, client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Advise(ctx context.Context, req AdviceRequest) (AdviceResponse, error) {
	var config *genai.GenerateContentConfig
	if req.Temperature > 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(req.Temperature))}
	}

	var out AdviceResponse
	err := retryWithBackoff(ctx, g.maxRetries, func() error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
		if err != nil {
			return classifyGeminiError(err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return fmt.Errorf("empty response from gemini")
		}
		out = AdviceResponse{Text: resp.Text()}
		if resp.UsageMetadata != nil {
			out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
		}
		return nil
	})
	return out, err
}

// classifyGeminiError maps SDK API errors onto the shared error types.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var p *genai.APIError
		if !errors.As(err, &p) || p == nil {
			return fmt.Errorf("generating content: %w", err)
		}
		apiErr = *p
	}
	if classified := classifyStatus(apiErr.Code, apiErr.Message); classified != nil {
		return classified
	}
	return fmt.Errorf("generating content: %w", err)
}
