package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// GeminiLLMAdapter implements ports.LLMService on the Gemini API.
type GeminiLLMAdapter struct {
	client *genai.Client
	model  string
}

// GeminiOptions configures a GeminiLLMAdapter. BaseURL and HTTPClient are
// optional and mostly useful for pointing at a proxy or a test server.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiLLMAdapter creates a Gemini adapter. An API key is required.
func NewGeminiLLMAdapter(ctx context.Context, opts GeminiOptions) (*GeminiLLMAdapter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiLLMAdapter{client: client, model: opts.Model}, nil
}

// Generate sends prompt as a single user turn.
func (a *GeminiLLMAdapter) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}
	return resp.Text(), nil
}
