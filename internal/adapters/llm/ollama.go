// Package llm provides language model adapters.
// Clean Architecture: Adapters implementing ports.LLMService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// OllamaLLMAdapter implements ports.LLMService using Ollama API.
type OllamaLLMAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, model string) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaLLMAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			// Upper bound only; callers set the real deadline on ctx.
			Timeout: 120 * time.Second,
		},
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaGenerateResponse is the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate produces a completion for prompt.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  a.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxOutputTokens,
		},
	}
	if opts.JSONMode {
		reqBody.Format = "json"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return genResp.Response, nil
}
