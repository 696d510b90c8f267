package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// OpenAILLMAdapter implements ports.LLMService on the OpenAI Responses API
// or any compatible endpoint.
type OpenAILLMAdapter struct {
	client openai.Client
	model  string
	schema map[string]any
}

// OpenAIOptions configures an OpenAILLMAdapter.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	// Schema, when set, is sent as the structured output format in JSON mode.
	Schema map[string]any
}

// NewOpenAILLMAdapter creates an OpenAI adapter. An API key is required.
func NewOpenAILLMAdapter(opts OpenAIOptions) (*OpenAILLMAdapter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}

	// The assistant owns the deadline and the fallback; no SDK retries.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAILLMAdapter{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
		schema: opts.Schema,
	}, nil
}

// Generate sends prompt as a single user message.
func (a *OpenAILLMAdapter) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	params := responses.ResponseNewParams{
		Model:       a.model,
		Temperature: openai.Float(float64(opts.Temperature)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(opts.MaxOutputTokens))
	}
	if opts.JSONMode && a.schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "ResponseEnvelope",
					Schema:      a.schema,
					Strict:      openai.Bool(false),
					Description: openai.String("Staff assistant response envelope"),
					Type:        "json_schema",
				},
			},
		}
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI generate failed: %w", err)
	}
	return resp.OutputText(), nil
}
