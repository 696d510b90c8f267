package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// EnforcerConfig tunes the completion request.
type EnforcerConfig struct {
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
	// Schema is the JSON schema of the envelope, embedded in the prompt when set.
	Schema string
}

// DefaultEnforcerConfig favors short, deterministic, parseable output.
func DefaultEnforcerConfig() EnforcerConfig {
	return EnforcerConfig{
		Temperature:     0.3,
		MaxOutputTokens: 2000,
		Timeout:         10 * time.Second,
	}
}

// ResponseEnforcer obtains a well-formed envelope from the language model,
// whatever the model or transport does.
type ResponseEnforcer struct {
	llm    ports.LLMService
	cfg    EnforcerConfig
	logger *zap.Logger
}

// NewResponseEnforcer creates a ResponseEnforcer with injected dependencies.
func NewResponseEnforcer(llm ports.LLMService, cfg EnforcerConfig, logger *zap.Logger) *ResponseEnforcer {
	def := DefaultEnforcerConfig()
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseEnforcer{llm: llm, cfg: cfg, logger: logger}
}

// Respond asks the model about query given the assembled context. It never
// fails: transport errors and malformed output map to fallback envelopes.
func (e *ResponseEnforcer) Respond(ctx context.Context, query, dataContext string, prior map[string]any) entities.ResponseEnvelope {
	prompt := e.BuildPrompt(query, dataContext, prior)

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.llm.Generate(callCtx, prompt, ports.GenerateOptions{
		Temperature:     e.cfg.Temperature,
		MaxOutputTokens: e.cfg.MaxOutputTokens,
		JSONMode:        true,
	})
	if err != nil {
		e.logger.Error("language model call failed", zap.Error(err))
		return CapabilityFallback()
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		e.logger.Warn("model output violated envelope contract", zap.Error(err), zap.Int("bytes", len(raw)))
		return ParseFallback(query, raw)
	}
	return env
}

// BuildPrompt assembles the single prompt sent to the model.
func (e *ResponseEnforcer) BuildPrompt(query, dataContext string, prior map[string]any) string {
	priorJSON := "{}"
	if len(prior) > 0 {
		if b, err := json.Marshal(prior); err == nil {
			priorJSON = string(b)
		}
	}

	var sb strings.Builder
	sb.WriteString(systemInstruction)
	if e.cfg.Schema != "" {
		sb.WriteString("\n\nRESPONSE JSON SCHEMA:\n")
		sb.WriteString(e.cfg.Schema)
	}
	sb.WriteString("\n\nCurrent data context: ")
	sb.WriteString(dataContext)
	sb.WriteString("\n\nPrevious conversation context: ")
	sb.WriteString(priorJSON)
	sb.WriteString("\n\n")
	sb.WriteString(closingInstruction)
	sb.WriteString("\n\nUser Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nProvide a comprehensive analysis with narrative, data, and actionable insights in JSON format. Include chartSpec for visualizations when appropriate.")
	return sb.String()
}

// ParseError reports model output that does not satisfy the envelope contract.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse envelope: %s: %v", e.Reason, e.Err)
	}
	return "parse envelope: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

var fenceRe = regexp.MustCompile("```(?:json)?\n?")

// StripFences removes markdown code fences and surrounding whitespace.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

type wireEnvelope struct {
	Type      *string           `json:"type"`
	Content   *string           `json:"content"`
	ChartSpec map[string]any    `json:"chartSpec"`
	Actions   []entities.Action `json:"actions"`
	Insights  []string          `json:"insights"`
}

// ParseEnvelope strictly decodes model output into an envelope, applying
// defaults for the optional fields.
func ParseEnvelope(raw string) (entities.ResponseEnvelope, error) {
	cleaned := StripFences(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return entities.ResponseEnvelope{}, &ParseError{Reason: "output is not a JSON object"}
	}

	var w wireEnvelope
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return entities.ResponseEnvelope{}, &ParseError{Reason: "invalid JSON", Err: err}
	}

	env := entities.ResponseEnvelope{
		ChartSpec: w.ChartSpec,
		Actions:   w.Actions,
		Insights:  w.Insights,
	}
	if w.Type != nil && *w.Type != "" {
		env.Type = entities.ResponseType(*w.Type)
		if !env.Type.Valid() {
			return entities.ResponseEnvelope{}, &ParseError{Reason: fmt.Sprintf("unknown type %q", *w.Type)}
		}
	}
	if w.Content != nil && *w.Content != "" {
		env.Content = *w.Content
	} else {
		env.Content = cleaned
	}
	env.Normalize()
	return env, nil
}

// ParseFallback wraps unparseable model text so nothing is lost.
func ParseFallback(query, raw string) entities.ResponseEnvelope {
	return entities.ResponseEnvelope{
		Type:    entities.ResponseText,
		Content: fmt.Sprintf("Based on your query about \"%s\", here's what I found:\n\n%s", query, strings.TrimSpace(raw)),
		Actions: []entities.Action{
			{Label: "Show detailed breakdown", Query: "Show me a detailed breakdown of " + query},
			{Label: "Compare with different period", Query: "Compare " + query + " with different time periods"},
		},
		Insights: []string{"Analysis completed successfully"},
	}
}

// CapabilityFallback is returned when the model cannot be reached.
func CapabilityFallback() entities.ResponseEnvelope {
	return entities.ResponseEnvelope{
		Type:    entities.ResponseText,
		Content: "I can help you analyze business data, sales performance, inventory levels, and customer insights. What specific metrics would you like to explore?",
		Actions: []entities.Action{
			{Label: "Sales Summary", Query: "Show me comprehensive sales summary"},
			{Label: "Current Stock Status", Query: "What's our current inventory status?"},
			{Label: "Product Performance", Query: "Show top performing products"},
			{Label: "Weekly Comparison", Query: "Compare this week vs last week sales performance"},
		},
		Insights: []string{"Ready to analyze your business data"},
	}
}

const systemInstruction = `You are HealthCareWorld's Master Interactive Data Analyst. Follow these rules:

CORE PRINCIPLES:
1. Always interpret the user's intent and compute exact metrics from the data provided
2. Provide narrative summaries before any data tables or charts
3. Return structured JSON responses with appropriate visualizations
4. Suggest relevant follow-up actions after each response
5. Ask clarifying questions when queries are ambiguous
6. When summarizing data, always mention the actual date range from the data, not assumptions

RESPONSE FORMAT:
Always return valid JSON with these fields:
- type: "text"|"table"|"chart"|"action"
- content: Narrative summary + data (markdown format for tables)
- chartSpec: Recharts configuration object (when type="chart")
- actions: Array of follow-up suggestion buttons, each {"label": string, "query": string}
- insights: Array of key insights or anomalies

DATA ANALYSIS RULES:
- For sales queries: compute revenue, order count, AOV, growth rates
- For product queries: include stock levels, ratings, performance metrics
- For time-based queries: use the EXACT data provided in context
- Always highlight trends, anomalies, and key insights
- Include actual numbers and percentages in narratives
- NEVER assume date ranges - use the date ranges stated in the context
- For comparison queries, provide specific metrics for both periods

CHART SPECIFICATIONS:
- Use Recharts format for chartSpec
- Supported chart types: line, bar, pie, area, radialbar, gauge, funnel, scatter, composed
- Include proper data arrays and configuration
- For period comparisons, ALWAYS return type="chart" with a bar chart holding both periods:
  {
    "type": "bar",
    "data": [
      {"period": "This Week", "revenue": 12000, "orders": 45},
      {"period": "Last Week", "revenue": 8000, "orders": 32}
    ],
    "xKey": "period",
    "yKey": "revenue",
    "yKey2": "orders"
  }

FOLLOW-UP ACTIONS:
- Suggest 2-3 relevant next steps as quick-reply buttons
- Include drill-down options and comparative analysis
- Offer export or detailed view options when appropriate`

const closingInstruction = `IMPORTANT:
- Always provide actual figures from the data
- If data shows zero values, report them accurately and suggest reasons or alternative queries
- Extract real numbers from the context data and use them in your response

Respond only with valid JSON in the exact format specified.`
