package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want entities.ResponseEnvelope
	}{
		{
			name: "full envelope",
			raw: `{"type":"chart","content":"Revenue rose.","chartSpec":{"type":"bar","xKey":"period"},` +
				`"actions":[{"label":"Drill down","query":"Show daily revenue"}],"insights":["Up 25%"]}`,
			want: entities.ResponseEnvelope{
				Type:      entities.ResponseChart,
				Content:   "Revenue rose.",
				ChartSpec: map[string]any{"type": "bar", "xKey": "period"},
				Actions:   []entities.Action{{Label: "Drill down", Query: "Show daily revenue"}},
				Insights:  []string{"Up 25%"},
			},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"type\":\"table\",\"content\":\"| a | b |\"}\n```",
			want: entities.ResponseEnvelope{
				Type:     entities.ResponseTable,
				Content:  "| a | b |",
				Actions:  []entities.Action{},
				Insights: []string{},
			},
		},
		{
			name: "bare fences and padding",
			raw:  "  ```\n{\"type\":\"text\",\"content\":\"ok\"}```  ",
			want: entities.ResponseEnvelope{
				Type:     entities.ResponseText,
				Content:  "ok",
				Actions:  []entities.Action{},
				Insights: []string{},
			},
		},
		{
			name: "type defaults to text",
			raw:  `{"content":"hello"}`,
			want: entities.ResponseEnvelope{
				Type:     entities.ResponseText,
				Content:  "hello",
				Actions:  []entities.Action{},
				Insights: []string{},
			},
		},
		{
			name: "content defaults to cleaned text",
			raw:  "```json\n{\"type\":\"action\"}\n```",
			want: entities.ResponseEnvelope{
				Type:     entities.ResponseAction,
				Content:  `{"type":"action"}`,
				Actions:  []entities.Action{},
				Insights: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnvelope(tt.raw)
			if err != nil {
				t.Fatalf("ParseEnvelope: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("envelope mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEnvelope_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "Revenue today was ₹1500."},
		{"empty", ""},
		{"array", `[{"type":"text"}]`},
		{"truncated", `{"type":"text","content":"Reve`},
		{"unknown type", `{"type":"graph","content":"x"}`},
		{"wrong field type", `{"type":"text","content":"x","actions":"none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.raw)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	if got := StripFences("```json\n{}\n```"); got != "{}" {
		t.Errorf("StripFences = %q, want %q", got, "{}")
	}
	if got := StripFences("  plain  "); got != "plain" {
		t.Errorf("StripFences = %q, want %q", got, "plain")
	}
}

func TestRespond_ParsesModelOutput(t *testing.T) {
	llm := &mockLLM{response: "```json\n{\"type\":\"text\",\"content\":\"Today: ₹1500.00 from 2 orders\",\"insights\":[\"AOV ₹750\"]}\n```"}
	e := NewResponseEnforcer(llm, DefaultEnforcerConfig(), nil)

	got := e.Respond(context.Background(), "today's sales", "Sales Summary for Today", nil)

	want := entities.ResponseEnvelope{
		Type:     entities.ResponseText,
		Content:  "Today: ₹1500.00 from 2 orders",
		Actions:  []entities.Action{},
		Insights: []string{"AOV ₹750"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}

	if len(llm.opts) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(llm.opts))
	}
	opts := llm.opts[0]
	if !opts.JSONMode || opts.MaxOutputTokens != 2000 || opts.Temperature != 0.3 {
		t.Errorf("unexpected generate options: %+v", opts)
	}
}

func TestRespond_ParseFallback(t *testing.T) {
	llm := &mockLLM{response: "I think sales were good."}
	e := NewResponseEnforcer(llm, DefaultEnforcerConfig(), nil)

	got := e.Respond(context.Background(), "today's sales", "ctx", nil)

	if got.Type != entities.ResponseText {
		t.Errorf("Type = %q, want text", got.Type)
	}
	if !strings.HasPrefix(got.Content, `Based on your query about "today's sales", here's what I found:`) {
		t.Errorf("unexpected content: %q", got.Content)
	}
	if !strings.Contains(got.Content, "I think sales were good.") {
		t.Errorf("raw model text was dropped: %q", got.Content)
	}
	if len(got.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(got.Actions))
	}
	if diff := cmp.Diff([]string{"Analysis completed successfully"}, got.Insights); diff != "" {
		t.Errorf("insights mismatch (-want +got):\n%s", diff)
	}
}

func TestRespond_UnknownTypeFallsBack(t *testing.T) {
	llm := &mockLLM{response: `{"type":"graph","content":"x"}`}
	e := NewResponseEnforcer(llm, DefaultEnforcerConfig(), nil)

	got := e.Respond(context.Background(), "q", "ctx", nil)

	if diff := cmp.Diff(ParseFallback("q", `{"type":"graph","content":"x"}`), got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestRespond_TransportFailure(t *testing.T) {
	llm := &mockLLM{err: errors.New("503 service unavailable")}
	e := NewResponseEnforcer(llm, DefaultEnforcerConfig(), nil)

	got := e.Respond(context.Background(), "q", "ctx", nil)

	if diff := cmp.Diff(CapabilityFallback(), got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
	if len(got.Actions) != 4 {
		t.Errorf("expected 4 actions, got %d", len(got.Actions))
	}
}

func TestRespond_Timeout(t *testing.T) {
	llm := &mockLLM{block: true}
	cfg := DefaultEnforcerConfig()
	cfg.Timeout = 20 * time.Millisecond
	e := NewResponseEnforcer(llm, cfg, nil)

	start := time.Now()
	got := e.Respond(context.Background(), "q", "ctx", nil)

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Respond took %v, want bounded by timeout", elapsed)
	}
	if diff := cmp.Diff(CapabilityFallback(), got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPrompt(t *testing.T) {
	cfg := DefaultEnforcerConfig()
	cfg.Schema = `{"type":"object"}`
	e := NewResponseEnforcer(&mockLLM{}, cfg, nil)

	prompt := e.BuildPrompt("Compare this week vs last week", "Sales Summary for This Week", map[string]any{"lastTopic": "sales"})

	for _, want := range []string{
		"HealthCareWorld's Master Interactive Data Analyst",
		"RESPONSE JSON SCHEMA:\n{\"type\":\"object\"}",
		"Current data context: Sales Summary for This Week",
		`Previous conversation context: {"lastTopic":"sales"}`,
		"Respond only with valid JSON in the exact format specified.",
		"User Query: Compare this week vs last week",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if i, j := strings.Index(prompt, "Current data context:"), strings.Index(prompt, "User Query:"); i > j {
		t.Error("data context must precede the user query")
	}
}

func TestBuildPrompt_EmptyPriorContext(t *testing.T) {
	e := NewResponseEnforcer(&mockLLM{}, DefaultEnforcerConfig(), nil)

	prompt := e.BuildPrompt("q", "ctx", nil)

	if !strings.Contains(prompt, "Previous conversation context: {}") {
		t.Error("empty prior context should render as {}")
	}
	if strings.Contains(prompt, "RESPONSE JSON SCHEMA") {
		t.Error("schema section should be omitted when no schema is configured")
	}
}
