package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/blackoak/boardroom/pkg/models"
)

const parserSystemPrompt = `You convert a CEO's natural-language business goal into JSON.

Respond with a single JSON object and nothing else:
{
  "objective": "improve_retention|grow_revenue|reduce_costs|improve_satisfaction",
  "target_metric": "retention_rate|quarterly_revenue|operating_cost|csat",
  "target_value": <fractional delta, e.g. 0.15 for 15%>,
  "max_budget": <dollar ceiling, 0 if unstated>,
  "constraints": [
    {"kind": "metric_hold", "metric": "<metric>", "direction": "increase|decrease", "description": "<text>"}
  ]
}

If the goal does not fit any objective, respond with {"objective": ""}.`

// AnthropicParser extracts goal structure with the Anthropic API. It sits
// behind the same Parser interface as the rule parser so callers never care
// which one is configured.
type AnthropicParser struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicParser creates the API-backed parser. If apiKey is empty, the
// ANTHROPIC_API_KEY environment variable is used.
func NewAnthropicParser(apiKey string, model anthropic.Model) (*AnthropicParser, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	return &AnthropicParser{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

type parsedPayload struct {
	Objective    string  `json:"objective"`
	TargetMetric string  `json:"target_metric"`
	TargetValue  float64 `json:"target_value"`
	MaxBudget    float64 `json:"max_budget"`
	Constraints  []struct {
		Kind        string  `json:"kind"`
		Metric      string  `json:"metric"`
		Direction   string  `json:"direction"`
		Limit       float64 `json:"limit"`
		Description string  `json:"description"`
	} `json:"constraints"`
}

// Parse asks the model to structure the goal text.
func (p *AnthropicParser) Parse(ctx context.Context, text string) (*Parsed, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: parserSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse goal via API: %w", err)
	}

	var raw strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			raw.WriteString(variant.Text)
		}
	}

	payload, err := extractJSON(raw.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseAmbiguity, err)
	}
	if payload.Objective == "" {
		return nil, fmt.Errorf("%w: model found no recognizable objective", ErrParseAmbiguity)
	}

	parsed := &Parsed{
		Objective:    payload.Objective,
		TargetMetric: payload.TargetMetric,
		TargetValue:  payload.TargetValue,
		MaxBudget:    payload.MaxBudget,
	}
	for _, c := range payload.Constraints {
		parsed.Constraints = append(parsed.Constraints, models.GoalConstraint{
			Kind:        models.ConstraintKind(c.Kind),
			Metric:      c.Metric,
			Direction:   c.Direction,
			Limit:       c.Limit,
			Description: c.Description,
		})
	}
	return parsed, nil
}

// extractJSON pulls the first JSON object out of the model's reply, tolerating
// surrounding prose or code fences.
func extractJSON(s string) (*parsedPayload, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var payload parsedPayload
	if err := json.Unmarshal([]byte(s[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("malformed JSON in reply: %v", err)
	}
	return &payload, nil
}
