package parse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blackoak/boardroom/pkg/models"
)

// RuleParser recognizes the known goal shapes with regular expressions.
// It is deterministic and needs no network access.
type RuleParser struct{}

// NewRuleParser creates a rule-based parser.
func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

var (
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	budgetRe  = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*([kKmM]?)`)
	noCACRe   = regexp.MustCompile(`without\s+(?:increasing|raising|growing)\s+(?:cac|customer acquisition cost)`)
	freezeRe  = regexp.MustCompile(`(?:hiring\s+freeze|without\s+(?:hiring|new\s+hires))`)
)

// objectivePatterns maps recognizable phrasings to objectives. First match wins.
var objectivePatterns = []struct {
	re        *regexp.Regexp
	objective string
	metric    string
}{
	{regexp.MustCompile(`(?:improve|increase|raise|boost)\s+(?:customer\s+)?retention`), "improve_retention", "retention_rate"},
	{regexp.MustCompile(`(?:reduce|lower|cut)\s+(?:customer\s+)?churn`), "improve_retention", "retention_rate"},
	{regexp.MustCompile(`(?:grow|increase|raise)\s+(?:annual\s+|quarterly\s+)?revenue`), "grow_revenue", "quarterly_revenue"},
	{regexp.MustCompile(`(?:reduce|lower|cut)\s+(?:operating\s+)?costs?`), "reduce_costs", "operating_cost"},
	{regexp.MustCompile(`(?:improve|increase|raise)\s+(?:customer\s+)?(?:satisfaction|csat)`), "improve_satisfaction", "csat"},
}

// Parse extracts the objective, target delta, and textual constraints.
// Returns ErrParseAmbiguity when no objective pattern matches.
func (p *RuleParser) Parse(_ context.Context, text string) (*Parsed, error) {
	lower := strings.ToLower(text)

	parsed := &Parsed{}
	for _, op := range objectivePatterns {
		if op.re.MatchString(lower) {
			parsed.Objective = op.objective
			parsed.TargetMetric = op.metric
			break
		}
	}
	if parsed.Objective == "" {
		return nil, fmt.Errorf("%w: no recognized objective in %q", ErrParseAmbiguity, text)
	}

	if m := percentRe.FindStringSubmatch(lower); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			parsed.TargetValue = pct / 100
		}
	}

	if m := budgetRe.FindStringSubmatch(lower); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch strings.ToLower(m[2]) {
			case "k":
				amount *= 1_000
			case "m":
				amount *= 1_000_000
			}
			parsed.MaxBudget = amount
		}
	}

	if noCACRe.MatchString(lower) {
		parsed.Constraints = append(parsed.Constraints, models.GoalConstraint{
			Kind:        models.ConstraintMetricHold,
			Metric:      "cac",
			Direction:   "increase",
			Description: "customer acquisition cost must not increase",
		})
	}
	if freezeRe.MatchString(lower) {
		parsed.Constraints = append(parsed.Constraints, models.GoalConstraint{
			Kind:        models.ConstraintMetricHold,
			Metric:      "headcount",
			Direction:   "increase",
			Description: "no new hires",
		})
	}

	return parsed, nil
}
