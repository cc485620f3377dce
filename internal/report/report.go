// Package report renders executive-facing output for a finished run: the
// plan with its strategic options and department breakdowns, and audit
// trail summaries.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/govern"
	"github.com/blackoak/boardroom/pkg/models"
)

// Option is a strategic variant of the plan, scaled from the full scope.
type Option struct {
	// Name identifies the variant.
	Name string
	// Description summarizes the tradeoff.
	Description string
	// Cost is the variant's estimated cost.
	Cost float64
	// Headcount is the variant's new hires.
	Headcount int
	// Impact is the expected fractional lift on the target metric.
	Impact float64
}

// StrategicOptions derives the three standard variants from the plan's
// adopted scope: full execution, a phased rollout, and a minimal
// no-hire version.
func StrategicOptions(plan *models.Plan) []Option {
	var cost, impact float64
	var hires int
	for _, a := range plan.Actions {
		if a.Status != models.ActionAdopted && a.Status != models.ActionEscalated {
			continue
		}
		cost += a.Cost
		impact += a.Impact
		hires += a.HeadcountDelta
	}

	return []Option{
		{
			Name:        "comprehensive",
			Description: "Execute every adopted action at once",
			Cost:        cost,
			Headcount:   hires,
			Impact:      impact,
		},
		{
			Name:        "phased",
			Description: "Front-load the highest-impact actions, defer the rest a quarter",
			Cost:        cost * 0.6,
			Headcount:   hires / 2,
			Impact:      impact * 0.75,
		},
		{
			Name:        "minimal",
			Description: "Process fixes only, no new spend commitments or hires",
			Cost:        cost * 0.25,
			Headcount:   0,
			Impact:      impact * 0.4,
		},
	}
}

// Renderer writes formatted reports. Colors degrade to plain text when the
// writer is not a terminal (fatih/color handles detection).
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

var (
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
	good     = color.New(color.FgGreen).SprintFunc()
	warn     = color.New(color.FgYellow).SprintFunc()
	bad      = color.New(color.FgRed).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
	emphasis = color.New(color.Bold).SprintFunc()
)

// Plan renders the full executive report for a finished run.
func (r *Renderer) Plan(goal *models.Goal, plan *models.Plan, escalations []govern.EscalationItem) {
	fmt.Fprintf(r.out, "\n%s\n", heading("EXECUTIVE PLAN"))
	fmt.Fprintf(r.out, "%s %s\n", faint("goal:"), goal.RawText)
	fmt.Fprintf(r.out, "%s %s (%s %+.0f%%)\n", faint("objective:"), goal.Objective, goal.TargetMetric, goal.TargetValue*100)
	fmt.Fprintf(r.out, "%s %s   %s %s\n\n", faint("plan:"), plan.ID, faint("state:"), r.stateLabel(plan.State))

	r.alignment(plan)
	r.actions(plan)
	r.breakdowns(plan)
	r.options(plan)
	r.kpis(goal, plan)
	r.risks(plan, escalations)
}

func (r *Renderer) stateLabel(s models.PlanState) string {
	switch s {
	case models.PlanApproved:
		return good(string(s))
	case models.PlanRejected:
		return bad(string(s))
	case models.PlanGovernanceReviewed, models.PlanEscalated:
		return warn(string(s))
	default:
		return string(s)
	}
}

func (r *Renderer) alignment(plan *models.Plan) {
	label := good(string(plan.Alignment))
	if plan.Alignment != models.AlignmentVerified {
		label = warn(string(plan.Alignment))
	}
	fmt.Fprintf(r.out, "%s %s\n", faint("cross-functional alignment:"), label)
	fmt.Fprintf(r.out, "%s $%s total, %.0f%% confidence\n\n",
		faint("adopted scope:"), formatAmount(plan.AggregateCost), plan.AggregateConfidence*100)
}

func (r *Renderer) actions(plan *models.Plan) {
	fmt.Fprintf(r.out, "%s\n", heading("ACTIONS"))
	for _, a := range plan.Actions {
		marker := good("*")
		note := ""
		switch a.Status {
		case models.ActionDeferred:
			marker = faint("-")
			note = faint(" (deferred)")
		case models.ActionRemoved:
			marker = bad("x")
			note = faint(" (removed)")
		case models.ActionEscalated:
			marker = warn("!")
			note = warn(" (awaiting decision)")
		}
		if a.Flag == models.FlagOverridden {
			note = warn(" (CEO override)")
		}

		fmt.Fprintf(r.out, "  %s %-11s %s%s\n", marker, a.Category, a.Action, note)
		detail := fmt.Sprintf("$%s, confidence %.0f%%, impact %+.1f%%",
			formatAmount(a.Cost), a.Confidence*100, a.Impact*100)
		if a.HeadcountDelta != 0 {
			detail += fmt.Sprintf(", %+d FTE", a.HeadcountDelta)
		}
		if a.Unsupported {
			detail += ", " + warn("UNSUPPORTED")
		}
		fmt.Fprintf(r.out, "    %s\n", faint(detail))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) breakdowns(plan *models.Plan) {
	if len(plan.BudgetByCategory) == 0 {
		return
	}
	fmt.Fprintf(r.out, "%s\n", heading("BY DEPARTMENT"))

	cats := make([]models.Category, 0, len(plan.BudgetByCategory))
	for c := range plan.BudgetByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	for _, c := range cats {
		line := fmt.Sprintf("  %-11s $%s", c, formatAmount(plan.BudgetByCategory[c]))
		if hires := plan.HeadcountByCategory[c]; hires != 0 {
			line += fmt.Sprintf("  %+d FTE", hires)
		}
		fmt.Fprintln(r.out, line)
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) options(plan *models.Plan) {
	fmt.Fprintf(r.out, "%s\n", heading("STRATEGIC OPTIONS"))
	for _, opt := range StrategicOptions(plan) {
		fmt.Fprintf(r.out, "  %s: %s\n", emphasis(opt.Name), opt.Description)
		fmt.Fprintf(r.out, "    %s\n", faint(fmt.Sprintf("$%s, %d hires, ~%+.1f%% on target metric",
			formatAmount(opt.Cost), opt.Headcount, opt.Impact*100)))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) kpis(goal *models.Goal, plan *models.Plan) {
	fmt.Fprintf(r.out, "%s\n", heading("KPIS"))
	fmt.Fprintf(r.out, "  %-24s target %+.0f%%\n", goal.TargetMetric, goal.TargetValue*100)

	var projected float64
	for _, a := range plan.Actions {
		if a.Status == models.ActionAdopted || a.Status == models.ActionEscalated {
			projected += a.Impact
		}
	}
	label := good
	if projected < goal.TargetValue {
		label = warn
	}
	fmt.Fprintf(r.out, "  %-24s %s\n\n", "projected lift", label(fmt.Sprintf("%+.1f%%", projected*100)))
}

func (r *Renderer) risks(plan *models.Plan, escalations []govern.EscalationItem) {
	if len(plan.ResidualRisks) > 0 {
		fmt.Fprintf(r.out, "%s\n", heading("RESIDUAL RISKS"))
		for _, risk := range plan.ResidualRisks {
			fmt.Fprintf(r.out, "  %s %s\n", warn("!"), risk)
		}
		fmt.Fprintln(r.out)
	}

	if len(escalations) > 0 {
		fmt.Fprintf(r.out, "%s\n", heading("ESCALATIONS"))
		for _, item := range escalations {
			fmt.Fprintf(r.out, "  %s %s: %s\n", warn("!"), item.Reason, item.Detail)
		}
		fmt.Fprintln(r.out)
	}

	if len(plan.RequiredApprovals) > 0 {
		fmt.Fprintf(r.out, "%s %s\n\n", warn("awaiting approval:"),
			strings.Join(plan.RequiredApprovals, ", "))
	}
}

// Audit renders an audit trail summary.
func (r *Renderer) Audit(s audit.Summary) {
	fmt.Fprintf(r.out, "\n%s\n", heading("AUDIT SUMMARY"))
	fmt.Fprintf(r.out, "  %-18s %d\n", "records", s.Total)
	fmt.Fprintf(r.out, "  %-18s %d\n", "goals", s.Goals)
	fmt.Fprintf(r.out, "  %-18s %d\n", "escalations", s.Escalations)
	fmt.Fprintf(r.out, "  %-18s %.0f%% (%s)\n\n", "avg confidence",
		s.AvgConfidence*100, audit.BandFor(s.AvgConfidence))

	types := make([]audit.RecordType, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(r.out, "  %-22s %d\n", t, s.ByType[t])
	}
	fmt.Fprintln(r.out)
}

// Records renders audit records one per line, oldest first.
func (r *Renderer) Records(records []audit.Record) {
	for _, rec := range records {
		conf := ""
		if rec.Confidence > 0 {
			conf = faint(fmt.Sprintf(" [%.0f%% %s]", rec.Confidence*100, rec.Band))
		}
		fmt.Fprintf(r.out, "%s %-20s %-12s %s%s\n",
			faint(fmt.Sprintf("#%04d", rec.Seq)), rec.Type, rec.Actor, rec.Summary, conf)
	}
}

// formatAmount renders a dollar amount the way an exec deck would: 450K, 1.2M.
func formatAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", v/1_000_000), ".0") + "M"
	case v >= 1_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", v/1_000), ".0") + "K"
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
