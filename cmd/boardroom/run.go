package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/config"
	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/govern"
	"github.com/blackoak/boardroom/internal/orchestrator"
	"github.com/blackoak/boardroom/internal/parse"
	"github.com/blackoak/boardroom/internal/registry"
	"github.com/blackoak/boardroom/internal/report"
	"github.com/blackoak/boardroom/internal/specialist"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

var (
	runApprove   bool
	runReject    string
	runRationale string
	runBudget    float64
	runSeedFile  string
	runEphemeral bool
	runJSON      bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Submit a strategic goal and produce a reviewed plan",
	Long: `Submit a natural-language strategic goal.

The goal is parsed, decomposed into department sub-tasks, evaluated by the
specialist pool, reconciled against company policies and budget lines, and
reviewed by the governance gate. The resulting plan is rendered as an
executive report.

Plans that breach governance thresholds (or carry escalated conflicts)
need an explicit decision:
  --approve            Approve the plan, overriding flagged actions
  --reject <rationale> Reject the plan with a rationale

Without either flag, an escalated plan is emitted in governance_reviewed
state and the report lists the approvals it still needs.

Examples:
  boardroom run "Improve customer retention by 15% without increasing CAC"
  boardroom run --budget 800000 "Reduce operating costs by 10%"
  boardroom run --approve --rationale "retention trumps CAC this quarter" "Improve retention by 15%"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	runCmd.Flags().BoolVar(&runApprove, "approve", false, "Approve the plan if it escalates")
	runCmd.Flags().StringVar(&runReject, "reject", "", "Reject an escalated plan with this rationale")
	runCmd.Flags().StringVar(&runRationale, "rationale", "", "Rationale recorded with an --approve decision")
	runCmd.Flags().Float64Var(&runBudget, "budget", 0, "Budget ceiling in dollars (overrides any amount in the goal text)")
	runCmd.Flags().StringVar(&runSeedFile, "seed", "", "Shared-state seed YAML (used when the state database is empty)")
	runCmd.Flags().BoolVar(&runEphemeral, "ephemeral", false, "Run in memory without touching the databases")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Emit the plan as JSON instead of a report")
}

func runGoal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runApprove && runReject != "" {
		return fmt.Errorf("--approve and --reject are mutually exclusive")
	}

	store := state.NewStore()
	auditLog := audit.NewLogger()
	if !runEphemeral {
		if err := attachDatabases(cfg, store, auditLog); err != nil {
			return err
		}
	}
	if store.Version() == 0 {
		if err := seedStore(cfg, store); err != nil {
			return err
		}
	}

	data, err := enterprise.NewSource()
	if err != nil {
		return fmt.Errorf("load enterprise data: %w", err)
	}
	reg := registry.New()
	for _, s := range []registry.Specialist{
		specialist.NewSales(data), specialist.NewMarketing(data), specialist.NewFinance(data),
		specialist.NewOperations(data), specialist.NewSupport(data), specialist.NewHR(data),
	} {
		if err := reg.Register(s); err != nil {
			return fmt.Errorf("register specialist: %w", err)
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithThresholds(govern.FromConfig(cfg.Governance)),
		orchestrator.WithSpecialistTimeout(cfg.Timeouts.Specialist),
	}
	if cfg.Parser.Provider == "anthropic" {
		parser, err := parse.NewAnthropicParser(cfg.Anthropic.APIKey, anthropic.Model(cfg.Anthropic.Model))
		if err != nil {
			return fmt.Errorf("create parser: %w", err)
		}
		opts = append(opts, orchestrator.WithParser(parser))
	}
	if decide := decisionFromFlags(); decide != nil {
		opts = append(opts, orchestrator.WithDecisionFunc(decide))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeouts.Run > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeouts.Run)
		defer cancel()
	}

	o := orchestrator.New(store, reg, auditLog, opts...)

	// Governance threshold edits take effect without a restart.
	if stop, err := config.Watch(config.GetUserConfigPath(), func(updated *config.Config) {
		o.UpdateThresholds(govern.FromConfig(updated.Governance))
		log.Info().Msg("config reloaded, governance thresholds updated")
	}); err == nil {
		defer stop()
	} else {
		log.Debug().Err(err).Msg("config watch unavailable")
	}

	result, err := o.Submit(ctx, parse.Submission{
		Text:      strings.Join(args, " "),
		MaxBudget: runBudget,
	})
	if err != nil {
		return err
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Plan)
	}

	r := report.NewRenderer(os.Stdout)
	r.Plan(result.Goal, result.Plan, result.Escalations)
	switch {
	case result.AwaitingDecision:
		fmt.Printf("Plan awaits a decision. Re-run with --approve or --reject <rationale>.\n")
	case result.Rejected:
		fmt.Printf("Plan rejected.\n")
	case result.Cancelled:
		fmt.Printf("Run cancelled; partial plan emitted.\n")
	}
	fmt.Printf("Audit trail: boardroom audit %s\n", result.Goal.ID)
	return nil
}

// attachDatabases opens the state and audit databases under the data dir and
// wires them into the store and logger.
func attachDatabases(cfg *config.Config, store *state.Store, auditLog *audit.Logger) error {
	stateDB, err := state.Open(filepath.Join(cfg.Data.Dir, "state.db"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	if err := stateDB.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}
	if err := store.AttachDB(stateDB); err != nil {
		return err
	}

	auditDB, err := audit.Open(filepath.Join(cfg.Data.Dir, "audit.db"))
	if err != nil {
		return fmt.Errorf("open audit database: %w", err)
	}
	if err := auditDB.Migrate(); err != nil {
		return fmt.Errorf("migrate audit database: %w", err)
	}
	return auditLog.AttachSink(auditDB)
}

// seedStore loads the initial company context into an empty store. The
// --seed flag wins over the configured seed file; both fall back to the
// built-in defaults.
func seedStore(cfg *config.Config, store *state.Store) error {
	path := runSeedFile
	if path == "" {
		path = cfg.Data.SeedFile
	}

	var entries []state.Entry
	var err error
	if path != "" {
		entries, err = state.SeedFromFile(path)
	} else {
		entries, err = state.DefaultSeed()
	}
	if err != nil {
		return err
	}
	return store.Seed(entries)
}

func decisionFromFlags() orchestrator.DecisionFunc {
	switch {
	case runApprove:
		rationale := runRationale
		if rationale == "" {
			rationale = "approved via --approve"
		}
		return func(_ *models.Goal, _ *models.Plan, _ []govern.EscalationItem) *govern.Decision {
			return &govern.Decision{Approve: true, DecidedBy: "ceo", Rationale: rationale}
		}
	case runReject != "":
		return func(_ *models.Goal, _ *models.Plan, _ []govern.EscalationItem) *govern.Decision {
			return &govern.Decision{Approve: false, DecidedBy: "ceo", Rationale: runReject}
		}
	default:
		return nil
	}
}
