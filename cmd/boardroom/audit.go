package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/config"
	"github.com/blackoak/boardroom/internal/report"
)

var (
	auditSummary bool
	auditVerify  bool
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit [goal-id]",
	Short: "Query the audit trail",
	Long: `Query the append-only audit trail.

Without arguments, lists every record. With a goal id, lists the causal
chain for that goal: submission, decomposition, dispatches,
recommendations, conflicts, escalations, governance decisions, state
commits, and the emitted plan.

Examples:
  boardroom audit                  # every record
  boardroom audit 3f2a91bc         # one goal's chain
  boardroom audit --summary        # counts by type, escalations, confidence
  boardroom audit --verify         # check hash-chain integrity`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuditQuery,
}

func init() {
	auditCmd.Flags().BoolVar(&auditSummary, "summary", false, "Print a summary instead of records")
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "Verify hash-chain integrity")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Emit records as JSON")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := audit.Open(filepath.Join(cfg.Data.Dir, "audit.db"))
	if err != nil {
		return fmt.Errorf("open audit database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate audit database: %w", err)
	}

	log := audit.NewLogger()
	if err := log.AttachSink(db); err != nil {
		return fmt.Errorf("load audit records: %w", err)
	}

	goalID := ""
	if len(args) > 0 {
		goalID = args[0]
	}

	if auditVerify {
		if err := log.Verify(); err != nil {
			return fmt.Errorf("audit chain verification failed: %w", err)
		}
		fmt.Println("audit chain intact")
		return nil
	}

	if auditSummary {
		report.NewRenderer(os.Stdout).Audit(log.Report(goalID))
		return nil
	}

	var records []audit.Record
	if goalID == "" {
		records = log.All()
	} else {
		records = log.ByGoal(goalID)
	}
	if len(records) == 0 {
		fmt.Println("no audit records")
		return nil
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	report.NewRenderer(os.Stdout).Records(records)
	return nil
}
