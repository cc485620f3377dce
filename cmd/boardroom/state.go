package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackoak/boardroom/internal/config"
	"github.com/blackoak/boardroom/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the shared company state",
	Long: `Show the current shared state: budget lines, hiring limits, active
policies, metrics, and commitments, with the version each was last
committed at and by whom.`,
	RunE: runState,
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := state.Open(filepath.Join(cfg.Data.Dir, "state.db"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	store := state.NewStore()
	if err := store.AttachDB(db); err != nil {
		return err
	}

	snap := store.Snapshot()
	if snap.Len() == 0 {
		fmt.Println("shared state is empty; it is seeded on the first run")
		return nil
	}

	fmt.Printf("version %d, %d entries\n\n", snap.Version, snap.Len())
	for _, kind := range []state.EntryKind{
		state.KindBudget, state.KindHeadcount, state.KindPolicy,
		state.KindMetric, state.KindCommitment,
	} {
		entries := snap.ByKind(kind)
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("%s:\n", kind)
		for _, e := range entries {
			switch kind {
			case state.KindBudget, state.KindHeadcount:
				fmt.Printf("  %-26s %.0f / %.0f %s  (v%d by %s)\n",
					e.Key, e.Used, e.Limit, e.Unit, e.Version, e.Actor)
			case state.KindMetric:
				fmt.Printf("  %-26s %g %s\n", e.Key, e.Value, e.Unit)
			default:
				fmt.Printf("  %-26s %s\n", e.Key, e.Description)
			}
		}
		fmt.Println()
	}
	return nil
}
