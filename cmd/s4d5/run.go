package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/store"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		goal   string
		seed   int64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the alpha strategist once and persist its audit trail",
		Long: `Invokes the alpha strategist for a goal, saves the run record to the configured
audit store and prints the outcome. A run that ends early on high liquidity risk
is not an error; a failed step is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("goal") {
				goal = a.cfg.Workflow.Goal
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Workflow.Seed
			}

			runnable, err := a.strategist(seed)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			createdAt := time.Now()
			res, runErr := runnable.WithListeners(graph.NewLoggingListener(a.logger)).
				Invoke(ctx, map[string]any{"goal": goal})

			rec := store.FromResult(runnable.Name(), res, runErr, createdAt)
			if err := s.Save(ctx, rec); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, rec); err != nil {
					return err
				}
			} else {
				renderRecord(out, rec)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Trading goal (defaults to workflow.goal)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Market simulation seed (defaults to workflow.seed, 0 seeds from the clock)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run record as JSON")
	return cmd
}
