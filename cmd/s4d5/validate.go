package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and compile the workflow",
		Long: `Loads the configuration, then compiles the alpha strategist graph and reports
every structural violation found. Nothing is executed or persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s log=%s/%s store=%s\n", titleStyle.Render("config ok"),
				a.cfg.Log.Backend, a.cfg.Log.Level, a.cfg.Store.Backend)

			runnable, err := a.strategist(a.cfg.Workflow.Seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s: %d steps, entry %s\n", titleStyle.Render("graph ok"),
				runnable.Name(), len(runnable.Steps()), runnable.EntryPoint())
			return nil
		},
	}
}
