package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suhasdasari/S4D5/graph"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		format    string
		direction string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the workflow graph",
		Long:  `Prints the compiled alpha strategist as a Mermaid flowchart, an ASCII tree or Graphviz DOT.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runnable, err := a.strategist(a.cfg.Workflow.Seed)
			if err != nil {
				return err
			}
			exporter := runnable.Exporter()

			var out string
			switch format {
			case "mermaid":
				out = exporter.DrawMermaidWithOptions(graph.MermaidOptions{Direction: direction})
			case "ascii":
				out = exporter.DrawASCII()
			case "dot":
				out = exporter.DrawDOT()
			default:
				return fmt.Errorf("unknown format %q (want mermaid, ascii or dot)", format)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "Output format: mermaid, ascii or dot")
	cmd.Flags().StringVar(&direction, "direction", "TD", "Mermaid flow direction (TD or LR)")
	return cmd
}
