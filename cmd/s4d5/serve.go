package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/metrics"
	"github.com/suhasdasari/S4D5/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow over HTTP",
		Long: `Starts the HTTP API: POST /runs invokes the alpha strategist and persists the
record, GET /runs and GET /runs/{id} read records back, GET /graph renders the plan
and GET /metrics exposes Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			listener, err := metrics.NewListener(reg)
			if err != nil {
				return err
			}

			runnable, err := a.strategist(a.cfg.Workflow.Seed)
			if err != nil {
				return err
			}
			runnable = runnable.WithListeners(graph.NewLoggingListener(a.logger), listener)

			srv, err := server.New(server.Options{
				Runnable:    runnable,
				Store:       s,
				Gatherer:    reg,
				DefaultGoal: a.cfg.Workflow.Goal,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	return cmd
}
