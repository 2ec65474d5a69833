package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suhasdasari/S4D5/config"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/log"
	"github.com/suhasdasari/S4D5/prebuilt"
	"github.com/suhasdasari/S4D5/store"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath   string
	storeBackend string

	cfg    config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "s4d5",
		Short: "S4D5 runs audited trading decision workflows",
		Long: `S4D5 executes the alpha strategist workflow: a fixed graph of steps that turns a
trading goal into a trade proposal, recording every step in an audit trail.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().StringVar(&a.storeBackend, "store", "", "Audit store backend (memory, file, redis, postgres, sqlite)")

	root.AddCommand(
		newRunCmd(a),
		newGraphCmd(a),
		newValidateCmd(a),
		newAuditCmd(a),
		newServeCmd(a),
	)
	return root
}

// load reads the configuration and installs the configured logger.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storeBackend != "" {
		cfg.Store.Backend = a.storeBackend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	log.SetDefaultLogger(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// strategist compiles the alpha strategist with a market seeded from seed.
func (a *app) strategist(seed int64) (*graph.Runnable, error) {
	return prebuilt.CreateAlphaStrategist(prebuilt.AlphaStrategistConfig{
		Market: prebuilt.NewRandomMarket(seed),
		Logger: a.logger,
	})
}

// openStore opens the configured audit store. The caller must call the
// returned Closer.
func (a *app) openStore(ctx context.Context) (store.AuditStore, config.Closer, error) {
	s, closer, err := a.cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Backend, err)
	}
	return s, closer, nil
}
