// Package config loads S4D5 settings from a YAML or JSON file with
// S4D5_* environment overrides, and builds the logger and audit store they
// describe.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/suhasdasari/S4D5/log"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "S4D5_"

// Config is the root of the configuration file.
type Config struct {
	Log      LogConfig      `yaml:"log" json:"log"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Workflow WorkflowConfig `yaml:"workflow" json:"workflow"`
}

// LogConfig selects the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error or none.
	Level string `yaml:"level" json:"level"`
	// Backend is "golog" (default) or "std".
	Backend string `yaml:"backend" json:"backend"`
}

// StoreConfig selects the audit store backend. Options are decoded into the
// backend's own options struct.
type StoreConfig struct {
	Backend string         `yaml:"backend" json:"backend"`
	Options map[string]any `yaml:"options" json:"options"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// WorkflowConfig holds the alpha strategist defaults.
type WorkflowConfig struct {
	Goal string `yaml:"goal" json:"goal"`
	// Seed makes the simulated market reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed" json:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:   "info",
			Backend: "golog",
		},
		Store: StoreConfig{
			Backend: BackendMemory,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Workflow: WorkflowConfig{
			Goal: "Find alpha in BTC/ETH markets",
		},
	}
}

// Load reads path on top of Default and applies environment overrides. An
// empty path skips the file. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeFile(path, data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeFile(path string, data []byte, cfg *Config) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// applyEnv overrides cfg from S4D5_LOG_LEVEL, S4D5_LOG_BACKEND,
// S4D5_STORE_BACKEND, S4D5_STORE_<OPTION>, S4D5_SERVER_ADDR, S4D5_GOAL and
// S4D5_SEED.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"LOG_LEVEL":     &cfg.Log.Level,
		"LOG_BACKEND":   &cfg.Log.Backend,
		"STORE_BACKEND": &cfg.Store.Backend,
		"SERVER_ADDR":   &cfg.Server.Addr,
		"GOAL":          &cfg.Workflow.Goal,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	for _, opt := range storeEnvOptions {
		if v, ok := lookup(EnvPrefix + "STORE_" + strings.ToUpper(opt)); ok {
			if cfg.Store.Options == nil {
				cfg.Store.Options = map[string]any{}
			}
			cfg.Store.Options[opt] = v
		}
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED %q: %w", EnvPrefix, v, err)
		}
		cfg.Workflow.Seed = seed
	}
	return nil
}

// Validate checks the values Load cannot type-check.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := c.Logger(); err != nil {
		return fmt.Errorf("log.backend: %w", err)
	}
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// Logger builds the configured logger.
func (c Config) Logger() (log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.New(c.Log.Backend, level)
}
