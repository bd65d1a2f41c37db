// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"github.com/bureau-foundation/courier/lib/config"
)

// ConfigParams is the flag group shared by commands that open
// channels. Embed it in a command's params struct.
type ConfigParams struct {
	ConfigPath string `flag:"config" desc:"configuration file (default: $COURIER_CONFIG, else built-in defaults)"`
}

// LoadConfig loads and validates the configuration named by --config
// or COURIER_CONFIG, falling back to [config.Default] when neither is
// set. The configured log level is applied to level.
func (p *ConfigParams) LoadConfig(level *slog.LevelVar) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case p.ConfigPath != "":
		cfg, err = config.LoadFile(p.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if level != nil {
		configured, _ := cfg.Level()
		level.Set(configured)
	}
	return cfg, nil
}
