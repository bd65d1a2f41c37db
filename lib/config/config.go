// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/courier/lib/ipc"
)

// EnvironmentVariable names the variable [Load] reads.
const EnvironmentVariable = "COURIER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// productionMaxMessageSize is the message cap production falls back to
// when its section does not set one.
const productionMaxMessageSize = 32 << 20

// Config is the courier configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// SocketDirectory holds the rendezvous sockets of named channels.
	SocketDirectory string `yaml:"socket_directory"`

	// MaxMessageSize caps a single message, header included.
	MaxMessageSize int `yaml:"max_message_size"`

	// ReadBufferSize is how much one socket read requests.
	ReadBufferSize int `yaml:"read_buffer_size"`

	// MaxDescriptorsPerMessage caps descriptors attached to one
	// outgoing message. At most ipc.MaxDescriptorsPerMessage.
	MaxDescriptorsPerMessage int `yaml:"max_descriptors_per_message"`

	// Tracing records every message sent and received.
	Tracing bool `yaml:"tracing"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the fields an environment section can replace.
// Unset fields keep the base value.
type Overrides struct {
	SocketDirectory          string `yaml:"socket_directory,omitempty"`
	MaxMessageSize           int    `yaml:"max_message_size,omitempty"`
	ReadBufferSize           int    `yaml:"read_buffer_size,omitempty"`
	MaxDescriptorsPerMessage int    `yaml:"max_descriptors_per_message,omitempty"`
	Tracing                  *bool  `yaml:"tracing,omitempty"`
	LogLevel                 string `yaml:"log_level,omitempty"`
}

// Default returns the default configuration, used as the base before
// a file is loaded and on its own when no file is given.
func Default() *Config {
	return &Config{
		Environment:              Development,
		SocketDirectory:          ipc.DefaultSocketDirectory(),
		MaxMessageSize:           ipc.DefaultMaxMessageSize,
		ReadBufferSize:           ipc.DefaultReadBufferSize,
		MaxDescriptorsPerMessage: ipc.MaxDescriptorsPerMessage,
		LogLevel:                 "info",
	}
}

// Load loads configuration from the COURIER_CONFIG environment
// variable. It fails when the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your courier config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// section for the configured environment and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile merges a single file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// JSON is a subset of YAML, so once comments and trailing commas
	// are stripped the YAML decoder and its field tags serve both.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			tracing := false
			overrides = &Overrides{
				MaxMessageSize: productionMaxMessageSize,
				Tracing:        &tracing,
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.SocketDirectory != "" {
		c.SocketDirectory = overrides.SocketDirectory
	}
	if overrides.MaxMessageSize != 0 {
		c.MaxMessageSize = overrides.MaxMessageSize
	}
	if overrides.ReadBufferSize != 0 {
		c.ReadBufferSize = overrides.ReadBufferSize
	}
	if overrides.MaxDescriptorsPerMessage != 0 {
		c.MaxDescriptorsPerMessage = overrides.MaxDescriptorsPerMessage
	}
	if overrides.Tracing != nil {
		c.Tracing = *overrides.Tracing
	}
	if overrides.LogLevel != "" {
		c.LogLevel = overrides.LogLevel
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// socket directory.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_RUNTIME_DIR": os.Getenv("XDG_RUNTIME_DIR"),
	}
	c.SocketDirectory = expandVars(c.SocketDirectory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.SocketDirectory == "" {
		errs = append(errs, errors.New("socket_directory is required"))
	} else if !filepath.IsAbs(c.SocketDirectory) {
		errs = append(errs, fmt.Errorf("socket_directory must be absolute, got %q", c.SocketDirectory))
	}

	if c.MaxMessageSize < ipc.HeaderSize {
		errs = append(errs, fmt.Errorf("max_message_size must be at least %d, got %d", ipc.HeaderSize, c.MaxMessageSize))
	}

	if c.ReadBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("read_buffer_size must be positive, got %d", c.ReadBufferSize))
	}

	if c.MaxDescriptorsPerMessage < 1 || c.MaxDescriptorsPerMessage > ipc.MaxDescriptorsPerMessage {
		errs = append(errs, fmt.Errorf("max_descriptors_per_message must be between 1 and %d, got %d",
			ipc.MaxDescriptorsPerMessage, c.MaxDescriptorsPerMessage))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level must be one of debug, info, warn, error: got %q", c.LogLevel)
	}
	return level, nil
}

// ChannelOptions converts the configuration to channel options. The
// caller attaches a tracer when Tracing is set.
func (c *Config) ChannelOptions(logger *slog.Logger) ipc.ChannelOptions {
	return ipc.ChannelOptions{
		SocketDirectory:          c.SocketDirectory,
		MaxMessageSize:           c.MaxMessageSize,
		ReadBufferSize:           c.ReadBufferSize,
		MaxDescriptorsPerMessage: c.MaxDescriptorsPerMessage,
		Logger:                   logger,
	}
}

// EnsureSocketDirectory creates the socket directory, readable only by
// the current user, if it does not exist.
func (c *Config) EnsureSocketDirectory() error {
	if err := os.MkdirAll(c.SocketDirectory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.SocketDirectory, err)
	}
	return nil
}
