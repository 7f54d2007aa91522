// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvConfig      = "HEXLOG_CONFIG"
	EnvLabelStdin  = "HEXLOG_LABEL_STDIN"
	EnvLabelStdout = "HEXLOG_LABEL_STDOUT"
	EnvFDStdin     = "HEXLOG_FD_STDIN"
	EnvFDStdout    = "HEXLOG_FD_STDOUT"
	EnvInterval    = "HEXLOG_INTERVAL"
	EnvRestrict    = "HEXLOG_RESTRICT"
	EnvLogLevel    = "HEXLOG_LOG_LEVEL"
	EnvSummary     = "HEXLOG_SUMMARY"
	EnvCompress    = "HEXLOG_COMPRESS"
)

// ErrInvalid is wrapped by every validation and parse error.
var ErrInvalid = errors.New("invalid configuration")

// Config is hexlog's complete runtime configuration.
type Config struct {
	// Labels are appended to every hex-dump line of each direction.
	Labels LabelsConfig `yaml:"labels" json:"labels"`

	// LogFD names the descriptor each direction's log is written to.
	LogFD LogFDConfig `yaml:"log_fd" json:"log_fd"`

	// Interval is the flush interval in whole seconds. Zero disables
	// periodic flushing.
	Interval int `yaml:"interval" json:"interval"`

	// Restrict selects the process restriction: "default" or "none".
	Restrict string `yaml:"restrict" json:"restrict"`

	// LogLevel is the diagnostic log level: debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Summary logs per-direction byte counts and digests at exit.
	Summary bool `yaml:"summary" json:"summary"`

	// Compression encodes the log descriptors: none, lz4 or zstd.
	Compression string `yaml:"compression" json:"compression"`
}

// LabelsConfig holds the per-direction line labels.
type LabelsConfig struct {
	Stdin  string `yaml:"stdin" json:"stdin"`
	Stdout string `yaml:"stdout" json:"stdout"`
}

// LogFDConfig holds the per-direction log descriptors.
type LogFDConfig struct {
	Stdin  int `yaml:"stdin" json:"stdin"`
	Stdout int `yaml:"stdout" json:"stdout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Labels:      LabelsConfig{Stdin: " (0)", Stdout: " (1)"},
		LogFD:       LogFDConfig{Stdin: 2, Stdout: 2},
		Restrict:    "default",
		LogLevel:    "warn",
		Compression: "none",
	}
}

// Load builds the configuration from the process environment.
func Load() (*Config, error) {
	return LoadEnv(os.LookupEnv)
}

// LoadEnv builds the configuration using lookup in place of
// os.LookupEnv.
func LoadEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path, ok := lookup(EnvConfig); ok && path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a single configuration file over the defaults,
// ignoring the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a file into c. Keys absent from the file keep their
// current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(c)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(c)
		// An empty YAML document leaves the defaults alone.
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return nil
}

// applyEnv overrides fields from HEXLOG_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvLabelStdin); ok {
		c.Labels.Stdin = value
	}
	if value, ok := lookup(EnvLabelStdout); ok {
		c.Labels.Stdout = value
	}

	integers := []struct {
		name   string
		target *int
	}{
		{EnvFDStdin, &c.LogFD.Stdin},
		{EnvFDStdout, &c.LogFD.Stdout},
		{EnvInterval, &c.Interval},
	}
	for _, integer := range integers {
		value, ok := lookup(integer.name)
		if !ok || value == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, integer.name, value)
		}
		*integer.target = parsed
	}

	if value, ok := lookup(EnvRestrict); ok && value != "" {
		c.Restrict = value
	}
	if value, ok := lookup(EnvLogLevel); ok && value != "" {
		c.LogLevel = value
	}
	if value, ok := lookup(EnvCompress); ok && value != "" {
		c.Compression = value
	}
	if value, ok := lookup(EnvSummary); ok && value != "" {
		summary, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvSummary, value)
		}
		c.Summary = summary
	}
	return nil
}

// Validate checks every field, reporting all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.LogFD.Stdin < 0 {
		errs = append(errs, fmt.Errorf("log_fd.stdin must not be negative, got %d", c.LogFD.Stdin))
	}
	if c.LogFD.Stdout < 0 {
		errs = append(errs, fmt.Errorf("log_fd.stdout must not be negative, got %d", c.LogFD.Stdout))
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %d", c.Interval))
	}
	switch c.Restrict {
	case "default", "none":
	default:
		errs = append(errs, fmt.Errorf("restrict must be one of [default none], got %q", c.Restrict))
	}
	switch c.Compression {
	case "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("compression must be one of [none lz4 zstd], got %q", c.Compression))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// FlushInterval returns Interval as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Level returns the parsed diagnostic log level. Validate has already
// rejected unknown names, so this falls back to warn only for an
// unvalidated Config.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log_level must be one of [debug info warn error], got %q", name)
	}
	return level, nil
}
