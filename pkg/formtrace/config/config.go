// Package config loads formtrace settings from a YAML or JSON file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ukaji3/formtrace-go/pkg/formtrace"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/graph"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/impact"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/logging"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/resolve"
	"sigs.k8s.io/yaml"
)

// Environment variables overriding the file.
const (
	EnvSampleRow  = "FORMTRACE_SAMPLE_ROW"
	EnvWorkers    = "FORMTRACE_WORKERS"
	EnvLog        = "FORMTRACE_LOG"
	EnvDuplicates = "FORMTRACE_DUPLICATES"
)

// Config is the on-disk configuration. Every field is optional.
type Config struct {
	SampleRow       int                       `json:"sample_row,omitempty"`
	MaxRows         int                       `json:"max_rows,omitempty"`
	MaxColumns      int                       `json:"max_columns,omitempty"`
	ColumnsPerSheet map[string][]string       `json:"columns_per_sheet,omitempty"`
	Mappings        []formtrace.Mapping       `json:"mappings,omitempty"`
	Translation     resolve.TranslateOptions  `json:"translation"`
	Severity        impact.Thresholds         `json:"severity"`
	Alerts          impact.AlertOptions       `json:"alerts"`
	MaxCauses       int                       `json:"max_causes,omitempty"`
	Suggestions     graph.SuggestionOptions   `json:"suggestions"`
	Duplicates      formtrace.DuplicatePolicy `json:"duplicates,omitempty"`
	Workers         int                       `json:"workers,omitempty"`
	LogLevel        string                    `json:"log_level,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := formtrace.DefaultOptions()
	return &Config{
		SampleRow:   opts.SampleRow,
		MaxColumns:  opts.MaxColumns,
		Severity:    opts.Impact.Severity,
		Alerts:      opts.Impact.Alerts,
		MaxCauses:   opts.Impact.MaxCauses,
		Suggestions: opts.Suggestions,
		Duplicates:  opts.Duplicates,
		LogLevel:    "info",
	}
}

// Load reads path over the defaults, then applies environment overrides
// (a .env file in the working directory is honoured when present) and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with the FORMTRACE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvSampleRow)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSampleRow, err)
		}
		c.SampleRow = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLog)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDuplicates)); v != "" {
		c.Duplicates = formtrace.DuplicatePolicy(strings.ToLower(v))
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.SampleRow < 1 {
		errs = append(errs, fmt.Errorf("sample_row must be at least 1, got %d", c.SampleRow))
	}
	if c.MaxRows < 0 || c.MaxColumns < 0 || c.Workers < 0 || c.MaxCauses < 0 {
		errs = append(errs, errors.New("max_rows, max_columns, max_causes and workers must not be negative"))
	}
	if c.Severity.ModerateMax < 0 || c.Severity.ModerateMax > c.Severity.HighMax {
		errs = append(errs, fmt.Errorf("severity thresholds must satisfy 0 <= moderate_max <= high_max, got %d and %d",
			c.Severity.ModerateMax, c.Severity.HighMax))
	}
	if c.Alerts.MediumErrorRate > c.Alerts.HighErrorRate {
		errs = append(errs, errors.New("alerts.medium_error_rate must not exceed alerts.high_error_rate"))
	}
	switch c.Duplicates {
	case "", formtrace.DuplicatesReport, formtrace.DuplicatesIgnore:
	default:
		errs = append(errs, fmt.Errorf("duplicates must be report or ignore, got %q", c.Duplicates))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for i, m := range c.Mappings {
		if strings.TrimSpace(m.Sheet) == "" || strings.TrimSpace(m.ResultHeader) == "" {
			errs = append(errs, fmt.Errorf("mappings[%d]: sheet and result_header are required", i))
		}
	}
	return errors.Join(errs...)
}

// Options converts the configuration into analysis options.
func (c *Config) Options(logger *slog.Logger) formtrace.Options {
	opts := formtrace.DefaultOptions()
	opts.Logger = logger
	opts.SampleRow = c.SampleRow
	opts.MaxRows = c.MaxRows
	opts.MaxColumns = c.MaxColumns
	opts.ColumnsPerSheet = c.ColumnsPerSheet
	opts.Mappings = c.Mappings
	opts.Translate = c.Translation
	opts.Impact = impact.Options{
		Severity:  c.Severity,
		Alerts:    c.Alerts,
		MaxCauses: c.MaxCauses,
	}
	opts.Suggestions = c.Suggestions
	if c.Duplicates != "" {
		opts.Duplicates = c.Duplicates
	}
	opts.Workers = c.Workers
	return opts
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}
