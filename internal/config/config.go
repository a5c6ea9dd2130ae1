// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/setup-scanner/internal/scanerr"
	"github.com/jonathan/setup-scanner/internal/types"
)

// DatabaseURLEnv names the environment variable used as the default source.
const DatabaseURLEnv = "SCAN_DATABASE_URL"

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Scan
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"` // Max percent distance from Target D

	// Source
	Source       string   `json:"source,omitempty" yaml:"source,omitempty"`                                                         // Source URI or path
	SourceFormat string   `json:"source_format,omitempty" yaml:"source_format,omitempty" validate:"omitempty,oneof=json yaml html"` // Payload format override
	Universe     []string `json:"universe,omitempty" yaml:"universe,omitempty"`                                                     // Symbol universes for bars:// sources
	Timeout      string   `json:"timeout,omitempty" yaml:"timeout,omitempty"`                                                       // Data source timeout, e.g. "60s"

	// Target
	Rule          string  `json:"rule,omitempty" yaml:"rule,omitempty" validate:"omitempty,oneof=feed constant metadata table measured_move"`
	TargetValue   float64 `json:"target_value,omitempty" yaml:"target_value,omitempty"`                      // Constant Target D
	TargetKey     string  `json:"target_key,omitempty" yaml:"target_key,omitempty"`                          // Metadata key holding Target D
	TargetTable   string  `json:"target_table,omitempty" yaml:"target_table,omitempty"`                      // Path to ID -> Target D table
	ATRMultiplier float64 `json:"atr_multiplier,omitempty" yaml:"atr_multiplier,omitempty" validate:"gte=0"` // Measured-move sensitivity
	MinBars       int     `json:"min_bars,omitempty" yaml:"min_bars,omitempty" validate:"gte=0"`             // Minimum bars between pivots

	// Output
	OutDir   string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Behavior
	Workers     int  `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0"`
	Interactive bool `json:"interactive,omitempty" yaml:"interactive,omitempty"`
	Open        bool `json:"open,omitempty" yaml:"open,omitempty"`
	PDF         bool `json:"pdf,omitempty" yaml:"pdf,omitempty"`
	Verbose     bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by RequireRunFields after flags and defaults are merged.
func (c *Config) Validate() error {
	if c.Threshold != nil {
		if err := ValidateThreshold(*c.Threshold); err != nil {
			return err
		}
	}

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &scanerr.ConfigError{
				Field:   jsonFieldName(fe.Field()),
				Message: fmt.Sprintf("failed '%s' validation (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &scanerr.ConfigError{Message: "validation failed", Cause: err}
	}

	if math.IsNaN(c.TargetValue) || math.IsInf(c.TargetValue, 0) {
		return &scanerr.ConfigError{Field: "target_value", Message: "must be a finite number"}
	}

	if c.Timeout != "" {
		if _, err := c.SourceTimeout(); err != nil {
			return err
		}
	}

	// Validate file paths exist (if specified)
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return &scanerr.ConfigError{Field: "template", Message: fmt.Sprintf("file not found: %s", c.Template)}
		}
	}
	if c.TargetTable != "" {
		if _, err := os.Stat(c.TargetTable); os.IsNotExist(err) {
			return &scanerr.ConfigError{Field: "target_table", Message: fmt.Sprintf("file not found: %s", c.TargetTable)}
		}
	}

	return nil
}

// RequireRunFields checks the fields a scan cannot start without.
func (c *Config) RequireRunFields() error {
	if c.Threshold == nil {
		return &scanerr.ConfigError{Field: "threshold", Message: "is required (--threshold or config file)"}
	}
	if c.Source == "" {
		return &scanerr.ConfigError{Field: "source", Message: fmt.Sprintf("is required (--source, config file, or %s)", DatabaseURLEnv)}
	}
	switch types.TargetRule(c.Rule) {
	case types.RuleMetadata:
		if c.TargetKey == "" {
			return &scanerr.ConfigError{Field: "target_key", Message: "is required for rule 'metadata'"}
		}
	case types.RuleTable:
		if c.TargetTable == "" {
			return &scanerr.ConfigError{Field: "target_table", Message: "is required for rule 'table'"}
		}
	}
	return nil
}

// ValidateThreshold rejects negative or non-finite thresholds.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return &scanerr.ConfigError{Field: "threshold", Message: "must be a finite number"}
	}
	if threshold < 0 {
		return &scanerr.ConfigError{Field: "threshold", Message: fmt.Sprintf("must be non-negative, got %g", threshold)}
	}
	return nil
}

// SourceTimeout parses the configured data source timeout.
func (c *Config) SourceTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, &scanerr.ConfigError{Field: "timeout", Message: "must be a duration such as 60s", Cause: err}
	}
	if d <= 0 {
		return 0, &scanerr.ConfigError{Field: "timeout", Message: "must be positive"}
	}
	return d, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Threshold == nil && defaults.Threshold != nil {
		v := *defaults.Threshold
		result.Threshold = &v
	}

	// String fields: use default if empty
	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.SourceFormat == "" {
		result.SourceFormat = defaults.SourceFormat
	}
	if result.Timeout == "" {
		result.Timeout = defaults.Timeout
	}
	if result.Rule == "" {
		result.Rule = defaults.Rule
	}
	if result.TargetKey == "" {
		result.TargetKey = defaults.TargetKey
	}
	if result.TargetTable == "" {
		result.TargetTable = defaults.TargetTable
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if len(result.Universe) == 0 {
		result.Universe = defaults.Universe
	}

	// Numeric fields: use default if zero
	if result.TargetValue == 0 {
		result.TargetValue = defaults.TargetValue
	}
	if result.ATRMultiplier == 0 {
		result.ATRMultiplier = defaults.ATRMultiplier
	}
	if result.MinBars == 0 {
		result.MinBars = defaults.MinBars
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// jsonFieldName converts a Go struct field name to its config key.
func jsonFieldName(field string) string {
	switch field {
	case "SourceFormat":
		return "source_format"
	case "ATRMultiplier":
		return "atr_multiplier"
	case "MinBars":
		return "min_bars"
	default:
		return strings.ToLower(field)
	}
}
