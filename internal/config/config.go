// Package config loads and validates tenant QC configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ColumnMap names the tenant-specific columns of the raw AMI and manifest
// tables. The raw AMI format varies per tenant; these mappings translate it
// into the common QC format.
type ColumnMap struct {
	ExternalLocationID string `yaml:"external_location_id"`
	ExternalAccountID  string `yaml:"external_account_id"`
	ExternalChannelID  string `yaml:"external_channel_id"`
	Direction          string `yaml:"direction"`
	Timestamp          string `yaml:"timestamp"`
	Consumption        string `yaml:"consumption"`
	Interval           string `yaml:"interval"`
	ConsumptionCode    string `yaml:"consumption_code"`
	ManifestFilename   string `yaml:"manifest_filename"`
	ManifestChecksum   string `yaml:"manifest_checksum"`
	ManifestLineCount  string `yaml:"manifest_linecount"`
}

// CodeMap is the tenant-supplied mapping from consumption-quality codes to
// the canonical categories. Unmapped codes classify as unknown.
type CodeMap struct {
	Actual    []string `yaml:"actual"`
	Estimated []string `yaml:"estimated"`
	Prorated  []string `yaml:"prorated"`
	Missing   []string `yaml:"missing"`
}

// Paths holds the storage locations of each pipeline stage, used for
// qc_reference payloads and for the error/summary/report sinks.
type Paths struct {
	Encrypted             string `yaml:"encrypted"`
	Decrypted             string `yaml:"decrypted"`
	Audit                 string `yaml:"audit"`
	Manifest              string `yaml:"manifest"`
	Common                string `yaml:"common"`
	ChannelIngestError    string `yaml:"channel_ingest_error"`
	ExtractCommonAmiError string `yaml:"extract_common_ami_error"`
	SaveErrorsBase        string `yaml:"save_errors_base"`
	SaveAmiSummary        string `yaml:"save_ami_summary"`
	SaveQcOutput          string `yaml:"save_qc_output"`
}

// S3Config holds optional S3-compatible storage settings for the sinks.
// When absent, sinks write to the local filesystem.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	KeyID    string `yaml:"key_id"`
	Secret   string `yaml:"secret"`
}

// Enabled reports whether S3 storage is configured.
func (s *S3Config) Enabled() bool {
	return s != nil && s.Bucket != ""
}

// Config is the full per-tenant QC configuration, supplied externally.
type Config struct {
	TenantID              string `yaml:"tenant_id"`
	Timezone              string `yaml:"timezone"`
	ExecutionDate         string `yaml:"execution_date"` // YYYY-MM-DD
	TenantDateFormat      string `yaml:"tenant_date_format"`
	HasManifest           bool   `yaml:"has_manifest"`
	ManifestCountsHeaders bool   `yaml:"manifest_counts_headers"`
	RawAmiHasHeaders      bool   `yaml:"raw_ami_has_headers"`

	Columns          ColumnMap `yaml:"columns"`
	ConsumptionCodes CodeMap   `yaml:"consumption_codes"`
	Paths            Paths     `yaml:"paths"`

	// Sources maps virtual table names to the file locations the engine
	// registers them from.
	Sources map[string]string `yaml:"sources"`

	SaveFormat    string    `yaml:"save_format"` // csv or json
	HistoryDBPath string    `yaml:"history_db_path"`
	LogLevel      string    `yaml:"log_level"`
	S3            *S3Config `yaml:"s3"`
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ExecutionDateYMD returns the execution date in YYYY-MM-DD form.
func (c *Config) ExecutionDateYMD() string { return c.ExecutionDate }

// ExecutionDateTenantFormat returns the execution date rendered in the
// tenant's file-naming date format, used to match audit rows to the run.
func (c *Config) ExecutionDateTenantFormat() (string, error) {
	t, err := time.Parse("2006-01-02", c.ExecutionDate)
	if err != nil {
		return "", fmt.Errorf("parse execution_date %q: %w", c.ExecutionDate, err)
	}
	return t.Format(c.TenantDateFormat), nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if c.ExecutionDate == "" {
		return fmt.Errorf("execution_date is required")
	}
	if _, err := time.Parse("2006-01-02", c.ExecutionDate); err != nil {
		return fmt.Errorf("execution_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.SaveFormat != "csv" && c.SaveFormat != "json" {
		return fmt.Errorf("save_format must be csv or json, got %q", c.SaveFormat)
	}
	cols := map[string]string{
		"columns.external_location_id": c.Columns.ExternalLocationID,
		"columns.external_account_id":  c.Columns.ExternalAccountID,
		"columns.external_channel_id":  c.Columns.ExternalChannelID,
		"columns.direction":            c.Columns.Direction,
		"columns.timestamp":            c.Columns.Timestamp,
		"columns.consumption":          c.Columns.Consumption,
		"columns.interval":             c.Columns.Interval,
		"columns.consumption_code":     c.Columns.ConsumptionCode,
	}
	for name, v := range cols {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.HasManifest {
		if c.Columns.ManifestFilename == "" || c.Columns.ManifestChecksum == "" || c.Columns.ManifestLineCount == "" {
			return fmt.Errorf("manifest column mappings are required when has_manifest is set")
		}
	}
	if c.Paths.SaveErrorsBase == "" {
		return fmt.Errorf("paths.save_errors_base is required")
	}
	if c.Paths.SaveAmiSummary == "" {
		return fmt.Errorf("paths.save_ami_summary is required")
	}
	if c.Paths.SaveQcOutput == "" {
		return fmt.Errorf("paths.save_qc_output is required")
	}
	return nil
}

// Location returns the tenant's time.Location. Validate must have passed.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads a tenant configuration file, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Environment overrides take precedence over the file.
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HISTORY_DB_PATH"); v != "" {
		cfg.HistoryDBPath = v
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.TenantDateFormat == "" {
		cfg.TenantDateFormat = "02012006"
	}
	if cfg.SaveFormat == "" {
		cfg.SaveFormat = "csv"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
