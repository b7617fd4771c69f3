// Package config provides configuration loading and validation for
// dnsflowmeter.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/dnsflowmeter/main.go)
//  2. YAML config file (if specified with --config)
//  3. Environment variables (DNSFLOWMETER_* prefix)
//  4. Hardcoded defaults
//
// Environment variables are mapped from DNSFLOWMETER_CATEGORY_SETTING format,
// e.g., DNSFLOWMETER_FLOW_IDLE_TIMEOUT_MS maps to flow.idle_timeout_ms in YAML.
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FlowConfig tunes the flow-manager eviction and periodic-sweep
// thresholds (spec section 4.5).
type FlowConfig struct {
	IdleTimeoutMs       int64
	SweepPacketInterval int64
	SweepTimeMs         int64
}

// DNSConfig tunes the per-flow pending-query table bounds (spec
// section 3).
type DNSConfig struct {
	PendingMaxEntries int
	PendingMaxAgeMs   int64
}

// SinkConfig configures the output sinks.
type SinkConfig struct {
	OutputPath          string
	SheetsBatchSize     int
	SheetsCredsPath     string
	SheetsSpreadsheetID string
}

// StatusAPIConfig configures the optional live-run status endpoint.
type StatusAPIConfig struct {
	Enabled         bool
	BindAddr        string
	MemThresholdPct float64
}

// LoggingConfig mirrors internal/logging.Config. RunID is left empty by
// default so internal/logging generates one per process; an operator
// correlating this run's log lines with an external system (a ticket
// ID, an orchestrator-assigned job ID) can pin it instead.
type LoggingConfig struct {
	Level            string
	Structured       bool
	StructuredFormat string
	IncludePID       bool
	ExtraFields      map[string]string
	RunID            string
}

// Config is the full set of tunables for one dnsflowmeter run.
type Config struct {
	Flow      FlowConfig
	DNS       DNSConfig
	Sink      SinkConfig
	StatusAPI StatusAPIConfig
	Logging   LoggingConfig
}

// Load reads configuration from an optional YAML file, environment
// variables, and built-in defaults, in that priority order.
func Load(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	loadFlowConfig(v, cfg)
	loadDNSConfig(v, cfg)
	loadSinkConfig(v, cfg)
	loadStatusAPIConfig(v, cfg)
	loadLoggingConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Uses DNSFLOWMETER_ prefix: DNSFLOWMETER_FLOW_IDLE_TIMEOUT_MS -> flow.idle_timeout_ms
	v.SetEnvPrefix("DNSFLOWMETER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		fileCfg := viper.New()
		fileCfg.SetConfigFile(configPath)
		if err := fileCfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// viper ranks environment variables above config-file values;
		// applying the file's keys with Set ranks them above env instead.
		for _, key := range fileCfg.AllKeys() {
			v.Set(key, fileCfg.Get(key))
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("flow.idle_timeout_ms", 120_000)
	v.SetDefault("flow.sweep_packet_interval", 5_000)
	v.SetDefault("flow.sweep_time_ms", 30_000)

	v.SetDefault("dns.pending_max_entries", 10_000)
	v.SetDefault("dns.pending_max_age_ms", 5_000)

	v.SetDefault("sink.output_path", "flow_output.csv")
	v.SetDefault("sink.sheets_batch_size", 100)
	v.SetDefault("sink.sheets_creds_path", "")
	v.SetDefault("sink.sheets_spreadsheet_id", "")

	v.SetDefault("status_api.enabled", true)
	v.SetDefault("status_api.bind_addr", "127.0.0.1:8090")
	v.SetDefault("status_api.mem_threshold_percent", 85.0)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})
	v.SetDefault("logging.run_id", "")
}

func loadFlowConfig(v *viper.Viper, cfg *Config) {
	cfg.Flow.IdleTimeoutMs = v.GetInt64("flow.idle_timeout_ms")
	cfg.Flow.SweepPacketInterval = v.GetInt64("flow.sweep_packet_interval")
	cfg.Flow.SweepTimeMs = v.GetInt64("flow.sweep_time_ms")
}

func loadDNSConfig(v *viper.Viper, cfg *Config) {
	cfg.DNS.PendingMaxEntries = v.GetInt("dns.pending_max_entries")
	cfg.DNS.PendingMaxAgeMs = v.GetInt64("dns.pending_max_age_ms")
}

func loadSinkConfig(v *viper.Viper, cfg *Config) {
	cfg.Sink.OutputPath = v.GetString("sink.output_path")
	cfg.Sink.SheetsBatchSize = v.GetInt("sink.sheets_batch_size")
	cfg.Sink.SheetsCredsPath = v.GetString("sink.sheets_creds_path")
	cfg.Sink.SheetsSpreadsheetID = v.GetString("sink.sheets_spreadsheet_id")
}

func loadStatusAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.StatusAPI.Enabled = v.GetBool("status_api.enabled")
	cfg.StatusAPI.BindAddr = v.GetString("status_api.bind_addr")
	cfg.StatusAPI.MemThresholdPct = v.GetFloat64("status_api.mem_threshold_percent")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
	cfg.Logging.RunID = v.GetString("logging.run_id")
}

// normalizeConfig validates and normalizes the configuration.
func normalizeConfig(cfg *Config) error {
	if cfg.Flow.IdleTimeoutMs <= 0 {
		return errors.New("flow.idle_timeout_ms must be positive")
	}
	if cfg.DNS.PendingMaxEntries <= 0 {
		return errors.New("dns.pending_max_entries must be positive")
	}
	if cfg.Sink.OutputPath == "" {
		cfg.Sink.OutputPath = "flow_output.csv"
	}
	if cfg.Sink.SheetsBatchSize <= 0 {
		cfg.Sink.SheetsBatchSize = 100
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}
	if cfg.StatusAPI.BindAddr == "" {
		cfg.StatusAPI.BindAddr = "127.0.0.1:8090"
	}
	return nil
}
