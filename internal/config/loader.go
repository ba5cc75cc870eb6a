package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults used by ApplyDefaults.
const (
	DefaultAddr          = ":8080"
	DefaultModelsDir     = "~/models/ir"
	DefaultDevice        = "CPU"
	DefaultNumRequests   = 1
	DefaultMaxQueueDepth = 32
	DefaultMaxWaitMS     = 30_000
	DefaultDrainMS       = 10_000
	DefaultLeaseTTLMS    = 300_000
	DefaultInferTimeout  = 60
	DefaultMaxBodyBytes  = 32 << 20
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`

	// Engine
	Device       string   `json:"device" yaml:"device" toml:"device"`
	CPUExtension string   `json:"cpu_extension" yaml:"cpu_extension" toml:"cpu_extension"`
	PluginsXML   string   `json:"plugins_xml" yaml:"plugins_xml" toml:"plugins_xml"`
	NumRequests  int      `json:"num_requests" yaml:"num_requests" toml:"num_requests"`
	DefaultModel string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	Preload      []string `json:"preload" yaml:"preload" toml:"preload"`

	// Manager
	BudgetMB       int `json:"budget_mb" yaml:"budget_mb" toml:"budget_mb"`
	MarginMB       int `json:"margin_mb" yaml:"margin_mb" toml:"margin_mb"`
	MaxQueueDepth  int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitMS      int `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`
	DrainTimeoutMS int `json:"drain_timeout_ms" yaml:"drain_timeout_ms" toml:"drain_timeout_ms"`
	LeaseTTLMS     int `json:"lease_ttl_ms" yaml:"lease_ttl_ms" toml:"lease_ttl_ms"`

	// HTTP
	InferTimeoutSeconds int      `json:"infer_timeout_seconds" yaml:"infer_timeout_seconds" toml:"infer_timeout_seconds"`
	MaxBodyBytes        int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled         bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods  []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders  []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.NumRequests <= 0 {
		c.NumRequests = DefaultNumRequests
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitMS <= 0 {
		c.MaxWaitMS = DefaultMaxWaitMS
	}
	if c.DrainTimeoutMS <= 0 {
		c.DrainTimeoutMS = DefaultDrainMS
	}
	if c.LeaseTTLMS <= 0 {
		c.LeaseTTLMS = DefaultLeaseTTLMS
	}
	if c.InferTimeoutSeconds <= 0 {
		c.InferTimeoutSeconds = DefaultInferTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// ApplyEnv overrides fields from INFERD_* environment variables when set.
func (c *Config) ApplyEnv() {
	for env, dst := range map[string]*string{
		"INFERD_ADDR":       &c.Addr,
		"INFERD_MODELS_DIR": &c.ModelsDir,
		"INFERD_DEVICE":     &c.Device,
		"INFERD_LOG_LEVEL":  &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	if c.NumRequests < 1 {
		return fmt.Errorf("num_requests must be at least 1, got %d", c.NumRequests)
	}
	if c.BudgetMB < 0 || c.MarginMB < 0 {
		return fmt.Errorf("budget_mb and margin_mb must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want console or json)", c.LogFormat)
	}
	return nil
}

func (c Config) MaxWait() time.Duration      { return time.Duration(c.MaxWaitMS) * time.Millisecond }
func (c Config) DrainTimeout() time.Duration { return time.Duration(c.DrainTimeoutMS) * time.Millisecond }
func (c Config) LeaseTTL() time.Duration     { return time.Duration(c.LeaseTTLMS) * time.Millisecond }
func (c Config) InferTimeout() time.Duration {
	return time.Duration(c.InferTimeoutSeconds) * time.Second
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
