package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// Addr is the host:port the HTTP API binds to.
	Addr string `json:"addr" yaml:"addr"`

	// BaseDir is the data directory holding the database and audio content.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// InferenceURL is the base URL of the model-serving sidecar exposing the
	// transcription, sentiment, NER, and zero-shot endpoints.
	InferenceURL string `json:"inference_url" yaml:"inference_url"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		InferenceURL: "http://127.0.0.1:9090",
	}
}

// Load builds configuration from defaults, an optional config file at
// baseDir/config.yaml or baseDir/config.json, and finally environment
// variables. Later sources win.
func Load(baseDir string) (*Config, error) {
	file, err := loadFile(baseDir)
	if err != nil {
		return nil, err
	}

	cfg := Merge(DefaultConfig(), file)
	cfg = Merge(cfg, fromEnv())
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	return cfg, nil
}

// loadFile reads config.yaml (preferred) or config.json from baseDir.
// Returns a zero-valued config if neither exists.
func loadFile(baseDir string) (*Config, error) {
	yamlPath := filepath.Join(baseDir, "config.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		cfg := &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	jsonPath := filepath.Join(baseDir, "config.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fromEnv reads overrides from the environment.
func fromEnv() *Config {
	cfg := &Config{
		Addr:         strings.TrimSpace(os.Getenv("CALLSCRIBE_ADDR")),
		BaseDir:      strings.TrimSpace(os.Getenv("CALLSCRIBE_BASE_DIR")),
		InferenceURL: strings.TrimSpace(os.Getenv("INFERENCE_URL")),
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DBMaxOpenConns = n
		}
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DBMaxIdleConns = n
		}
	}
	return cfg
}

// Merge combines base and overlay configs. Overlay values win if non-zero.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Addr = overlay.Addr
	if result.Addr == "" {
		result.Addr = base.Addr
	}

	result.BaseDir = overlay.BaseDir
	if result.BaseDir == "" {
		result.BaseDir = base.BaseDir
	}

	result.InferenceURL = overlay.InferenceURL
	if result.InferenceURL == "" {
		result.InferenceURL = base.InferenceURL
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	return result
}
