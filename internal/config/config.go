// Package config loads store settings from <store>/config.json, the
// environment and built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rcliao/memstore/internal/embedding"
)

const (
	FileName  = "config.json"
	DirName   = ".agent-memory"
	EnvPrefix = "AGENT_MEMORY"

	DefaultBackend       = "jsonl"
	DefaultExportFormat  = "md"
	DefaultMaxResults    = 10
	DefaultDecayLambda   = 0.01
	DefaultQueryCacheLen = 256
)

// Config is the settings an engine is built from.
type Config struct {
	// StoreDir is the store root. It is never read from the file.
	StoreDir string `mapstructure:"-"`

	Backend             string          `mapstructure:"backend"`
	DefaultExportFormat string          `mapstructure:"default_export_format"`
	MaxResults          int             `mapstructure:"max_results"`
	TimeDecayLambda     float64         `mapstructure:"time_decay_lambda"`
	Embedding           EmbeddingConfig `mapstructure:"embedding"`
}

// EmbeddingConfig locates the embedding provider.
type EmbeddingConfig struct {
	APIBase   string `mapstructure:"api_base"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Timeout   string `mapstructure:"timeout"`
	CacheSize int    `mapstructure:"cache_size"`
}

// Default returns the built-in settings for a store at dir. It does not
// consult the environment.
func Default(dir string) Config {
	return Config{
		StoreDir:            dir,
		Backend:             DefaultBackend,
		DefaultExportFormat: DefaultExportFormat,
		MaxResults:          DefaultMaxResults,
		TimeDecayLambda:     DefaultDecayLambda,
		Embedding: EmbeddingConfig{
			Model:     embedding.DefaultModel,
			Timeout:   embedding.DefaultTimeout.String(),
			CacheSize: DefaultQueryCacheLen,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default("")
	v.SetDefault("backend", d.Backend)
	v.SetDefault("default_export_format", d.DefaultExportFormat)
	v.SetDefault("max_results", d.MaxResults)
	v.SetDefault("time_decay_lambda", d.TimeDecayLambda)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
}

// Load reads dir/config.json over the defaults. An unreadable or corrupt
// file silently yields the defaults. Embedding endpoint, key and model
// not set in the file are taken from AGENT_MEMORY_EMBEDDING_* variables.
func Load(dir string) Config {
	cfg := readFile(dir)
	cfg.StoreDir = dir
	applyEnv(&cfg)
	return cfg
}

func readFile(dir string) Config {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("json")

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return fileDefaults(dir)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return fileDefaults(dir)
	}
	return cfg
}

// fileDefaults is Default without the embedding model, so a model from
// the environment still applies when there is no usable file.
func fileDefaults(dir string) Config {
	cfg := Default(dir)
	cfg.Embedding.Model = ""
	return cfg
}

func applyEnv(cfg *Config) {
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.AutomaticEnv()

	if cfg.Embedding.APIBase == "" {
		cfg.Embedding.APIBase = env.GetString("embedding_api_base")
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = env.GetString("embedding_api_key")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = env.GetString("embedding_model")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = embedding.DefaultModel
	}
}

// ProviderConfig converts the embedding section for the provider.
func (c Config) ProviderConfig() embedding.Config {
	timeout, err := time.ParseDuration(c.Embedding.Timeout)
	if err != nil || timeout <= 0 {
		timeout = embedding.DefaultTimeout
	}
	return embedding.Config{
		APIBase: strings.TrimRight(c.Embedding.APIBase, "/"),
		APIKey:  c.Embedding.APIKey,
		Model:   c.Embedding.Model,
		Timeout: timeout,
	}
}

// fileConfig is what init writes. Credentials are never persisted.
type fileConfig struct {
	Backend             string  `json:"backend"`
	DefaultExportFormat string  `json:"default_export_format"`
	MaxResults          int     `json:"max_results"`
	TimeDecayLambda     float64 `json:"time_decay_lambda"`
}

// WriteIfMissing writes c to dir/config.json unless a file exists there.
// It reports whether a file was written.
func WriteIfMissing(dir string, c Config) (bool, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	fc := fileConfig{
		Backend:             c.Backend,
		DefaultExportFormat: c.DefaultExportFormat,
		MaxResults:          c.MaxResults,
		TimeDecayLambda:     c.TimeDecayLambda,
	}
	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
