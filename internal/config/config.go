// Package config provides configuration loading for sparqlpad.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sparqlpad configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Translator TranslatorConfig `yaml:"translator"`
	Parse      ParseConfig      `yaml:"parse"`
	Query      QueryConfig      `yaml:"query"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP endpoint
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// QueryCacheSize is the number of parsed queries kept in memory
	QueryCacheSize int `yaml:"query_cache_size"`
}

// TranslatorConfig configures the PDDL to RDF translation service
type TranslatorConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ParseConfig configures RDF loading
type ParseConfig struct {
	// Lenient keeps the triples parsed before a syntax error instead of
	// failing the session
	Lenient bool `yaml:"lenient"`
	// BatchSize is the number of triples inserted per transaction
	BatchSize int `yaml:"batch_size"`
}

// QueryConfig configures planning
type QueryConfig struct {
	Reorder          bool `yaml:"reorder"`
	StrictProjection bool `yaml:"strict_projection"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			QueryCacheSize: 128,
		},
		Translator: TranslatorConfig{
			URL:     "http://localhost:8400/translate_pddl",
			Timeout: 30 * time.Second,
		},
		Parse: ParseConfig{
			BatchSize: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.Server.QueryCacheSize < 0 {
		return fmt.Errorf("server.query_cache_size must not be negative")
	}
	if c.Translator.URL == "" {
		return fmt.Errorf("translator.url is required")
	}
	if u, err := url.Parse(c.Translator.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("translator.url must be an absolute URL, got %q", c.Translator.URL)
	}
	if c.Translator.Timeout <= 0 {
		return fmt.Errorf("translator.timeout must be positive")
	}
	if c.Parse.BatchSize <= 0 {
		return fmt.Errorf("parse.batch_size must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// LoadFromFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Load loads configuration with the default loader
func Load(path string, logger *slog.Logger) (*Config, error) {
	return NewLoader(logger).Load(path)
}
