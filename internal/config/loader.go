package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the loader reads
const EnvPrefix = "SPARQLPAD_"

// DefaultEnvFile is the dotenv file read from the working directory
const DefaultEnvFile = ".env"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger

	// EnvFile is the dotenv file to read; empty disables it
	EnvFile string
	// LookupEnv reads the process environment
	LookupEnv func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		EnvFile:   DefaultEnvFile,
		LookupEnv: os.LookupEnv,
	}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. YAML file at path, when path is not empty
// 3. Variables from the dotenv file
// 4. SPARQLPAD_* environment variables
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if err := config.LoadFromFile(path); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", path))
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return nil, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := l.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}

	if err := applyEnv(config, lookup); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (l *Loader) readEnvFile() (map[string]string, error) {
	if l.EnvFile == "" {
		return nil, nil
	}

	values, err := godotenv.Read(l.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.EnvFile, err)
	}

	l.logger.Debug("Loaded env file", slog.String("path", l.EnvFile), slog.Int("keys", len(values)))
	return values, nil
}

type envBinding struct {
	key string
	set func(c *Config, value string) error
}

var envBindings = []envBinding{
	{"SERVER_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"SERVER_READ_TIMEOUT", durationSetter(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"SERVER_WRITE_TIMEOUT", durationSetter(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"SERVER_QUERY_CACHE_SIZE", intSetter(func(c *Config) *int { return &c.Server.QueryCacheSize })},
	{"TRANSLATOR_URL", func(c *Config, v string) error { c.Translator.URL = v; return nil }},
	{"TRANSLATOR_TIMEOUT", durationSetter(func(c *Config) *time.Duration { return &c.Translator.Timeout })},
	{"PARSE_LENIENT", boolSetter(func(c *Config) *bool { return &c.Parse.Lenient })},
	{"PARSE_BATCH_SIZE", intSetter(func(c *Config) *int { return &c.Parse.BatchSize })},
	{"QUERY_REORDER", boolSetter(func(c *Config) *bool { return &c.Query.Reorder })},
	{"QUERY_STRICT_PROJECTION", boolSetter(func(c *Config) *bool { return &c.Query.StrictProjection })},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = v; return nil }},
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		value, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(c, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
