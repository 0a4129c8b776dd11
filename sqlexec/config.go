package sqlexec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultSchema         = "dbo"
	DefaultCommandTimeout = 30 * time.Second
	DefaultSlowThreshold  = time.Second
)

// Config describes a SQL Server connection.
type Config struct {
	DSN            string        `yaml:"dsn"`
	Schema         string        `yaml:"schema"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	SlowThreshold  time.Duration `yaml:"slow_threshold"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`
}

// LoadConfig decodes a YAML config and fills in defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate reports missing or out of range settings.
func (c Config) Validate() error {
	if c.DSN == "" {
		return errors.New("config: dsn is required")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("config: command_timeout must not be negative: %s", c.CommandTimeout)
	}
	if c.SlowThreshold < 0 {
		return fmt.Errorf("config: slow_threshold must not be negative: %s", c.SlowThreshold)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("config: connection limits must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	return c
}
