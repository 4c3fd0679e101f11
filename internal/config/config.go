// Package config loads and validates the gateway configuration.
//
// DESIGN: Configuration comes from a YAML file with ${VAR:-default}
// environment expansion. Core knobs (server, cache) are required and
// validated strictly; a misconfigured cache would mask correctness bugs in
// callers, so validation errors out instead of clamping.
//
// FILES:
//   - config.go:   root Config struct, Load(), env expansion, Validate()
//   - sections.go: per-component config sections
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the talent gateway.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	Cache      CacheConfig      `yaml:"cache"`      // Query result cache
	Context    ContextConfig    `yaml:"context"`    // Conversation context manager
	History    HistoryConfig    `yaml:"history"`    // Chat transcript persistence
	Upstreams  UpstreamsConfig  `yaml:"upstreams"`  // Downstream compute endpoints
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging settings
}

// envVarRe matches ${VAR} and ${VAR:-default}.
var envVarRe = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands environment variables with support for
// default values, in both ${VAR} and ${VAR:-default} forms.
func expandEnvWithDefaults(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes, expanding
// environment variables and validating the result.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Context.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Upstreams.Validate(); err != nil {
		return err
	}
	return nil
}
