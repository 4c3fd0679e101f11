package config

import (
	"fmt"
	"time"

	"github.com/amiqt/talent-gateway/internal/cache"
	"github.com/amiqt/talent-gateway/internal/contextmgr"
	"github.com/amiqt/talent-gateway/internal/monitoring"
)

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// Validate checks the server section.
func (c *ServerConfig) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Port)
	}
	if c.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}
	return nil
}

// CacheConfig contains query cache settings.
type CacheConfig struct {
	MaxEntries        int           `yaml:"max_entries"`         // Capacity bound
	TTL               time.Duration `yaml:"ttl"`                 // Entry lifetime
	BatchEvictionSize int           `yaml:"batch_eviction_size"` // Slots freed per eviction
}

// Validate checks the cache section.
func (c *CacheConfig) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.BatchEvictionSize <= 0 {
		return fmt.Errorf("cache.batch_eviction_size must be positive")
	}
	if c.BatchEvictionSize > c.MaxEntries {
		return fmt.Errorf("cache.batch_eviction_size must not exceed cache.max_entries")
	}
	return nil
}

// ToCache converts the section to the cache package's config.
func (c *CacheConfig) ToCache() cache.Config {
	return cache.Config{
		MaxEntries:        c.MaxEntries,
		TTL:               c.TTL,
		BatchEvictionSize: c.BatchEvictionSize,
	}
}

// ContextConfig contains conversation context manager settings.
type ContextConfig struct {
	WindowSize         int                       `yaml:"window_size"`          // Messages kept verbatim
	MaxRecentQuestions int                       `yaml:"max_recent_questions"` // Questions quoted in summaries
	QuestionCharBudget int                       `yaml:"question_char_budget"` // Truncation budget per question
	SessionIdleTTL     time.Duration             `yaml:"session_idle_ttl"`     // Drop idle conversations after
	Topics             []contextmgr.TopicPattern `yaml:"topics"`               // Domain topic vocabulary
}

// Validate checks the context section.
func (c *ContextConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("context.window_size must be positive")
	}
	if c.MaxRecentQuestions < 0 {
		return fmt.Errorf("context.max_recent_questions must not be negative")
	}
	if c.QuestionCharBudget < 0 {
		return fmt.Errorf("context.question_char_budget must not be negative")
	}
	for i, tp := range c.Topics {
		if tp.Pattern == "" {
			return fmt.Errorf("context.topics[%d].pattern is required", i)
		}
		if tp.Label == "" {
			return fmt.Errorf("context.topics[%d].label is required", i)
		}
	}
	return nil
}

// ToSummarizer converts the section to the contextmgr package's config.
func (c *ContextConfig) ToSummarizer() contextmgr.Config {
	return contextmgr.Config{
		WindowSize:         c.WindowSize,
		MaxRecentQuestions: c.MaxRecentQuestions,
		QuestionCharBudget: c.QuestionCharBudget,
		Topics:             c.Topics,
	}
}

// HistoryConfig contains chat transcript persistence settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database path
}

// Validate checks the history section.
func (c *HistoryConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}

// UpstreamsConfig contains the downstream compute endpoints the services
// call on cache miss. Both are plain JSON-over-HTTP endpoints; provider
// specifics live behind them.
type UpstreamsConfig struct {
	SearchURL string        `yaml:"search_url"`
	ChatURL   string        `yaml:"chat_url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Validate checks the upstreams section.
func (c *UpstreamsConfig) Validate() error {
	if c.SearchURL == "" && c.ChatURL == "" {
		return nil // services can run with injected compute functions in tests
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("upstreams.timeout must be positive")
	}
	return nil
}

// MonitoringConfig contains logging settings.
type MonitoringConfig struct {
	Log monitoring.LoggerConfig `yaml:"log"`
}
