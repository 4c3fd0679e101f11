package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiqt/talent-gateway/internal/config"
)

const validYAML = `
server:
  port: 8080
  read_timeout: 30s
  write_timeout: 60s

cache:
  max_entries: 100
  ttl: 30m
  batch_eviction_size: 10

context:
  window_size: 10
  max_recent_questions: 3
  question_char_budget: 100
  session_idle_ttl: 2h
  topics:
    - pattern: "skill|kemahiran"
      label: skills
    - pattern: "event|program"
      label: events

history:
  enabled: true
  path: /tmp/talent-gateway.db

upstreams:
  search_url: https://api.example.com/search
  chat_url: https://api.example.com/chat
  api_key: test-key
  timeout: 60s

monitoring:
  log:
    level: debug
    format: json
`

func TestLoadFromBytes_Valid(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 100, cfg.Cache.MaxEntries)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Cache.BatchEvictionSize)
	assert.Equal(t, 10, cfg.Context.WindowSize)
	assert.Equal(t, 2*time.Hour, cfg.Context.SessionIdleTTL)
	require.Len(t, cfg.Context.Topics, 2)
	assert.Equal(t, "skills", cfg.Context.Topics[0].Label)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "test-key", cfg.Upstreams.APIKey)
	assert.Equal(t, "debug", cfg.Monitoring.Log.Level)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TG_PORT", "9090")
	t.Setenv("TG_API_KEY", "secret-from-env")

	yaml := `
server:
  port: ${TG_PORT:-8080}
  read_timeout: 30s
  write_timeout: 60s
cache:
  max_entries: 100
  ttl: ${TG_CACHE_TTL:-30m}
  batch_eviction_size: 10
context:
  window_size: 10
upstreams:
  search_url: https://api.example.com/search
  api_key: ${TG_API_KEY}
  timeout: 60s
`
	cfg, err := config.LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "set env var wins")
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL, "unset env var falls back to default")
	assert.Equal(t, "secret-from-env", cfg.Upstreams.APIKey)
}

func TestLoadFromBytes_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing port",
			yaml:    "server:\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 5\n",
			wantErr: "server.port is required",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  port: 70000\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 5\n",
			wantErr: "invalid server.port",
		},
		{
			name:    "zero cache capacity",
			yaml:    "server:\n  port: 8080\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 0\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 5\n",
			wantErr: "cache.max_entries must be positive",
		},
		{
			name:    "batch larger than capacity",
			yaml:    "server:\n  port: 8080\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 20\ncontext:\n  window_size: 5\n",
			wantErr: "batch_eviction_size must not exceed",
		},
		{
			name:    "zero window size",
			yaml:    "server:\n  port: 8080\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 0\n",
			wantErr: "context.window_size must be positive",
		},
		{
			name:    "topic without label",
			yaml:    "server:\n  port: 8080\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 5\n  topics:\n    - pattern: skill\n",
			wantErr: "topics[0].label is required",
		},
		{
			name:    "history enabled without path",
			yaml:    "server:\n  port: 8080\n  read_timeout: 1s\n  write_timeout: 1s\ncache:\n  max_entries: 10\n  ttl: 1m\n  batch_eviction_size: 1\ncontext:\n  window_size: 5\nhistory:\n  enabled: true\n",
			wantErr: "history.path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := config.Load("")
	require.Error(t, err)
}
