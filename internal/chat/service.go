// Package chat runs the AI assistant conversations.
//
// The service owns the per-conversation message logs (via session.Store),
// folds history overflow into a summary before each downstream call, and
// memoizes single-turn prompts in the shared query cache. The downstream
// LLM call itself is an injected Responder; this package never constructs
// provider-specific prompts or parses provider responses.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/amiqt/talent-gateway/internal/cache"
	"github.com/amiqt/talent-gateway/internal/contextmgr"
	"github.com/amiqt/talent-gateway/internal/history"
	"github.com/amiqt/talent-gateway/internal/monitoring"
	"github.com/amiqt/talent-gateway/internal/session"
)

var (
	// ErrEmptyMessage is returned when the request carries no message text.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrInvalidRequest is returned for bodies that are not valid JSON.
	ErrInvalidRequest = errors.New("chat: invalid request body")
)

// Responder performs the downstream LLM call with the composed payload and
// returns the assistant's reply text. Invoked once per non-cached turn.
type Responder func(ctx context.Context, payload []byte) (string, error)

// Deps are the collaborators a Service is built from. Transcripts and
// Cache may be nil; persistence and single-turn memoization are then
// disabled.
type Deps struct {
	Sessions    *session.Store
	Transcripts *history.Store
	Summarizer  *contextmgr.Summarizer
	Cache       *cache.QueryCache
	Tokens      *contextmgr.TokenCounter
	Respond     Responder
	Metrics     *monitoring.MetricsCollector
}

// Service handles chat turns.
type Service struct {
	deps Deps
}

// New creates a chat service.
func New(deps Deps) *Service {
	if deps.Tokens == nil {
		deps.Tokens = contextmgr.NewTokenCounter()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetricsCollector()
	}
	return &Service{deps: deps}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	Cached         bool   `json:"cached"`
	Summarized     bool   `json:"summarized"`
}

// Handle processes one chat request. The body is raw JSON with
// "conversation_id" (optional; a new conversation is started when absent)
// and "message" (required).
func (s *Service) Handle(ctx context.Context, body []byte) (*Reply, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidRequest
	}
	convID := gjson.GetBytes(body, "conversation_id").String()
	text := strings.TrimSpace(gjson.GetBytes(body, "message").String())
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if convID == "" {
		convID = s.deps.Sessions.NewConversationID()
	} else if !s.deps.Sessions.Exists(convID) {
		s.rehydrate(ctx, convID)
	}

	priorHistory := s.deps.Sessions.History(convID)
	firstTurn := len(priorHistory) == 0

	// Single-turn prompts are memoizable across users and conversations;
	// once a conversation has context, replies are conversation-specific.
	cacheable := firstTurn && s.deps.Cache != nil && cache.Normalize(text) != ""
	if cacheable {
		if cached, ok := s.deps.Cache.Lookup(text); ok {
			s.deps.Metrics.RecordCacheHit()
			s.record(ctx, convID, userMessage(text))
			s.record(ctx, convID, assistantMessage(cached))
			s.deps.Metrics.RecordRequest(true)
			log.Debug().Str("conversation_id", convID).Msg("chat served from cache")
			return &Reply{ConversationID: convID, Text: cached, Cached: true}, nil
		}
		s.deps.Metrics.RecordCacheMiss()
	}

	userMsg := userMessage(text)
	s.record(ctx, convID, userMsg)
	messages := append(priorHistory, userMsg)

	payload, summarized, err := s.buildPayload(convID, messages)
	if err != nil {
		s.deps.Metrics.RecordRequest(false)
		return nil, err
	}

	replyText, err := s.deps.Respond(ctx, payload)
	if err != nil {
		s.deps.Metrics.RecordRequest(false)
		return nil, fmt.Errorf("chat respond: %w", err)
	}

	s.record(ctx, convID, assistantMessage(replyText))
	if cacheable {
		s.deps.Cache.Store(text, replyText)
	}

	s.deps.Metrics.RecordRequest(true)
	return &Reply{ConversationID: convID, Text: replyText, Summarized: summarized}, nil
}

// Reset drops a conversation's in-memory log and persisted transcript.
func (s *Service) Reset(ctx context.Context, conversationID string) error {
	s.deps.Sessions.Delete(conversationID)
	if s.deps.Transcripts != nil {
		if err := s.deps.Transcripts.Delete(ctx, conversationID); err != nil {
			return err
		}
	}
	return nil
}

// buildPayload composes the downstream request: the full history while it
// fits the context window, otherwise a summary of the overflow plus the
// last windowSize messages verbatim.
func (s *Service) buildPayload(convID string, messages []contextmgr.Message) ([]byte, bool, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "conversation_id", convID)
	if err != nil {
		return nil, false, fmt.Errorf("chat payload: %w", err)
	}

	window := messages
	summary, summarized := s.deps.Summarizer.SummarizeIfNeeded(messages)
	if summarized {
		s.deps.Metrics.RecordSummary()
		window = messages[len(messages)-s.deps.Summarizer.WindowSize():]
		if payload, err = sjson.SetBytes(payload, "context_summary", summary); err != nil {
			return nil, false, fmt.Errorf("chat payload: %w", err)
		}
	}

	raw, err := json.Marshal(window)
	if err != nil {
		return nil, false, fmt.Errorf("chat payload: %w", err)
	}
	if payload, err = sjson.SetRawBytes(payload, "messages", raw); err != nil {
		return nil, false, fmt.Errorf("chat payload: %w", err)
	}

	log.Debug().
		Str("conversation_id", convID).
		Int("history_len", len(messages)).
		Int("window_len", len(window)).
		Bool("summarized", summarized).
		Int("context_tokens", s.deps.Tokens.CountMessages(window)+s.deps.Tokens.Count(summary)).
		Msg("chat payload composed")
	return payload, summarized, nil
}

// rehydrate restores a conversation's log from the persisted transcript.
func (s *Service) rehydrate(ctx context.Context, convID string) {
	if s.deps.Transcripts == nil {
		return
	}
	persisted, err := s.deps.Transcripts.Load(ctx, convID)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", convID).Msg("transcript load failed")
		return
	}
	if len(persisted) > 0 {
		s.deps.Sessions.Seed(convID, persisted)
	}
}

// record appends the message to the owned log and, when persistence is
// enabled, to the transcript. A persistence failure is logged, not
// surfaced: the in-memory log stays authoritative for the live turn.
func (s *Service) record(ctx context.Context, convID string, msg contextmgr.Message) {
	s.deps.Sessions.Append(convID, msg)
	if s.deps.Transcripts != nil {
		if err := s.deps.Transcripts.Append(ctx, convID, msg); err != nil {
			log.Warn().Err(err).Str("conversation_id", convID).Msg("transcript append failed")
		}
	}
}

func userMessage(content string) contextmgr.Message {
	return contextmgr.Message{Role: contextmgr.RoleUser, Content: content, Timestamp: time.Now()}
}

func assistantMessage(content string) contextmgr.Message {
	return contextmgr.Message{Role: contextmgr.RoleAssistant, Content: content, Timestamp: time.Now()}
}
