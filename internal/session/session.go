// Package session owns the per-conversation message logs.
//
// Each conversation id maps to an append-only log of messages. Logs are
// independent; there is no cross-conversation sharing. Idle conversations
// are dropped after a TTL by a background cleanup goroutine.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amiqt/talent-gateway/internal/contextmgr"
)

// DefaultIdleTTL is how long an untouched conversation is kept in memory.
const DefaultIdleTTL = 2 * time.Hour

// cleanupInterval is how often the idle sweep runs.
const cleanupInterval = 5 * time.Minute

// Config configures a Store.
type Config struct {
	// IdleTTL drops conversations untouched for this long. Zero means
	// DefaultIdleTTL.
	IdleTTL time.Duration
}

// conversation is a single owned message log.
type conversation struct {
	messages    []contextmgr.Message
	createdAt   time.Time
	lastUpdated time.Time
}

// Store holds the message logs for all live conversations.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
	idleTTL       time.Duration
	stopChan      chan struct{}
	stopped       bool
}

// NewStore creates a Store and starts its idle cleanup goroutine.
func NewStore(cfg Config) *Store {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	s := &Store{
		conversations: make(map[string]*conversation),
		idleTTL:       ttl,
		stopChan:      make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// NewConversationID returns a fresh conversation identifier.
func (s *Store) NewConversationID() string {
	return uuid.New().String()
}

// Append adds a message to the conversation's log, creating the log if the
// conversation is new.
func (s *Store) Append(conversationID string, msg contextmgr.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	c, ok := s.conversations[conversationID]
	if !ok {
		c = &conversation{createdAt: time.Now()}
		s.conversations[conversationID] = c
	}
	c.messages = append(c.messages, msg)
	c.lastUpdated = time.Now()
}

// Seed replaces the conversation's log wholesale. Used to rehydrate a
// conversation from persisted history; a no-op when the conversation
// already has messages in memory.
func (s *Store) Seed(conversationID string, messages []contextmgr.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if c, ok := s.conversations[conversationID]; ok && len(c.messages) > 0 {
		return
	}
	s.conversations[conversationID] = &conversation{
		messages:    append([]contextmgr.Message(nil), messages...),
		createdAt:   time.Now(),
		lastUpdated: time.Now(),
	}
}

// History returns a copy of the conversation's message log, oldest first.
// Returns nil for an unknown conversation.
func (s *Store) History(conversationID string) []contextmgr.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	return append([]contextmgr.Message(nil), c.messages...)
}

// Exists reports whether the conversation has an in-memory log.
func (s *Store) Exists(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[conversationID]
	return ok
}

// Delete removes a conversation's log.
func (s *Store) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Close stops the cleanup goroutine and drops all logs.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
		s.conversations = make(map[string]*conversation)
	}
}

// cleanup periodically drops conversations idle past the TTL.
func (s *Store) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.stopped {
				now := time.Now()
				for id, c := range s.conversations {
					if now.Sub(c.lastUpdated) > s.idleTTL {
						delete(s.conversations, id)
					}
				}
			}
			s.mu.Unlock()
		}
	}
}
