// Package contextmgr bounds the conversation history passed to expensive
// downstream calls while preserving enough signal to keep responses
// contextually relevant.
//
// DESIGN: The summarizer is stateless per call and recomputes over the
// full message log each time. Conversation logs in this product are short,
// so the recompute is cheap; if a caller ever passes unbounded history, an
// incremental-summary strategy should replace this.
package contextmgr

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicPattern maps a match pattern to a human-readable topic label.
// Patterns are matched case-insensitively against user message content;
// a pattern that fails to compile as a regex is matched as a literal
// substring instead.
type TopicPattern struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// DefaultTopicVocabulary covers the talent-profiling domain: the subjects
// students ask the assistant about. Callers with other domains supply
// their own vocabulary.
var DefaultTopicVocabulary = []TopicPattern{
	{Pattern: `skill|kemahiran`, Label: "skills"},
	{Pattern: `profil|profile`, Label: "profiles"},
	{Pattern: `event|program|acara`, Label: "events"},
	{Pattern: `achievement|pencapaian|badge`, Label: "achievements"},
	{Pattern: `cert|sijil`, Label: "certificates"},
	{Pattern: `talent|bakat`, Label: "talent development"},
	{Pattern: `course|kursus|subject`, Label: "courses"},
}
