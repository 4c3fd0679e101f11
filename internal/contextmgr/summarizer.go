package contextmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Default configuration values.
const (
	DefaultWindowSize         = 10
	DefaultMaxRecentQuestions = 3
	DefaultQuestionCharBudget = 100
)

// summaryHeader is always present in a computed summary, even when no
// topics or questions were found. A header-only summary signals
// "summarization attempted, nothing salient" as opposed to the
// no-summary-needed case, which returns ok=false.
const summaryHeader = "Earlier in this conversation:"

// Config configures a Summarizer.
type Config struct {
	// WindowSize is how many most-recent messages are kept verbatim.
	// Must be positive.
	WindowSize int

	// MaxRecentQuestions is how many recent user questions the summary
	// quotes. Zero means DefaultMaxRecentQuestions.
	MaxRecentQuestions int

	// QuestionCharBudget truncates each quoted question, with an ellipsis
	// marker. Zero means DefaultQuestionCharBudget.
	QuestionCharBudget int

	// Topics is the domain vocabulary used to tag summarized segments.
	// Nil means DefaultTopicVocabulary.
	Topics []TopicPattern
}

type compiledTopic struct {
	re      *regexp.Regexp // nil when the pattern is a literal substring
	literal string
	label   string
}

// Summarizer folds conversation overflow into a compact topic/question
// summary. It is pure: identical message lists always yield identical
// summaries, and no I/O is performed. It holds no per-conversation state;
// the caller owns the message log and passes it in whole on every call.
type Summarizer struct {
	windowSize         int
	maxRecentQuestions int
	questionCharBudget int
	topics             []compiledTopic
}

// NewSummarizer creates a Summarizer. Panics on a non-positive window
// size; defaults are applied for the remaining zero-valued fields.
func NewSummarizer(cfg Config) *Summarizer {
	if cfg.WindowSize <= 0 {
		panic(fmt.Sprintf("contextmgr: WindowSize must be positive, got %d", cfg.WindowSize))
	}
	if cfg.MaxRecentQuestions == 0 {
		cfg.MaxRecentQuestions = DefaultMaxRecentQuestions
	}
	if cfg.MaxRecentQuestions < 0 {
		panic(fmt.Sprintf("contextmgr: MaxRecentQuestions must not be negative, got %d", cfg.MaxRecentQuestions))
	}
	if cfg.QuestionCharBudget == 0 {
		cfg.QuestionCharBudget = DefaultQuestionCharBudget
	}
	if cfg.QuestionCharBudget < 0 {
		panic(fmt.Sprintf("contextmgr: QuestionCharBudget must not be negative, got %d", cfg.QuestionCharBudget))
	}
	vocab := cfg.Topics
	if vocab == nil {
		vocab = DefaultTopicVocabulary
	}

	s := &Summarizer{
		windowSize:         cfg.WindowSize,
		maxRecentQuestions: cfg.MaxRecentQuestions,
		questionCharBudget: cfg.QuestionCharBudget,
	}
	for _, tp := range vocab {
		ct := compiledTopic{label: tp.Label}
		re, err := regexp.Compile(`(?i)` + tp.Pattern)
		if err != nil {
			ct.literal = strings.ToLower(tp.Pattern)
		} else {
			ct.re = re
		}
		s.topics = append(s.topics, ct)
	}
	return s
}

// WindowSize returns the configured verbatim window size.
func (s *Summarizer) WindowSize() int { return s.windowSize }

// SummarizeIfNeeded returns (summary, true) when the message list exceeds
// the window size, computed over the overflow portion
// messages[0 : len-window]. It returns ("", false) when the history still
// fits the window and the caller should pass the full history downstream.
func (s *Summarizer) SummarizeIfNeeded(messages []Message) (string, bool) {
	if len(messages) <= s.windowSize {
		return "", false
	}
	overflow := messages[:len(messages)-s.windowSize]
	return s.summarize(overflow), true
}

// summarize composes the topic and recent-question sections from the
// overflow slice.
func (s *Summarizer) summarize(overflow []Message) string {
	topics := s.matchTopics(overflow)
	questions := s.recentQuestions(overflow)

	var b strings.Builder
	b.WriteString(summaryHeader)
	if len(topics) > 0 {
		b.WriteString("\nTopics discussed: ")
		b.WriteString(strings.Join(topics, ", "))
	}
	if len(questions) > 0 {
		b.WriteString("\nRecent questions:")
		for _, q := range questions {
			b.WriteString("\n- ")
			b.WriteString(q)
		}
	}
	return b.String()
}

// matchTopics scans user-authored content for the vocabulary patterns and
// returns the distinct matched labels in vocabulary order.
func (s *Summarizer) matchTopics(messages []Message) []string {
	var text strings.Builder
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		text.WriteString(m.Content)
		text.WriteString("\n")
	}
	if text.Len() == 0 {
		return nil
	}
	content := text.String()
	lowered := strings.ToLower(content)

	var labels []string
	seen := make(map[string]bool)
	for _, ct := range s.topics {
		if seen[ct.label] {
			continue
		}
		matched := false
		if ct.re != nil {
			matched = ct.re.MatchString(content)
		} else {
			matched = strings.Contains(lowered, ct.literal)
		}
		if matched {
			labels = append(labels, ct.label)
			seen[ct.label] = true
		}
	}
	return labels
}

// recentQuestions extracts up to MaxRecentQuestions of the most recent
// user-authored messages, in chronological order, each truncated to the
// character budget.
func (s *Summarizer) recentQuestions(messages []Message) []string {
	var questions []string
	for i := len(messages) - 1; i >= 0 && len(questions) < s.maxRecentQuestions; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		q := strings.TrimSpace(messages[i].Content)
		if q == "" {
			continue
		}
		questions = append(questions, truncate(q, s.questionCharBudget))
	}
	// Collected newest-first; present oldest-first.
	for i, j := 0, len(questions)-1; i < j; i, j = i+1, j-1 {
		questions[i], questions[j] = questions[j], questions[i]
	}
	return questions
}

// truncate shortens s to maxLen characters with an ellipsis marker.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
