package contextmgr

import (
	"github.com/pkoukk/tiktoken-go"
)

// tokenEstimateRatio is the bytes-per-token fallback estimate used when no
// tokenizer encoding is available.
const tokenEstimateRatio = 4

// TokenCounter reports how many tokens a piece of conversation context
// will cost downstream. Used for logging and window diagnostics only; the
// summarizer's budgets are character-based.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding. When the encoding cannot
// be loaded (offline environments), the counter falls back to a
// bytes-per-token estimate.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count of s.
func (t *TokenCounter) Count(s string) int {
	if t.enc == nil {
		return Estimate(s)
	}
	return len(t.enc.Encode(s, nil, nil))
}

// CountMessages sums the token counts of all message contents.
func (t *TokenCounter) CountMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += t.Count(m.Content)
	}
	return total
}

// Estimate approximates token count as bytes divided by four.
func Estimate(s string) int {
	return len(s) / tokenEstimateRatio
}
