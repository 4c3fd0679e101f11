// Package cache provides the query result cache for search and chat.
//
// DESIGN: Exact-match memoization keyed by a normalized query string.
// "Hello!" and "hello" resolve to the same entry; semantic similarity
// matching is deliberately out of scope.
package cache

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize produces the canonical cache key for a raw query.
//
// Lowercases the input, strips everything that is not a word character or
// whitespace, collapses whitespace runs to a single space, and trims the
// result. Deterministic and idempotent.
//
// An input that normalizes to "" is still a valid key. Callers that want
// to avoid caching degenerate queries must short-circuit before the cache
// (see search.Service).
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
