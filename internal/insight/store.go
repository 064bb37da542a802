// Package insight accumulates business insights discovered during a session
// and renders them as a memo.
package insight

import (
	"fmt"
	"strings"
	"sync"
)

const emptyMemo = "No business insights have been discovered yet."

// Store is an ordered, append-only list of insights. It lives as long as the
// server process.
type Store struct {
	mu       sync.RWMutex
	insights []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds text after every previously appended insight. Duplicates are kept.
func (s *Store) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, text)
}

// Len returns the number of insights.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.insights)
}

// All returns a copy of the insights in discovery order.
func (s *Store) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.insights))
	copy(out, s.insights)
	return out
}

// Render returns the memo text. The header wording is relied upon by
// existing clients and must not change.
func (s *Store) Render() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.insights) == 0 {
		return emptyMemo
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis has revealed %d key business insights that suggest strategic opportunities for growth, optimization, and competitive advantage:\n", len(s.insights))
	for i, in := range s.insights {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(in)
	}
	return b.String()
}
