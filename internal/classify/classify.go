// Package classify turns decoded lines into tagged LineNodes. All
// mutable per-run counters live in State, which the orchestrator threads
// through each call; the classifier itself is stateless and safe to run
// concurrently across independent books.
package classify

import (
	"strings"

	"github.com/okvee/bookpress/internal/book"
	"github.com/okvee/bookpress/internal/patterns"
)

// State is the processing state threaded across chunk boundaries. It is
// owned exclusively by one orchestrator run and discarded on completion
// or error.
type State struct {
	// DropCapPending is set by a title and consumed by the next
	// non-empty paragraph.
	DropCapPending bool

	// HeaderLines is the remaining title-page offset: lines still on
	// the raw passthrough path.
	HeaderLines int

	// NextLine is the next stable line number to assign.
	NextLine int
}

// Classifier tags decoded lines for one language classification.
type Classifier struct {
	isEastern bool
}

func New(isEastern bool) *Classifier {
	return &Classifier{isEastern: isEastern}
}

// Classify transforms one decoded line into a LineNode and advances the
// state. Line numbers are unique, strictly increasing and assigned
// exactly once; empty lines still receive one.
func (c *Classifier) Classify(line string, st *State) book.LineNode {
	n := st.NextLine
	st.NextLine++

	// Pre-offset lines are opaque: pre-built structural markup is only
	// wrapped with a stable navigation anchor.
	if st.HeaderLines > 0 {
		st.HeaderLines--
		return book.LineNode{LineNumber: n, Kind: book.KindRawHeader, Text: line}
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		st.DropCapPending = false
		return book.LineNode{LineNumber: n, Kind: book.KindEmpty}
	}

	// A title match takes precedence over pending drop-cap state; the
	// flag carries forward unconsumed.
	if title, ok := patterns.MatchTitle(trimmed); ok {
		st.DropCapPending = true
		return book.LineNode{
			LineNumber: n,
			Kind:       book.KindTitle,
			Text:       title,
			TitleText:  title,
		}
	}

	stripped := patterns.StripNoise(trimmed)
	if stripped == "" {
		st.DropCapPending = false
		return book.LineNode{LineNumber: n, Kind: book.KindEmpty}
	}

	node := book.LineNode{LineNumber: n, Kind: book.KindParagraph, Text: stripped}
	if st.DropCapPending {
		st.DropCapPending = false
		if !c.isEastern {
			node.First = true
			node.DropCapLen = dropCapSpan(stripped)
		}
	}
	return node
}

// dropCapSpan returns the rune length of the drop-cap span: the leading
// punctuation run plus exactly one following character.
func dropCapSpan(s string) int {
	span := 0
	for _, r := range s {
		span++
		if !patterns.IsLeadingPunct(r) {
			return span
		}
	}
	// The whole line is punctuation; the run itself is the span.
	return span
}
