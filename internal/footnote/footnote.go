// Package footnote extracts footnote definitions and cross-links inline
// marker references to them.
//
// A line whose trimmed content starts with exactly one marker glyph is a
// definition: the marker is stripped, the remainder becomes the body of
// the next FootnoteEntry, and the line is removed from the rendered main
// text. Any other occurrence of a marker glyph is a reference and is
// replaced with an anchor numbered by the running reference count at
// encounter time. References are assigned optimistically; one that never
// matches a definition still renders, targeting a nonexistent ordinal,
// and is reported as a warning rather than silently dropped.
package footnote

import (
	"fmt"
	"strings"

	"github.com/okvee/bookpress/internal/book"
	"github.com/okvee/bookpress/internal/patterns"
)

// Linker accumulates footnote state for one run.
type Linker struct {
	refOrdinal int
	defOrdinal int
	entries    []book.FootnoteEntry

	// refLines records the source line number of each reference
	// ordinal, for warning detail.
	refLines map[int]int
}

func NewLinker() *Linker {
	return &Linker{refLines: make(map[int]int)}
}

// IsDefinition reports whether the trimmed line is a footnote definition:
// a marker glyph at position 0 followed by body text.
func IsDefinition(line string) bool {
	trimmed := strings.TrimSpace(line)
	runes := []rune(trimmed)
	return len(runes) > 1 && patterns.IsFootnoteMarker(runes[0])
}

// AddDefinition consumes a definition line and returns the completed
// entry. The ordinal is the current definition counter.
func (l *Linker) AddDefinition(line string) book.FootnoteEntry {
	trimmed := strings.TrimSpace(line)
	runes := []rune(trimmed)
	body := strings.TrimSpace(string(runes[1:]))

	entry := book.FootnoteEntry{Ordinal: l.defOrdinal, Body: body}
	l.defOrdinal++
	l.entries = append(l.entries, entry)
	return entry
}

// LinkRefs replaces embedded marker glyphs in a classified node's text
// with anchors, left to right, recording each assigned ordinal on the
// node. Matching restarts on the unscanned suffix only, so multi-marker
// lines never double-count.
func (l *Linker) LinkRefs(node *book.LineNode) {
	if !strings.ContainsFunc(node.Text, patterns.IsFootnoteMarker) {
		return
	}

	var out strings.Builder
	for _, r := range node.Text {
		if !patterns.IsFootnoteMarker(r) {
			out.WriteRune(r)
			continue
		}
		ordinal := l.refOrdinal
		l.refOrdinal++
		l.refLines[ordinal] = node.LineNumber
		node.Anchors = append(node.Anchors, ordinal)
		fmt.Fprintf(&out, "[^%d]", ordinal)
	}
	node.Text = out.String()
}

// Entries returns the completed footnote entries in ordinal order.
func (l *Linker) Entries() []book.FootnoteEntry {
	return l.entries
}

// ResolvedCount is the number of reference anchors whose ordinal matched
// a definition.
func (l *Linker) ResolvedCount() int {
	return min(l.refOrdinal, len(l.entries))
}

// UnresolvedWarnings reports every reference anchor with no definition.
func (l *Linker) UnresolvedWarnings() []book.Warning {
	var warns []book.Warning
	for ordinal := len(l.entries); ordinal < l.refOrdinal; ordinal++ {
		warns = append(warns, book.Warning{
			Kind:   book.WarnUnresolvedFootnote,
			Detail: fmt.Sprintf("footnote reference %d on line %d has no definition", ordinal, l.refLines[ordinal]),
		})
	}
	return warns
}
