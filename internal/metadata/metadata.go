// Package metadata derives book name and author for title-page and
// end-page synthesis. The filename provides defaults; leading metadata
// lines in the text override them and establish the title-page offset.
package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/okvee/bookpress/internal/book"
)

var (
	cjkBracketed = regexp.MustCompile(`^《(.+?)》\s*(.*)$`)
	dashSplit    = regexp.MustCompile(`^(.+?)\s*[-—]\s*(.+)$`)
	bySplit      = regexp.MustCompile(`(?i)^(.+\S)\s+by\s+(\S.*)$`)

	cnBookName = regexp.MustCompile(`^书名[:：]\s*(.*)$`)
	cnAuthor   = regexp.MustCompile(`^作者[:：]\s*(.*)$`)
)

// FromFilename derives metadata from the filename alone. Recognized
// stem forms, in order: 《name》author, "name - author", "name by author",
// bare name.
func FromFilename(filename string) book.Metadata {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.TrimSpace(stem)

	if m := cjkBracketed.FindStringSubmatch(stem); m != nil {
		return book.Metadata{BookName: strings.TrimSpace(m[1]), Author: strings.TrimSpace(m[2])}
	}
	if m := dashSplit.FindStringSubmatch(stem); m != nil {
		return book.Metadata{BookName: strings.TrimSpace(m[1]), Author: strings.TrimSpace(m[2])}
	}
	if m := bySplit.FindStringSubmatch(stem); m != nil {
		return book.Metadata{BookName: strings.TrimSpace(m[1]), Author: strings.TrimSpace(m[2])}
	}
	return book.Metadata{BookName: stem}
}

// maxHeaderLines bounds how far into the text header metadata may appear.
const maxHeaderLines = 5

// FromLines inspects the leading lines of the decoded text for metadata
// declarations (书名：/作者：, or a Western "Title by Author" first line)
// and merges them over the filename-derived defaults. The returned offset
// is the number of consumed header lines; lines before that offset take
// the raw passthrough path during classification.
func FromLines(lines []string, defaults book.Metadata) (book.Metadata, int) {
	meta := defaults
	offset := 0

	limit := min(len(lines), maxHeaderLines)
	for i := 0; i < limit; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			if offset == i {
				offset = i + 1
			}
			continue
		}
		if m := cnBookName.FindStringSubmatch(trimmed); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				meta.BookName = name
			}
			offset = i + 1
			continue
		}
		if m := cnAuthor.FindStringSubmatch(trimmed); m != nil {
			if author := strings.TrimSpace(m[1]); author != "" {
				meta.Author = author
			}
			offset = i + 1
			continue
		}
		// A Western "Title by Author" declaration only counts on the
		// very first content line.
		if i == offset {
			if m := bySplit.FindStringSubmatch(trimmed); m != nil {
				meta.BookName = strings.TrimSpace(m[1])
				meta.Author = strings.TrimSpace(m[2])
				offset = i + 1
				continue
			}
		}
		break
	}

	return meta, offset
}
