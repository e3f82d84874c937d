package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extractor converts raw document bytes into plain UTF-8 book text for
// the compiler. Structured formats flatten headings and paragraphs to
// standalone lines; the classifier re-tags them downstream.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// ForFile returns the appropriate extractor for a filename. Plain text
// is not handled here: it goes through encoding detection instead.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsPlainText reports whether the filename takes the raw text path
// (encoding detection instead of an extractor).
func IsPlainText(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".txt"
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}
