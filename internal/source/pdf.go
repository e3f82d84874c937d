package source

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor flattens PDF files to plain text, one form-feed-separated
// block per source page.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(data []byte) (string, error) {
	// ledongthuc/pdf wants a ReadSeeker plus size; a bytes.Reader works
	// for NewReader, but Open is file-based, so go through NewReader.
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var out strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		writeBlock(&out, text)
	}
	return out.String(), nil
}
