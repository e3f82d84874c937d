// Package textenc determines the encoding and Eastern/Western language
// classification of raw book bytes, and decodes them to UTF-8 text.
package textenc

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/okvee/bookpress/internal/patterns"
)

// Encoding names returned by Detect and accepted by DecodeAll.
const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
	GB18030 = "gb18030"
	Big5    = "big5"
)

// SampleSize bounds how many bytes Detect inspects for large inputs.
const SampleSize = 32 * 1024

// maxReplacementRate is the tolerated fraction of replacement runes in a
// multi-byte fallback decode before the candidate is rejected.
const maxReplacementRate = 0.05

// Hints carries caller-supplied detection overrides, e.g. from a retry
// that already knows the answer.
type Hints struct {
	Encoding  string
	IsEastern *bool
}

// Result is the detection outcome. Degraded means no candidate decoded
// cleanly and UTF-8 was forced; downstream stages tolerate the corrupted
// glyphs rather than aborting.
type Result struct {
	Encoding  string
	IsEastern bool
	Degraded  bool
}

// Detect determines encoding and language classification from a byte
// sample. UTF-8 is attempted first; on failure the region multi-byte
// codecs GB18030 and Big5 are tried in that order.
func Detect(data []byte, hints Hints) Result {
	sample := sampleOf(data)

	if hints.Encoding != "" {
		res := Result{Encoding: hints.Encoding}
		text, err := DecodeAll(sample, hints.Encoding)
		if err != nil {
			return Result{Encoding: UTF8, Degraded: true, IsEastern: hintedEastern(hints, "")}
		}
		res.IsEastern = hintedEastern(hints, text)
		return res
	}

	if enc, ok := bomEncoding(sample); ok {
		text, err := DecodeAll(sample, enc)
		if err != nil {
			return Result{Encoding: UTF8, Degraded: true}
		}
		return Result{Encoding: enc, IsEastern: hintedEastern(hints, text)}
	}

	if validUTF8Sample(sample) {
		return Result{Encoding: UTF8, IsEastern: hintedEastern(hints, string(sample))}
	}

	for _, enc := range []string{GB18030, Big5} {
		text, err := DecodeAll(sample, enc)
		if err != nil {
			continue
		}
		if replacementRate(text) <= maxReplacementRate {
			return Result{Encoding: enc, IsEastern: hintedEastern(hints, text)}
		}
	}

	// No candidate decoded cleanly. Fall back rather than abort.
	return Result{Encoding: UTF8, Degraded: true, IsEastern: hintedEastern(hints, "")}
}

// DecodeAll converts the full buffer to UTF-8 text under the named
// encoding. Invalid byte sequences decode to replacement runes.
func DecodeAll(data []byte, enc string) (string, error) {
	codec := codecFor(enc)
	if codec == nil {
		return string(data), nil
	}
	out, err := codec.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func codecFor(enc string) encoding.Encoding {
	switch enc {
	case GB18030:
		return simplifiedchinese.GB18030
	case Big5:
		return traditionalchinese.Big5
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		// UTF-8 input is passed through; the decoder replaces invalid
		// sequences instead of failing.
		return unicode.UTF8
	}
}

func sampleOf(data []byte) []byte {
	if len(data) <= SampleSize {
		return data
	}
	return data[:SampleSize]
}

func bomEncoding(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return UTF8, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return UTF16LE, true
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return UTF16BE, true
	}
	return "", false
}

// validUTF8Sample checks UTF-8 validity, ignoring a multi-byte rune cut
// off at the sample boundary.
func validUTF8Sample(sample []byte) bool {
	for i := 0; i < utf8.UTFMax-1 && len(sample) > 0; i++ {
		if utf8.Valid(sample) {
			return true
		}
		sample = sample[:len(sample)-1]
	}
	return utf8.Valid(sample)
}

func replacementRate(text string) float64 {
	if text == "" {
		return 0
	}
	total, bad := 0, 0
	for _, r := range text {
		total++
		if r == utf8.RuneError {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

// ContainsEastern reports whether any rune of text falls in the Eastern
// Unicode ranges.
func ContainsEastern(text string) bool {
	for _, r := range text {
		if patterns.IsEastern(r) {
			return true
		}
	}
	return false
}

func hintedEastern(hints Hints, text string) bool {
	if hints.IsEastern != nil {
		return *hints.IsEastern
	}
	return ContainsEastern(text)
}
