// Package patterns holds the immutable, ordered rule sets the compiler
// matches lines against: title patterns, source-noise patterns, the
// punctuation class used for drop caps, and the footnote marker glyph
// range. Rules are plain data applied in fixed order; new distribution
// sources are added by appending a NoiseRule, not by writing code.
package patterns

import (
	"regexp"
	"strings"
)

// TitleRule is one entry in the ordered title pattern set.
type TitleRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// TitleRules is ordered by decreasing specificity; the first match wins.
var TitleRules = []TitleRule{
	{"cjk-numbered", regexp.MustCompile(`^第[0-9０-９零〇一二三四五六七八九十百千万两]+[章节卷回集部篇话](?:[ 　\t:：].*)?$`)},
	{"cjk-section", regexp.MustCompile(`^(?:序章|序言|自序|前言|引言|楔子|尾声|终章|后记|番外|外传|大结局)(?:[ 　\t:：].*)?$`)},
	{"western-numbered", regexp.MustCompile(`(?i)^(?:chapter|part|book|volume)[ \t]+(?:[0-9]+|[ivxlcdm]+|(?:one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty)(?:-\w+)?)(?:[ \t.:].*)?$`)},
	{"western-section", regexp.MustCompile(`(?i)^(?:prologue|epilogue|preface|foreword|introduction|interlude|afterword|appendix)(?:[ \t.:].*)?$`)},
}

// MatchTitle matches a trimmed line against the title pattern set and
// returns the title text with one trailing colon (either script's form)
// stripped.
func MatchTitle(line string) (string, bool) {
	for _, rule := range TitleRules {
		if rule.Pattern.MatchString(line) {
			return TrimTrailingColon(line), true
		}
	}
	return "", false
}

// TrimTrailingColon removes at most one trailing ASCII or fullwidth colon.
func TrimTrailingColon(s string) string {
	if strings.HasSuffix(s, "：") {
		return strings.TrimSuffix(s, "：")
	}
	return strings.TrimSuffix(s, ":")
}

// NoiseRule names one boilerplate fragment injected by a plain-text
// distribution source. Patterns are removed from lines in registry order.
type NoiseRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// NoiseRules is the single registered noise list. Order is fixed: URL-ish
// fragments go first so site-name rules see clean remainders.
var NoiseRules = []NoiseRule{
	{"url", regexp.MustCompile(`(?:https?://|www\.)[^\s，。]+`)},
	{"gutenberg-banner", regexp.MustCompile(`(?i)^\*{3}\s*(?:start|end) of (?:the|this) project gutenberg ebook.*$`)},
	{"cn-site-banner", regexp.MustCompile(`(?:本书由[^\s]{0,20}整理|更多精彩小说|小说下载尽在|手机访问[^\s]{0,20}|免费电子书下载|电子书分享平台)`)},
	{"cn-site-suffix", regexp.MustCompile(`[^\s]{1,12}(?:小说网|书屋|文学网|中文网)(?:提供下载)?`)},
	{"scene-rule", regexp.MustCompile(`^[=\-*#]{4,}$`)},
}

// StripNoise applies every noise rule in order and returns the remainder.
func StripNoise(line string) string {
	for _, rule := range NoiseRules {
		line = rule.Pattern.ReplaceAllString(line, "")
	}
	return strings.TrimSpace(line)
}

// leadingPunct is the punctuation class that participates in a drop-cap
// span: opening quotes, brackets and dashes in both scripts.
var leadingPunct = map[rune]bool{
	'"': true, '\'': true, '(': true, '[': true,
	'“': true, '”': true, // “ ”
	'‘': true, '’': true, // ‘ ’
	'「': true, '」': true, // 「 」
	'『': true, '』': true, // 『 』
	'《': true, '〈': true, // 《 〈
	'（': true, // （
	'—': true, // —
	'…': true, // …
}

// IsLeadingPunct reports whether r belongs to the drop-cap punctuation
// class.
func IsLeadingPunct(r rune) bool {
	return leadingPunct[r]
}

// IsFootnoteMarker reports whether r is a reserved footnote marker glyph.
// The marker range is the circled digits ①–⑳ (U+2460–U+2473).
func IsFootnoteMarker(r rune) bool {
	return r >= 0x2460 && r <= 0x2473
}

// IsEastern reports whether r falls in the configured Eastern Unicode
// ranges. This includes:
//   - CJK Unified Ideographs: U+4E00–U+9FFF
//   - CJK Unified Ideographs Extension A: U+3400–U+4DBF
//   - CJK Symbols and Punctuation: U+3000–U+303F
//   - Hiragana and Katakana: U+3040–U+30FF
//   - Hangul Syllables: U+AC00–U+D7AF
//   - Halfwidth and Fullwidth Forms: U+FF00–U+FFEF
func IsEastern(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0x3040 && r <= 0x30FF) ||
		(r >= 0xAC00 && r <= 0xD7AF) ||
		(r >= 0xFF00 && r <= 0xFFEF)
}
