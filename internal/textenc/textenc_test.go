package textenc

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

func TestDetect_PlainASCII(t *testing.T) {
	res := Detect([]byte("Just some plain English text.\nSecond line."), Hints{})
	if res.Encoding != UTF8 {
		t.Errorf("expected utf-8, got %s", res.Encoding)
	}
	if res.IsEastern {
		t.Error("expected Western classification")
	}
	if res.Degraded {
		t.Error("expected clean detection")
	}
}

func TestDetect_UTF8Chinese(t *testing.T) {
	res := Detect([]byte("第一章 开始\n这是正文。"), Hints{})
	if res.Encoding != UTF8 {
		t.Errorf("expected utf-8, got %s", res.Encoding)
	}
	if !res.IsEastern {
		t.Error("expected Eastern classification")
	}
}

func TestDetect_GB18030Fallback(t *testing.T) {
	raw, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte("你好，世界。这是一本中文书。"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	res := Detect(raw, Hints{})
	if res.Encoding != GB18030 {
		t.Errorf("expected gb18030, got %s", res.Encoding)
	}
	if !res.IsEastern {
		t.Error("expected Eastern classification")
	}
	if res.Degraded {
		t.Error("expected clean fallback detection")
	}

	text, err := DecodeAll(raw, res.Encoding)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(text, "你好") {
		t.Errorf("expected round-tripped text, got %q", text)
	}
}

func TestDetect_UTF16LEBOM(t *testing.T) {
	raw := []byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00}
	res := Detect(raw, Hints{})
	if res.Encoding != UTF16LE {
		t.Errorf("expected utf-16le, got %s", res.Encoding)
	}
	text, err := DecodeAll(raw, res.Encoding)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "Hi" {
		t.Errorf("expected %q, got %q", "Hi", text)
	}
}

func TestDetect_EncodingHintSkipsDetection(t *testing.T) {
	raw, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte("繁體中文"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	res := Detect(raw, Hints{Encoding: Big5})
	if res.Encoding != Big5 {
		t.Errorf("expected big5, got %s", res.Encoding)
	}
	if !res.IsEastern {
		t.Error("expected Eastern classification")
	}
}

func TestDetect_EasternHintOverrides(t *testing.T) {
	eastern := true
	res := Detect([]byte("plain english"), Hints{IsEastern: &eastern})
	if !res.IsEastern {
		t.Error("expected hint to override glyph scan")
	}
}

func TestDetect_NoCandidateDegrades(t *testing.T) {
	// 0xFF is invalid in UTF-8, GB18030 and Big5 alike, so every byte
	// decodes to a replacement rune and both fallback candidates fail
	// the replacement-rate gate.
	raw := bytes.Repeat([]byte{0xFF}, 64)
	res := Detect(raw, Hints{})
	if res.Encoding != UTF8 {
		t.Errorf("expected utf-8 fallback, got %s", res.Encoding)
	}
	if !res.Degraded {
		t.Error("expected degraded-confidence flag")
	}
}

func TestDetect_SampleBoundaryRune(t *testing.T) {
	// A multi-byte rune split at the sample boundary must not be
	// mistaken for an encoding error.
	data := bytes.Repeat([]byte("这是中文正文。"), SampleSize/21+1)
	res := Detect(data, Hints{})
	if res.Encoding != UTF8 {
		t.Errorf("expected utf-8, got %s", res.Encoding)
	}
	if res.Degraded {
		t.Error("expected clean detection across sample boundary")
	}
}

func TestContainsEastern(t *testing.T) {
	if ContainsEastern("only latin text") {
		t.Error("expected no Eastern glyphs")
	}
	if !ContainsEastern("latin with 中 mixed in") {
		t.Error("expected Eastern glyph to be found")
	}
}
