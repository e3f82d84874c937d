package classify

import (
	"testing"

	"github.com/okvee/bookpress/internal/book"
)

func TestClassify_AssignsSequentialLineNumbers(t *testing.T) {
	c := New(false)
	st := &State{}
	lines := []string{"Chapter One", "", "Some text.", "", "More text."}
	for i, line := range lines {
		node := c.Classify(line, st)
		if node.LineNumber != i {
			t.Errorf("line %d: expected lineNumber %d, got %d", i, i, node.LineNumber)
		}
	}
}

func TestClassify_EmptyLine(t *testing.T) {
	c := New(false)
	st := &State{DropCapPending: true}
	node := c.Classify("   ", st)
	if node.Kind != book.KindEmpty {
		t.Errorf("expected empty kind, got %s", node.Kind)
	}
	if st.DropCapPending {
		t.Error("expected empty line to clear pending drop cap")
	}
}

func TestClassify_TitleLine(t *testing.T) {
	c := New(true)
	st := &State{}
	node := c.Classify("第一章 开始", st)
	if node.Kind != book.KindTitle {
		t.Fatalf("expected title kind, got %s", node.Kind)
	}
	if node.TitleText != "第一章 开始" {
		t.Errorf("expected title text %q, got %q", "第一章 开始", node.TitleText)
	}
	if !st.DropCapPending {
		t.Error("expected title to set pending drop cap")
	}
}

func TestClassify_WesternDropCap(t *testing.T) {
	c := New(false)
	st := &State{}
	c.Classify("Chapter One", st)
	node := c.Classify(`"Hello, world."`, st)
	if node.Kind != book.KindParagraph {
		t.Fatalf("expected paragraph, got %s", node.Kind)
	}
	if !node.First {
		t.Error("expected first-paragraph flag")
	}
	// Span covers the leading quote plus the H.
	if node.DropCapLen != 2 {
		t.Errorf("expected drop-cap span 2, got %d", node.DropCapLen)
	}
	if st.DropCapPending {
		t.Error("expected drop cap consumed")
	}
}

func TestClassify_EasternNeverGetsDropCap(t *testing.T) {
	c := New(true)
	st := &State{}
	c.Classify("第一章 开始", st)
	node := c.Classify("这是正文。", st)
	if node.First || node.DropCapLen != 0 {
		t.Errorf("expected no drop cap for Eastern paragraph, got %+v", node)
	}
	if st.DropCapPending {
		t.Error("expected pending flag consumed even without a drop cap")
	}
}

func TestClassify_NoPunctuationDropCapSpanIsOneChar(t *testing.T) {
	c := New(false)
	st := &State{DropCapPending: true}
	node := c.Classify("Hello there.", st)
	if node.DropCapLen != 1 {
		t.Errorf("expected span 1 without leading punctuation, got %d", node.DropCapLen)
	}
}

func TestClassify_TitleTakesPrecedenceOverPendingDropCap(t *testing.T) {
	c := New(false)
	st := &State{}
	c.Classify("Chapter One", st)
	node := c.Classify("Chapter Two", st)
	if node.Kind != book.KindTitle {
		t.Fatalf("expected second title classified as title, got %s", node.Kind)
	}
	// The flag carries forward unconsumed to the next paragraph.
	para := c.Classify("Opening words.", st)
	if !para.First {
		t.Error("expected drop cap to survive consecutive titles")
	}
}

func TestClassify_RawHeaderPassthrough(t *testing.T) {
	c := New(true)
	st := &State{HeaderLines: 2}
	first := c.Classify("书名：测试", st)
	second := c.Classify("作者：张三", st)
	third := c.Classify("第一章 开始", st)

	if first.Kind != book.KindRawHeader || second.Kind != book.KindRawHeader {
		t.Errorf("expected raw header passthrough, got %s / %s", first.Kind, second.Kind)
	}
	if first.Text != "书名：测试" {
		t.Errorf("expected passthrough text kept opaque, got %q", first.Text)
	}
	if third.Kind != book.KindTitle {
		t.Errorf("expected classification to resume after offset, got %s", third.Kind)
	}
}

func TestClassify_NoiseOnlyLineBecomesEmpty(t *testing.T) {
	c := New(true)
	st := &State{DropCapPending: true}
	node := c.Classify("www.example.com", st)
	if node.Kind != book.KindEmpty {
		t.Errorf("expected noise-only line to become empty, got %s", node.Kind)
	}
	if st.DropCapPending {
		t.Error("expected noise-emptied line to clear pending drop cap")
	}
}

func TestClassify_NoiseStrippedFromParagraph(t *testing.T) {
	c := New(true)
	st := &State{}
	node := c.Classify("正文内容 https://example.com/x", st)
	if node.Kind != book.KindParagraph {
		t.Fatalf("expected paragraph, got %s", node.Kind)
	}
	if node.Text != "正文内容" {
		t.Errorf("expected noise stripped, got %q", node.Text)
	}
}
