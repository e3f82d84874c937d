package footnote

import (
	"testing"

	"github.com/okvee/bookpress/internal/book"
)

func TestIsDefinition(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"①这是注释内容", true},
		{"  ②注释带前导空白", true},
		{"正文①后面还有", false},
		{"①", false}, // bare marker, no body
		{"plain text", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsDefinition(c.line); got != c.want {
			t.Errorf("IsDefinition(%q): expected %v, got %v", c.line, c.want, got)
		}
	}
}

func TestAddDefinition_OrdinalsFollowArrivalOrder(t *testing.T) {
	l := NewLinker()
	first := l.AddDefinition("①这是注释内容")
	second := l.AddDefinition("②第二条注释")

	if first.Ordinal != 0 || first.Body != "这是注释内容" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if second.Ordinal != 1 || second.Body != "第二条注释" {
		t.Errorf("unexpected second entry: %+v", second)
	}
	if len(l.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(l.Entries()))
	}
}

func TestLinkRefs_ReplacesMarkersInEncounterOrder(t *testing.T) {
	l := NewLinker()
	node := book.LineNode{LineNumber: 3, Kind: book.KindParagraph, Text: "前①中②后"}
	l.LinkRefs(&node)

	if node.Text != "前[^0]中[^1]后" {
		t.Errorf("unexpected linked text: %q", node.Text)
	}
	if len(node.Anchors) != 2 || node.Anchors[0] != 0 || node.Anchors[1] != 1 {
		t.Errorf("unexpected anchors: %v", node.Anchors)
	}
}

func TestLinkRefs_CountsContinueAcrossLines(t *testing.T) {
	l := NewLinker()
	a := book.LineNode{LineNumber: 0, Text: "句子①结束"}
	b := book.LineNode{LineNumber: 1, Text: "另一句②也有注①"}
	l.LinkRefs(&a)
	l.LinkRefs(&b)

	// Ordinals count occurrences, not glyph values.
	if b.Text != "另一句[^1]也有注[^2]" {
		t.Errorf("unexpected second line text: %q", b.Text)
	}
}

func TestLinkRefs_NoMarkersLeavesTextAlone(t *testing.T) {
	l := NewLinker()
	node := book.LineNode{Text: "plain paragraph"}
	l.LinkRefs(&node)
	if node.Text != "plain paragraph" || node.Anchors != nil {
		t.Errorf("expected untouched node, got %+v", node)
	}
}

func TestResolvedAccounting(t *testing.T) {
	l := NewLinker()
	a := book.LineNode{LineNumber: 0, Text: "正文①更多②结尾"}
	l.LinkRefs(&a)
	l.AddDefinition("①只有第一条有定义")

	if got := l.ResolvedCount(); got != 1 {
		t.Errorf("expected 1 resolved reference, got %d", got)
	}

	warns := l.UnresolvedWarnings()
	if len(warns) != 1 {
		t.Fatalf("expected 1 unresolved warning, got %d", len(warns))
	}
	if warns[0].Kind != book.WarnUnresolvedFootnote {
		t.Errorf("unexpected warning kind: %s", warns[0].Kind)
	}
}

func TestResolvedAccounting_AllResolved(t *testing.T) {
	l := NewLinker()
	a := book.LineNode{Text: "正文①"}
	l.LinkRefs(&a)
	l.AddDefinition("①定义")

	if got := l.ResolvedCount(); got != 1 {
		t.Errorf("expected 1 resolved, got %d", got)
	}
	if warns := l.UnresolvedWarnings(); len(warns) != 0 {
		t.Errorf("expected no warnings, got %v", warns)
	}
}
