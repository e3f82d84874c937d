package source

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor flattens Markdown using goldmark. Headings become
// standalone lines followed by a blank line so they read as section
// boundaries in the plain-text stream.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var out strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			writeBlock(&out, string(node.Text(data)))
		default:
			if t := blockText(n, data); t != "" {
				writeBlock(&out, t)
			}
		}
	}
	return out.String(), nil
}

func writeBlock(out *strings.Builder, block string) {
	if out.Len() > 0 {
		out.WriteString("\n")
	}
	out.WriteString(block)
	out.WriteString("\n")
}

// blockText gets the text content of a goldmark AST node. Inline
// children carry the stripped text; blocks without inline children
// (fenced code, HTML blocks) fall back to their raw source lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	inlineText(&buf, n, src)
	if buf.Len() == 0 && n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func inlineText(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			inlineText(buf, c, src)
		}
	}
}
