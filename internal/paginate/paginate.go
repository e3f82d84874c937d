// Package paginate partitions a classified line sequence into pages.
// Planning is a pure function of lines, metrics and the break-on-title
// flag: identical input and configuration reproduce identical page
// breaks, because downstream caches key on page counts.
package paginate

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/okvee/bookpress/internal/book"
)

// Metrics describes the layout the planner estimates against.
type Metrics struct {
	// LineHeight is the estimated rendered height of one wrapped text
	// line, in abstract layout units.
	LineHeight float64 `json:"lineHeight"`

	// PageHeight is the capacity of one page in the same units.
	PageHeight float64 `json:"pageHeight"`

	// LineWidth is the number of display cells available per wrapped
	// line; Eastern glyphs cost two cells.
	LineWidth int `json:"lineWidth"`

	TitlePageLabel string `json:"titlePageLabel"`
	EndPageLabel   string `json:"endPageLabel"`
}

// DefaultMetrics are the service defaults for an unstyled reader view.
func DefaultMetrics() Metrics {
	return Metrics{
		LineHeight:     1,
		PageHeight:     36,
		LineWidth:      72,
		TitlePageLabel: "Title Page",
		EndPageLabel:   "End",
	}
}

func (m Metrics) normalized() Metrics {
	if m.LineHeight <= 0 {
		m.LineHeight = 1
	}
	if m.PageHeight <= 0 {
		m.PageHeight = 36
	}
	if m.LineWidth <= 0 {
		m.LineWidth = 72
	}
	return m
}

// titleHeightFactor accounts for the larger face and spacing of a
// rendered section title.
const titleHeightFactor = 2

// Height estimates the rendered height of one node.
func Height(n book.LineNode, m Metrics) float64 {
	switch n.Kind {
	case book.KindEmpty:
		return m.LineHeight
	case book.KindTitle:
		return titleHeightFactor * m.LineHeight
	default:
		cells := runewidth.StringWidth(n.Text)
		wrapped := (cells + m.LineWidth - 1) / m.LineWidth
		if wrapped < 1 {
			wrapped = 1
		}
		return float64(wrapped) * m.LineHeight
	}
}

// Plan walks the full line sequence and returns the ordered page break
// list (line numbers starting each page) plus any recovered warnings.
// The sequence must be bracketed by the synthetic title-page node and
// end-page node; those always begin the first and last page.
//
// Break-on-title prefers closing a page exactly at the most recent title
// once a break is already due; a title alone never forces a break.
func Plan(lines []book.LineNode, m Metrics, breakOnTitle bool) ([]int, []book.Warning) {
	m = m.normalized()
	if len(lines) < 2 {
		return nil, nil
	}

	var warns []book.Warning
	breaks := []int{lines[0].LineNumber}

	// The title page always stands alone; content pages start at the
	// first real line.
	if len(lines) > 2 {
		breaks = append(breaks, lines[1].LineNumber)
	}

	acc := 0.0
	lastBreak := 1 // index into lines of the current page's first line
	lastTitle := -1

	for i := 1; i < len(lines)-1; i++ {
		if lines[i].Kind == book.KindTitle {
			lastTitle = i
		}

		h := Height(lines[i], m)
		if h > m.PageHeight {
			warns = append(warns, book.Warning{
				Kind:   book.WarnPaginationOverflow,
				Detail: fmt.Sprintf("line %d exceeds page capacity on its own", lines[i].LineNumber),
			})
		}

		if acc+h > m.PageHeight && acc > 0 {
			br := i
			if breakOnTitle && lastTitle > lastBreak {
				br = lastTitle
			}
			breaks = append(breaks, lines[br].LineNumber)
			lastBreak = br

			// Re-accumulate what moved onto the new page.
			acc = 0
			for j := br; j < i; j++ {
				acc += Height(lines[j], m)
			}
		}
		acc += h
	}

	breaks = append(breaks, lines[len(lines)-1].LineNumber)
	return breaks, warns
}
