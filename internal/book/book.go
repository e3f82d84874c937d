package book

// Kind classifies a line of the compiled book.
type Kind string

const (
	KindTitle     Kind = "title"
	KindParagraph Kind = "paragraph"
	KindEmpty     Kind = "empty"
	KindRawHeader Kind = "raw_header"
)

// LineNode is one classified unit of input text with a stable identifier.
// LineNumber is assigned once at classification time and never renumbered.
type LineNode struct {
	LineNumber int    `json:"lineNumber"`
	Kind       Kind   `json:"kind"`
	Text       string `json:"renderedText"`
	TitleText  string `json:"titleText,omitempty"`

	// First marks the paragraph that opens a section; DropCapLen is the
	// rune length of its drop-cap span (leading punctuation run plus one
	// character). Western-language documents only.
	First      bool `json:"first,omitempty"`
	DropCapLen int  `json:"dropCapLen,omitempty"`

	// Anchors lists footnote ordinals referenced from this line, in
	// encounter order.
	Anchors []int `json:"anchors,omitempty"`

	// Synthetic marks the generated title and end pages.
	Synthetic bool `json:"synthetic,omitempty"`
}

// TitleEntry is a navigation target collected in arrival order.
type TitleEntry struct {
	LineNumber int    `json:"lineNumber"`
	Title      string `json:"text"`
	Synthetic  bool   `json:"isSynthetic,omitempty"`
}

// TitleIndex holds titles in arrival order with lookup by line number
// and by name.
type TitleIndex struct {
	Entries []TitleEntry
	ByLine  map[int]TitleEntry
	ByName  map[string]int
}

func NewTitleIndex() *TitleIndex {
	return &TitleIndex{
		ByLine: make(map[int]TitleEntry),
		ByName: make(map[string]int),
	}
}

// Add records a title entry. The first entry for a given name wins the
// name lookup; line-number lookup is unique by construction.
func (ix *TitleIndex) Add(e TitleEntry) {
	ix.Entries = append(ix.Entries, e)
	ix.ByLine[e.LineNumber] = e
	if _, ok := ix.ByName[e.Title]; !ok {
		ix.ByName[e.Title] = e.LineNumber
	}
}

// FootnoteEntry is a footnote body. Ordinal is assigned in order of first
// marker occurrence in the main text, not body-line position.
type FootnoteEntry struct {
	Ordinal int    `json:"ordinal"`
	Body    string `json:"bodyText"`
}

// Metadata identifies the book. Derived once per run; immutable afterward.
type Metadata struct {
	BookName string `json:"bookName"`
	Author   string `json:"author"`
}

// WarningKind tags recovered, non-fatal conditions attached to the model.
type WarningKind string

const (
	WarnDecodeDegraded     WarningKind = "decode_degraded"
	WarnUnresolvedFootnote WarningKind = "unresolved_footnote"
	WarnPaginationOverflow WarningKind = "pagination_overflow"
)

// Warning is a recovered error carried on the final document.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

// Document is the compiled model consumed by the persistence store and
// the UI renderer.
type Document struct {
	Encoding     string             `json:"encoding"`
	IsEastern    bool               `json:"isEasternLanguage"`
	BookMetadata Metadata           `json:"bookMetadata"`
	Lines        []LineNode         `json:"lines"`
	Titles       []TitleEntry       `json:"titles"`
	TitlesByLine map[int]TitleEntry `json:"titlesByLineNumber"`
	Footnotes    []FootnoteEntry    `json:"footnotes"`
	PageBreaks   []int              `json:"pageBreaks"`
	TotalPages   int                `json:"totalPages"`
	IsComplete   bool               `json:"isComplete"`
	Warnings     []Warning          `json:"warnings,omitempty"`
}
