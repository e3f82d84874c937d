package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okvee/bookpress/internal/book"
	"github.com/okvee/bookpress/internal/classify"
	"github.com/okvee/bookpress/internal/footnote"
	"github.com/okvee/bookpress/internal/metadata"
	"github.com/okvee/bookpress/internal/paginate"
	"github.com/okvee/bookpress/internal/source"
	"github.com/okvee/bookpress/internal/textenc"
)

// Stage labels reported with progress events.
const (
	StageInitializing = "initializing"
	StageDetecting    = "detecting_encoding"
	StageMetadata     = "metadata_processed"
	StageChunks       = "processing_chunks"
	StagePaginating   = "paginating"
	StageComplete     = "complete"
	StageErrored      = "error"
)

// Request is the input contract for one compile run.
type Request struct {
	Data     []byte
	Filename string
	BookID   string

	// Optional hints, e.g. from a retry that already detected them.
	HintEncoding string
	HintEastern  *bool

	BreakOnTitle bool
	Metrics      paginate.Metrics
}

// Progress is one event emitted to the progress sink. Percentage is
// monotonically increasing per run.
type Progress struct {
	BookID     string `json:"bookIdentifier"`
	Percentage int    `json:"percentage"`
	Stage      string `json:"stage"`
	Error      string `json:"error,omitempty"`
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Progress)

// StageError is a fatal compile failure carrying the failing stage. The
// caller decides whether to retry from the original bytes.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Compiler turns raw book bytes into a paginated document model. Input
// is processed in line chunks so progress lands incrementally and
// cancellation is honored between chunks; chunking is purely a
// throughput mechanism and never changes output versus a single-shot
// run over the same bytes.
type Compiler struct {
	// ChunkLines is how many decoded lines one chunk covers.
	ChunkLines int

	// ChunkTimeout is the wall-clock budget per chunk; exceeding it is
	// fatal for the run.
	ChunkTimeout time.Duration
}

func NewCompiler() *Compiler {
	return &Compiler{
		ChunkLines:   512,
		ChunkTimeout: 10 * time.Second,
	}
}

// Compile runs the full pipeline. Decode problems degrade to UTF-8 with
// a warning; chunk errors, timeouts and cancellation abort the run with
// the failing stage and publish no partial model.
func (c *Compiler) Compile(ctx context.Context, req Request, emit ProgressFunc) (*book.Document, error) {
	report := func(pct int, stage string) {
		if emit != nil {
			emit(Progress{BookID: req.BookID, Percentage: pct, Stage: stage})
		}
	}
	fail := func(stage string, err error) (*book.Document, error) {
		if emit != nil {
			emit(Progress{BookID: req.BookID, Percentage: 100, Stage: StageErrored, Error: err.Error()})
		}
		return nil, &StageError{Stage: stage, Err: err}
	}

	report(0, StageInitializing)

	// Decode.
	report(2, StageDetecting)
	text, enc, err := c.decode(req)
	if err != nil {
		return nil, err // decode never hard-fails today, but keep the seam
	}

	doc := &book.Document{
		Encoding:  enc.Encoding,
		IsEastern: enc.IsEastern,
	}
	if enc.Degraded {
		doc.Warnings = append(doc.Warnings, book.Warning{
			Kind:   book.WarnDecodeDegraded,
			Detail: "no candidate encoding decoded cleanly; fell back to utf-8",
		})
	}

	lines := splitLines(text)

	// Metadata and title-page offset.
	meta, offset := metadata.FromLines(lines, metadata.FromFilename(req.Filename))
	doc.BookMetadata = meta
	report(8, StageMetadata)

	titles := book.NewTitleIndex()
	linker := footnote.NewLinker()
	classifier := classify.New(enc.IsEastern)
	state := &classify.State{HeaderLines: offset}

	metrics := req.Metrics
	if metrics == (paginate.Metrics{}) {
		metrics = paginate.DefaultMetrics()
	}
	if metrics.TitlePageLabel == "" {
		metrics.TitlePageLabel = paginate.DefaultMetrics().TitlePageLabel
	}
	if metrics.EndPageLabel == "" {
		metrics.EndPageLabel = paginate.DefaultMetrics().EndPageLabel
	}

	// The synthetic title page is always page 0 and line 0.
	nodes := []book.LineNode{titlePageNode(meta, metrics, state)}
	titles.Add(book.TitleEntry{LineNumber: 0, Title: nodes[0].TitleText, Synthetic: true})

	// Chunked classification loop. State threads across chunk
	// boundaries so drop-cap/footnote/offset handling is continuous.
	chunkLines := c.ChunkLines
	if chunkLines <= 0 {
		chunkLines = 512
	}
	total := len(lines)
	for start := 0; start < total; start += chunkLines {
		if err := ctx.Err(); err != nil {
			return fail(StageChunks, err)
		}
		end := min(start+chunkLines, total)

		began := time.Now()
		err := processChunk(lines[start:end], classifier, state, linker, titles, &nodes)
		if err != nil {
			return fail(StageChunks, err)
		}
		if c.ChunkTimeout > 0 && time.Since(began) > c.ChunkTimeout {
			return fail(StageChunks, fmt.Errorf("chunk at line %d exceeded %s budget", start, c.ChunkTimeout))
		}

		report(8+int(84*float64(end)/float64(total)), StageChunks)
	}

	// The synthetic end page is always the last page.
	endNode := book.LineNode{
		LineNumber: state.NextLine,
		Kind:       book.KindTitle,
		Text:       metrics.EndPageLabel,
		TitleText:  metrics.EndPageLabel,
		Synthetic:  true,
	}
	state.NextLine++
	nodes = append(nodes, endNode)
	titles.Add(book.TitleEntry{LineNumber: endNode.LineNumber, Title: endNode.TitleText, Synthetic: true})

	report(94, StagePaginating)
	breaks, pageWarns := paginate.Plan(nodes, metrics, req.BreakOnTitle)

	doc.Lines = nodes
	doc.Titles = titles.Entries
	doc.TitlesByLine = titles.ByLine
	doc.Footnotes = linker.Entries()
	if doc.Footnotes == nil {
		doc.Footnotes = []book.FootnoteEntry{}
	}
	doc.PageBreaks = breaks
	doc.TotalPages = len(breaks)
	doc.Warnings = append(doc.Warnings, linker.UnresolvedWarnings()...)
	doc.Warnings = append(doc.Warnings, pageWarns...)
	doc.IsComplete = true

	report(100, StageComplete)
	return doc, nil
}

// processChunk classifies one chunk of lines. A panic during per-line
// transformation aborts the run; silently skipping a line would corrupt
// lineNumber stability.
func processChunk(lines []string, classifier *classify.Classifier, state *classify.State,
	linker *footnote.Linker, titles *book.TitleIndex, nodes *[]book.LineNode) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("line transformation panicked: %v", r)
		}
	}()

	for _, raw := range lines {
		// Definition lines leave no visible node and consume no line
		// number; they only complete a footnote entry.
		if state.HeaderLines == 0 && footnote.IsDefinition(raw) {
			linker.AddDefinition(raw)
			continue
		}

		node := classifier.Classify(raw, state)
		if node.Kind == book.KindParagraph {
			linker.LinkRefs(&node)
		}
		if node.Kind == book.KindTitle {
			titles.Add(book.TitleEntry{LineNumber: node.LineNumber, Title: node.TitleText})
		}
		*nodes = append(*nodes, node)
	}
	return nil
}

func (c *Compiler) decode(req Request) (string, textenc.Result, error) {
	hints := textenc.Hints{Encoding: req.HintEncoding, IsEastern: req.HintEastern}

	if !source.IsPlainText(req.Filename) {
		if ex, err := source.ForFile(req.Filename); err == nil {
			text, err := ex.Extract(req.Data)
			if err != nil {
				// Treat extractor failure like a decode failure:
				// degrade to the raw-bytes text path.
				res := textenc.Detect(req.Data, hints)
				res.Degraded = true
				text, _ := textenc.DecodeAll(req.Data, res.Encoding)
				return text, res, nil
			}
			res := textenc.Result{Encoding: textenc.UTF8}
			if req.HintEastern != nil {
				res.IsEastern = *req.HintEastern
			} else {
				res.IsEastern = textenc.ContainsEastern(text)
			}
			return text, res, nil
		}
		// Unknown extension: fall through to the plain-text path.
	}

	res := textenc.Detect(req.Data, hints)
	text, err := textenc.DecodeAll(req.Data, res.Encoding)
	if err != nil {
		// Decoder errors degrade rather than abort.
		res = textenc.Result{Encoding: textenc.UTF8, IsEastern: res.IsEastern, Degraded: true}
		text = string(req.Data)
	}
	return text, res, nil
}

func titlePageNode(meta book.Metadata, metrics paginate.Metrics, state *classify.State) book.LineNode {
	text := meta.BookName
	if meta.Author != "" {
		text += " / " + meta.Author
	}
	node := book.LineNode{
		LineNumber: state.NextLine,
		Kind:       book.KindTitle,
		Text:       text,
		TitleText:  metrics.TitlePageLabel,
		Synthetic:  true,
	}
	state.NextLine++
	return node
}

// splitLines splits decoded text on newlines, tolerating CRLF. A single
// trailing newline does not produce a trailing empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
