package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/okvee/bookpress/internal/store"
)

// ProgressSink receives progress events for streaming to observers.
type ProgressSink interface {
	Publish(Progress)
}

// Worker runs the compiler for a single job and stores the result.
type Worker struct {
	compiler *Compiler
	store    *store.Store
	sink     ProgressSink
	log      *slog.Logger
}

func NewWorker(compiler *Compiler, st *store.Store, sink ProgressSink, log *slog.Logger) *Worker {
	return &Worker{
		compiler: compiler,
		store:    st,
		sink:     sink,
		log:      log,
	}
}

// Process runs the full compile pipeline for a job. The store's run lock
// guarantees at most one in-flight run per book; a conflicting job fails
// fast and the caller may retry once the holder finishes.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "book_id", job.BookID)

	if err := w.store.AcquireRun(ctx, job.BookID, job.ID); err != nil {
		if errors.Is(err, store.ErrRunInFlight) {
			log.Warn("compile already in flight", "book_id", job.BookID)
			job.AddError(err.Error())
			job.SetStatus(StatusConflict, "acquire")
			return
		}
		log.Error("run acquisition failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "acquire")
		return
	}
	defer func() {
		if err := w.store.ReleaseRun(context.WithoutCancel(ctx), job.BookID); err != nil {
			log.Error("run release failed", "error", err)
		}
	}()

	job.SetStatus(StatusCompiling, StageInitializing)
	doc, err := w.compiler.Compile(ctx, job.Request(), func(p Progress) {
		job.SetProgress(p.Percentage, p.Stage)
		if w.sink != nil {
			w.sink.Publish(p)
		}
	})
	if err != nil {
		var stageErr *StageError
		stage := StageChunks
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		log.Error("compile failed", "stage", stage, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, stage)
		return
	}

	job.SetTotalPages(doc.TotalPages)
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.SaveDocument(ctx, job.BookID, job.Filename, doc); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "storing")
		return
	}

	log.Info("compile complete", "total_pages", doc.TotalPages,
		"lines", len(doc.Lines), "footnotes", len(doc.Footnotes), "warnings", len(doc.Warnings))
	job.SetStatus(StatusCompleted, StageComplete)
}
