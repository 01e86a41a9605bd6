package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autotag/features/job"
	"autotag/internal/adapter/metadata"
	"autotag/internal/config"
	"autotag/internal/extract"
	"autotag/internal/middleware"
	"autotag/internal/storage"
	"autotag/internal/tagging"
	"autotag/internal/text"
)

type Config struct {
	Interval        time.Duration
	DescribeModel   string
	TagModel        string
	DescribePrompt  string
	MaxContentChars int
}

// Summary counts what one cycle did.
type Summary struct {
	Files       int
	Tagged      int
	Unsupported int
	Failed      int
}

type Worker struct {
	cfg       Config
	meta      MetadataBackend
	store     storage.Store
	inference Inference
	journal   Journal
	publisher EventPublisher
}

// New builds a tagging worker. journal and publisher may be nil.
func New(cfg Config, meta MetadataBackend, store storage.Store, inf Inference, journal Journal, pub EventPublisher) *Worker {
	if cfg.DescribePrompt == "" {
		cfg.DescribePrompt = tagging.DescribePrompt
	}
	return &Worker{
		cfg:       cfg,
		meta:      meta,
		store:     store,
		inference: inf,
		journal:   journal,
		publisher: pub,
	}
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled. It always returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "tagging worker started", "interval", w.cfg.Interval.String())

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunCycle(ctx); err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "tagging cycle aborted", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "tagging worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle tags every file the metadata backend reports as untagged.
// Failing to list tags or files aborts the cycle; per-file failures do not.
func (w *Worker) RunCycle(ctx context.Context) (Summary, error) {
	ctx = middleware.WithCorrelationID(ctx, middleware.NewCorrelationID())
	var sum Summary

	vocabulary, err := w.meta.ListTags(ctx)
	if err != nil {
		return sum, fmt.Errorf("list tags: %w", err)
	}

	files, err := w.meta.ListUntagged(ctx)
	if err != nil {
		return sum, fmt.Errorf("list untagged files: %w", err)
	}
	if len(files) == 0 {
		slog.DebugContext(ctx, "no untagged files")
		return sum, nil
	}

	slog.InfoContext(ctx, "tagging cycle started", "files", len(files), "vocabulary", len(vocabulary))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Files++
		switch w.tagFile(ctx, vocabulary, f) {
		case OutcomeOk:
			sum.Tagged++
		case OutcomeUnsupported:
			sum.Unsupported++
		default:
			sum.Failed++
		}
	}

	slog.InfoContext(ctx, "tagging cycle finished",
		"files", sum.Files, "tagged", sum.Tagged, "unsupported", sum.Unsupported, "failed", sum.Failed)
	return sum, nil
}

func (w *Worker) tagFile(ctx context.Context, vocabulary []string, f metadata.FileRecord) Outcome {
	filename, res := w.prepare(ctx, f)

	var tags []string
	switch res.Outcome {
	case OutcomeUnsupported:
		slog.InfoContext(ctx, "unsupported file type", "hash", f.Hash, "filename", filename)
		tags = []string{}
	case OutcomeFailed:
		w.fail(ctx, f, filename, res)
		return OutcomeFailed
	default:
		resp, err := w.inference.Complete(ctx, w.cfg.TagModel, tagging.BuildPrompt(vocabulary, res.Text))
		if err != nil {
			w.fail(ctx, f, filename, Failed(job.StageTag, err))
			return OutcomeFailed
		}
		tags = tagging.Parse(resp)
	}

	if err := w.meta.SetHashTags(ctx, f.Hash, tags); err != nil {
		w.fail(ctx, f, filename, Failed(job.StageReport, err))
		return OutcomeFailed
	}

	slog.InfoContext(ctx, "file tagged", "hash", f.Hash, "filename", filename, "outcome", res.Outcome.String(), "tags", tags)
	w.resolve(ctx, f, filename, tags)
	return res.Outcome
}

// prepare loads the sidecar and content for f and turns it into prompt text.
func (w *Worker) prepare(ctx context.Context, f metadata.FileRecord) (string, Result) {
	info, err := w.store.ReadInfo(ctx, f.Path)
	if err != nil {
		return "", Failed(job.StageMetadata, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err))
	}
	filename := info.Filename()
	slog.DebugContext(ctx, "file metadata loaded", "hash", f.Hash, "filename", filename, "filetype", info.FileType(), "size", info.Size)

	kind := extract.KindOf(filename)
	if kind == extract.KindUnsupported {
		return filename, Unsupported()
	}

	data, err := w.store.ReadFile(ctx, f.Path)
	if err != nil {
		return filename, Failed(job.StageRead, err)
	}

	var content string
	if kind == extract.KindImage {
		content, err = w.inference.Describe(ctx, w.cfg.DescribeModel, w.cfg.DescribePrompt, extract.ImageFormat(filename), data)
		if err != nil {
			return filename, Failed(job.StageDescribe, err)
		}
	} else {
		content, err = extract.Text(kind, data)
		if errors.Is(err, extract.ErrUnsupported) {
			return filename, Unsupported()
		}
		if err != nil {
			return filename, Failed(job.StageExtract, err)
		}
	}

	content = text.Truncate(text.CleanExtracted(content), w.cfg.MaxContentChars)
	return filename, Ok(content)
}

func (w *Worker) fail(ctx context.Context, f metadata.FileRecord, filename string, res Result) {
	slog.ErrorContext(ctx, "failed to tag file",
		"hash", f.Hash, "path", f.Path, "filename", filename, "stage", res.Stage, "error", res.Err)

	if w.journal == nil || ctx.Err() != nil {
		return
	}
	failure := &job.Failure{
		Hash:     f.Hash,
		Path:     f.Path,
		Filename: filename,
		Stage:    res.Stage,
		Error:    res.Err.Error(),
	}
	if err := w.journal.Record(ctx, failure); err != nil {
		slog.WarnContext(ctx, "failed to journal tagging failure", "hash", f.Hash, "error", err)
	}
}

// resolve clears the journal row for a reported file and announces it.
func (w *Worker) resolve(ctx context.Context, f metadata.FileRecord, filename string, tags []string) {
	if w.journal != nil {
		if err := w.journal.DeleteByHash(ctx, f.Hash); err != nil {
			slog.WarnContext(ctx, "failed to clear tagging failure", "hash", f.Hash, "error", err)
		}
	}

	if w.publisher == nil {
		return
	}
	event := FileTaggedEvent{
		Hash:          f.Hash,
		Path:          f.Path,
		Filename:      filename,
		Tags:          tags,
		TaggedAt:      time.Now().UTC(),
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	body, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal file tagged event", "error", err)
		return
	}
	if err := w.publisher.Publish(config.TopicFileTagged, body); err != nil {
		slog.WarnContext(ctx, "failed to publish file tagged event", "hash", f.Hash, "error", err)
	}
}
