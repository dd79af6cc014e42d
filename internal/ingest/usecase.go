package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// Submitter queues reminder text for extraction.
type Submitter interface {
	Submit(ctx context.Context, text string, mode constants.Mode) (uuid.UUID, error)
}

// Inbox turns files dropped into a watched directory into queued batches,
// one batch per file.
type Inbox struct {
	Ingestor  Ingestor
	Submitter Submitter
	Mode      constants.Mode
	logger    *slog.Logger
}

func NewInbox(ing Ingestor, sub Submitter, mode constants.Mode, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{Ingestor: ing, Submitter: sub, Mode: mode, logger: logger}
}

// Handle ingests one path and submits it unless it is empty or a duplicate.
// It returns uuid.Nil for skipped files.
func (b *Inbox) Handle(ctx context.Context, path string) (uuid.UUID, error) {
	r, err := b.Ingestor.IngestPath(ctx, path)
	if err != nil {
		return uuid.Nil, err
	}
	if r.Deduplicated || strings.TrimSpace(r.Text) == "" {
		return uuid.Nil, nil
	}
	id, err := b.Submitter.Submit(ctx, r.Text, b.Mode)
	if err != nil {
		return uuid.Nil, err
	}
	b.logger.Info("inbox.submitted", "file", r.Filename, "batch_id", id)
	return id, nil
}

// Run drains events until the channel closes or ctx is done. Per-file
// failures are logged and do not stop the loop.
func (b *Inbox) Run(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if _, err := b.Handle(ctx, path); err != nil {
				b.logger.Warn("inbox.file.failed", "path", path, "error", err)
			}
		}
	}
}
