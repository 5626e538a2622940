package worker

import (
	"context"
	"log/slog"
	"time"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/buffered"
)

// Worker drains buffered audit entries into the store and sinks on a fixed
// interval. On shutdown it flushes whatever is left.
type Worker struct {
	buffer    *buffered.RingBuffer
	out       *audit.Fanout
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(buffer *buffered.RingBuffer, out *audit.Fanout, opts ...Option) *Worker {
	w := &Worker{
		buffer:    buffer,
		out:       out,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, then performs a final flush with a
// fresh context so the last batch is not lost to the cancellation.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			w.Flush(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush writes every buffered entry. Entries that fail to persist are logged
// and dropped; the audit trail is best-effort.
func (w *Worker) Flush(ctx context.Context) int {
	written := 0
	for {
		batch := w.buffer.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return written
		}
		for _, entry := range batch {
			if err := w.out.Write(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit entry",
					"error", err,
					"action", entry.Action,
					"target_type", entry.TargetType,
					"target_id", entry.TargetID,
				)
				continue
			}
			written++
		}
	}
}
