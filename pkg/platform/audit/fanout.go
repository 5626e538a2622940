package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// Fanout appends an entry to the store and then copies it to every sink.
// Sink failures are logged and do not fail the write.
type Fanout struct {
	Store  Store
	Sinks  []Sink
	Logger *slog.Logger
}

func (f *Fanout) Write(ctx context.Context, entry Entry) error {
	if err := f.Store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	for _, sink := range f.Sinks {
		if err := sink.Publish(ctx, entry); err != nil && f.Logger != nil {
			f.Logger.WarnContext(ctx, "audit sink publish failed",
				"error", err,
				"action", entry.Action,
				"target_type", entry.TargetType,
				"target_id", entry.TargetID,
			)
		}
	}
	return nil
}
