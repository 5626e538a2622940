// Package publisher emits audit entries enriched with request metadata.
//
// In synchronous mode each entry is appended to the store and copied to the
// sinks before Emit returns. With WithBuffer, Emit only enqueues and a
// worker.Worker drains the buffer in the background.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/buffered"
	"docverify/pkg/requestcontext"
)

type Publisher struct {
	fanout *audit.Fanout
	buffer *buffered.RingBuffer
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSink adds a fan-out destination such as the Kafka sink.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.fanout.Sinks = append(p.fanout.Sinks, sink)
		}
	}
}

// WithBuffer switches Emit to enqueue-only.
func WithBuffer(buf *buffered.RingBuffer) Option {
	return func(p *Publisher) {
		p.buffer = buf
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{fanout: &audit.Fanout{Store: store}}
	for _, opt := range opts {
		opt(p)
	}
	p.fanout.Logger = p.logger
	return p
}

// Fanout exposes the store-plus-sinks writer so a worker can drain into it.
func (p *Publisher) Fanout() *audit.Fanout {
	return p.fanout
}

// Emit records one entry. Callers treat failures as best-effort.
func (p *Publisher) Emit(ctx context.Context, entry audit.Entry) error {
	if !entry.Action.IsValid() {
		return fmt.Errorf("audit entry has unknown action %q", entry.Action)
	}
	entry = Enrich(ctx, entry)

	if p.buffer != nil {
		p.buffer.Enqueue(entry)
		return nil
	}
	return p.fanout.Write(ctx, entry)
}

// List reads back entries from the underlying store.
func (p *Publisher) List(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	return p.fanout.Store.List(ctx, q)
}

// Enrich fills the fields that come from the request rather than the caller.
func Enrich(ctx context.Context, entry audit.Entry) audit.Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	if entry.Client == "" && entry.UserAgent != "" {
		entry.Client = ClientSummary(entry.UserAgent)
	}
	return entry
}

// ClientSummary renders a user agent as "Browser Version on OS".
func ClientSummary(raw string) string {
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return strings.TrimSpace("bot " + name)
	}
	name, version := ua.Browser()
	summary := strings.TrimSpace(name + " " + version)
	if osName := ua.OS(); osName != "" {
		if summary == "" {
			return osName
		}
		summary += " on " + osName
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
