// Package dashboard serves a browser chat with the assistant plus a few
// read-only status endpoints.
package dashboard

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/assistant"
	"github.com/ziadkadry99/deskmate/internal/audit"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// Engine is the part of the assistant the chat socket drives.
type Engine interface {
	HandleMessage(ctx context.Context, userID, text string) assistant.Reply
	Interrupt(userID, text string) bool
	CancelPending(ctx context.Context, userID string) error
}

// PendingCounter reports how many users have an open dialogue.
type PendingCounter interface {
	Count(ctx context.Context) (int, error)
}

// Summarizer aggregates the action journal.
type Summarizer interface {
	Summarize(ctx context.Context) (audit.Summary, error)
}

// Dashboard provides the chat page and its JSON endpoints.
type Dashboard struct {
	engine    Engine
	registry  *intent.Registry
	pending   PendingCounter
	journal   Summarizer
	logger    *zap.Logger
	anyOrigin bool
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithPending reports open dialogues in the stats endpoint.
func WithPending(p PendingCounter) Option {
	return func(d *Dashboard) { d.pending = p }
}

// WithJournal reports journal totals in the stats endpoint.
func WithJournal(s Summarizer) Option {
	return func(d *Dashboard) { d.journal = s }
}

// WithAnyOrigin accepts chat sockets from pages on any origin. By default a
// socket whose Origin header differs from the request host is refused.
func WithAnyOrigin(allow bool) Option {
	return func(d *Dashboard) { d.anyOrigin = allow }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

// New creates a new Dashboard.
func New(engine Engine, registry *intent.Registry, opts ...Option) *Dashboard {
	if registry == nil {
		registry = intent.DefaultRegistry()
	}
	d := &Dashboard{engine: engine, registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/intents", d.handleIntents)
	r.Get("/ws/chat", d.handleWebSocket)
}
