package dialogue

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

// DefaultIdleTimeout is how long a pending intent waits for an answer.
const DefaultIdleTimeout = 15 * time.Minute

// Turn is the Clarification Manager's verdict on one message.
type Turn struct {
	State  State
	Intent intent.Intent
	Prompt *Prompt
	// Cancelled is set when the user backed out of a pending intent.
	Cancelled bool
	// Fallback is set when the dialogue was abandoned and the message
	// itself did not name anything actionable.
	Fallback bool
	// Expired is set when a stale pending intent was discarded first.
	Expired bool
}

// Manager runs the clarification dialogue for every user against a Store.
// Callers must serialize calls for the same user id.
type Manager struct {
	store      Store
	classifier *intent.Classifier
	machine    *Machine
	ttl        time.Duration
	logger     *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout sets how long a pending intent may go unanswered.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a Manager.
func NewManager(store Store, c *intent.Classifier, policy Policy, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		classifier: c,
		machine:    NewMachine(c, policy),
		ttl:        DefaultIdleTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Machine returns the underlying state machine.
func (m *Manager) Machine() *Machine { return m.machine }

// Store returns the dialogue store.
func (m *Manager) Store() Store { return m.store }

// IdleTimeout returns the configured idle timeout.
func (m *Manager) IdleTimeout() time.Duration { return m.ttl }

// Handle processes one message. A pending intent is consulted first; a
// resolved intent has already been removed from the store when Handle
// returns, so repeating the answer classifies it from scratch.
func (m *Manager) Handle(ctx context.Context, userID, text string) Turn {
	now := m.classifier.Now()

	p, err := m.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return m.fresh(ctx, userID, text, now)
	case err != nil:
		m.logger.Warn("reading pending intent failed; classifying statelessly",
			zap.String("user", userID), zap.Error(err))
		return m.fresh(ctx, userID, text, now)
	case p.Expired(now, m.ttl):
		m.drop(ctx, userID)
		t := m.fresh(ctx, userID, text, now)
		t.Expired = true
		return t
	}

	out := m.machine.Answer(p, text, now)
	switch {
	case out.GiveUp:
		m.drop(ctx, userID)
		fresh := m.classifier.Classify(text, userID)
		if fresh.Type.Actionable() {
			return m.apply(ctx, userID, m.machine.Start(userID, fresh, now), false)
		}
		prompt := m.machine.prompt(fresh, Requirement{Kind: NeedIntent}, false)
		return Turn{State: Idle, Intent: fresh, Prompt: &prompt, Fallback: true}
	default:
		return m.apply(ctx, userID, out, true)
	}
}

// Cancel discards any pending intent for userID.
func (m *Manager) Cancel(ctx context.Context, userID string) error {
	return m.store.Delete(ctx, userID)
}

// Sweep removes pending intents idle for longer than the timeout.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.Sweep(ctx, m.classifier.Now().Add(-m.ttl))
}

// fresh classifies text for a user with nothing pending. A bare cancel
// reply has nothing to cancel and is not classified.
func (m *Manager) fresh(ctx context.Context, userID, text string, now time.Time) Turn {
	if IsCancel(text) {
		return Turn{State: Idle, Intent: intent.UnknownIntent(), Cancelled: true}
	}
	in := m.classifier.Classify(text, userID)
	return m.apply(ctx, userID, m.machine.Start(userID, in, now), false)
}

// apply persists the outcome of a transition and converts it to a Turn.
// Any outcome other than AwaitingResolution leaves nothing stored.
func (m *Manager) apply(ctx context.Context, userID string, out Outcome, hadPending bool) Turn {
	t := Turn{State: out.State, Intent: out.Intent, Prompt: out.Prompt, Cancelled: out.Cancelled}

	if out.State == AwaitingResolution && out.Pending != nil {
		if err := m.store.Put(ctx, *out.Pending); err != nil {
			m.logger.Warn("storing pending intent failed",
				zap.String("user", userID), zap.Error(err))
		}
		return t
	}
	if hadPending {
		m.drop(ctx, userID)
	}
	return t
}

func (m *Manager) drop(ctx context.Context, userID string) {
	if err := m.store.Delete(ctx, userID); err != nil {
		m.logger.Warn("deleting pending intent failed", zap.String("user", userID), zap.Error(err))
	}
}
