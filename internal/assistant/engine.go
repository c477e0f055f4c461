// Package assistant ties classification, the clarification dialogue,
// dispatch and phrasing into the single entry point chat surfaces call.
package assistant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/compose"
	"github.com/ziadkadry99/deskmate/internal/dialogue"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// DefaultSweepInterval is how often stale dialogues are removed.
const DefaultSweepInterval = time.Minute

// Turn outcomes reported to the Recorder.
const (
	OutcomeDispatched    = "dispatched"
	OutcomeFailed        = "failed"
	OutcomeAborted       = "aborted"
	OutcomeClarification = "clarification"
	OutcomeCancelled     = "cancelled"
	OutcomeFallback      = "fallback"
	OutcomeUnknown       = "unknown"
)

// Reply is what a chat surface sends back.
type Reply struct {
	Text             string   `json:"text"`
	SuggestedReplies []string `json:"suggested_replies,omitempty"`
	// Silent replies must not be delivered.
	Silent  bool                   `json:"silent,omitempty"`
	Intent  intent.Tag             `json:"intent"`
	State   string                 `json:"state"`
	Outcome string                 `json:"outcome"`
	Result  *dispatch.ActionResult `json:"result,omitempty"`
}

// Journal stores finished dispatches.
type Journal interface {
	RecordDispatch(ctx context.Context, userID string, tag intent.Tag, res dispatch.ActionResult) error
}

// Recorder receives per-turn counters.
type Recorder interface {
	IntentClassified(tag string)
	ClarificationIssued(requirement string)
	Outcome(outcome string)
	PendingDialogues(n int)
}

// Engine handles messages for any number of users. Messages for one user
// are processed one at a time; different users never wait on each other.
type Engine struct {
	dialogue   *dialogue.Manager
	dispatcher *dispatch.Dispatcher
	composer   *compose.Composer
	journal    Journal
	recorder   Recorder
	logger     *zap.Logger
	sweepEvery time.Duration

	locks    keyedMutex
	inflight sync.Map // user id -> context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every dispatch.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithRecorder installs turn counters, typically metrics.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSweepInterval sets how often Run removes stale dialogues.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sweepEvery = d
		}
	}
}

// New returns an Engine.
func New(m *dialogue.Manager, d *dispatch.Dispatcher, c *compose.Composer, opts ...Option) *Engine {
	e := &Engine{
		dialogue:   m,
		dispatcher: d,
		composer:   c,
		logger:     zap.NewNop(),
		sweepEvery: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialogue returns the clarification manager.
func (e *Engine) Dialogue() *dialogue.Manager { return e.dialogue }

// HandleMessage processes one message from userID.
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) Reply {
	// A cancel word aborts a running call before waiting for the user's turn.
	if dialogue.IsCancel(text) && e.abort(userID) {
		unlock := e.locks.Lock(userID)
		defer unlock()
		e.drop(ctx, userID)
		return e.finish(Reply{Text: e.composer.Cancelled(), State: dialogue.Idle.String(), Outcome: OutcomeCancelled})
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	turn := e.dialogue.Handle(ctx, userID, text)
	if e.recorder != nil && !turn.Cancelled {
		e.recorder.IntentClassified(string(turn.Intent.Type))
	}

	r := Reply{Intent: turn.Intent.Type, State: turn.State.String()}
	switch {
	case turn.Cancelled:
		r.Text = e.composer.Cancelled()
		r.Outcome = OutcomeCancelled

	case turn.Fallback:
		r.Text = e.composer.Fallback(*turn.Prompt)
		r.SuggestedReplies = turn.Prompt.Options
		r.Outcome = OutcomeFallback

	case turn.State == dialogue.AwaitingResolution:
		r.Text = e.composer.Prompt(*turn.Prompt)
		r.SuggestedReplies = turn.Prompt.Options
		r.Outcome = OutcomeClarification
		if e.recorder != nil {
			e.recorder.ClarificationIssued(turn.Prompt.Requirement.String())
		}

	case turn.State == dialogue.Resolved:
		return e.finish(e.dispatch(ctx, userID, turn.Intent))

	default:
		r.Text = e.composer.Fallback(dialogue.Prompt{Question: "Try one of these:"})
		r.SuggestedReplies = e.dialogue.Machine().IntentOptions()
		r.Outcome = OutcomeUnknown
	}
	return e.finish(r)
}

// Interrupt aborts userID's running call when text is a cancel word and
// reports whether there was one. It does not wait for the user's turn, so
// surfaces that queue messages per user call it before queueing text.
func (e *Engine) Interrupt(userID, text string) bool {
	return dialogue.IsCancel(text) && e.abort(userID)
}

// CancelPending aborts any running call for userID and discards its
// pending intent. The running call's side effect may still happen; its
// result is never delivered.
func (e *Engine) CancelPending(ctx context.Context, userID string) error {
	e.abort(userID)
	unlock := e.locks.Lock(userID)
	defer unlock()
	return e.dialogue.Cancel(ctx, userID)
}

// Run sweeps stale dialogues until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep removes stale dialogues once.
func (e *Engine) Sweep(ctx context.Context) {
	n, err := e.dialogue.Sweep(ctx)
	if err != nil {
		e.logger.Warn("sweeping dialogues failed", zap.Error(err))
		return
	}
	if n > 0 {
		e.logger.Debug("swept stale dialogues", zap.Int("removed", n))
	}
	if e.recorder != nil {
		if open, err := e.dialogue.Store().Count(ctx); err == nil {
			e.recorder.PendingDialogues(open)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, userID string, in intent.Intent) Reply {
	callCtx, cancel := context.WithCancel(ctx)
	e.inflight.Store(userID, cancel)
	defer func() {
		e.inflight.Delete(userID)
		cancel()
	}()

	res := e.dispatcher.Dispatch(callCtx, in)
	r := Reply{Intent: in.Type, State: dialogue.Resolved.String(), Result: &res}

	if e.journal != nil {
		if err := e.journal.RecordDispatch(context.WithoutCancel(ctx), userID, in.Type, res); err != nil {
			e.logger.Warn("journaling dispatch failed", zap.String("user", userID), zap.Error(err))
		}
	}

	switch {
	case res.Cancelled():
		r.Silent = true
		r.Outcome = OutcomeAborted
	case res.Success:
		r.Text = e.composer.Result(res)
		r.Outcome = OutcomeDispatched
	default:
		r.Text = e.composer.Result(res)
		r.Outcome = OutcomeFailed
	}

	e.logger.Info("intent dispatched",
		zap.String("user", userID),
		zap.String("intent", string(in.Type)),
		zap.String("outcome", r.Outcome))
	return r
}

// abort cancels userID's running call and reports whether there was one.
func (e *Engine) abort(userID string) bool {
	v, ok := e.inflight.Load(userID)
	if !ok {
		return false
	}
	v.(context.CancelFunc)()
	return true
}

func (e *Engine) drop(ctx context.Context, userID string) {
	if err := e.dialogue.Cancel(ctx, userID); err != nil {
		e.logger.Warn("clearing pending intent failed", zap.String("user", userID), zap.Error(err))
	}
}

func (e *Engine) finish(r Reply) Reply {
	if e.recorder != nil {
		e.recorder.Outcome(r.Outcome)
	}
	return r
}
