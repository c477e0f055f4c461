package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

// DefaultTimeout bounds every collaborator call.
const DefaultTimeout = 10 * time.Second

// ActionResult is the normalized outcome of a dispatch.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	// Call is the operation that produced the result, if one was planned.
	Call *Call `json:"call,omitempty"`
	// Err is the underlying failure; it is never serialized.
	Err error `json:"-"`
}

// Observer is notified after every collaborator call.
type Observer interface {
	ObserveDispatch(collaborator, operation string, success bool, elapsed time.Duration)
	DispatchStarted()
	DispatchFinished()
}

// Dispatcher invokes collaborators for resolved intents.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	observer Observer
	logger   *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithObserver installs a call observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(x *Dispatcher) { x.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(x *Dispatcher) { x.logger = l }
}

// NewDispatcher returns a Dispatcher calling collaborators from reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: reg, timeout: DefaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Timeout returns the per-call timeout.
func (d *Dispatcher) Timeout() time.Duration { return d.timeout }

// Dispatch calls the collaborator behind in. It never retries and never
// returns an error: failures come back as a result with Success false.
// A collaborator that ignores its context still yields a result once the
// timeout elapses.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) ActionResult {
	call, err := Plan(in)
	if err != nil {
		return ActionResult{Message: err.Error(), Err: err}
	}

	c, ok := d.registry.Get(call.Collaborator)
	if !ok {
		err := &CollaboratorError{
			Collaborator: call.Collaborator,
			Operation:    call.Operation,
			Message:      fmt.Sprintf("%s is not connected", call.Collaborator),
			Err:          ErrNoCollaborator,
		}
		return ActionResult{Message: err.Message, Call: &call, Err: err}
	}

	if d.observer != nil {
		d.observer.DispatchStarted()
		defer d.observer.DispatchFinished()
	}

	start := time.Now()
	data, err := d.invoke(ctx, c, call)
	elapsed := time.Since(start)
	if d.observer != nil {
		d.observer.ObserveDispatch(call.Collaborator, call.Operation, err == nil, elapsed)
	}

	if err != nil {
		ce := normalize(call, err)
		d.logger.Info("collaborator call failed",
			zap.String("collaborator", call.Collaborator),
			zap.String("operation", call.Operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return ActionResult{Message: ce.Message, Call: &call, Err: ce}
	}

	d.logger.Debug("collaborator call succeeded",
		zap.String("collaborator", call.Collaborator),
		zap.String("operation", call.Operation),
		zap.Duration("elapsed", elapsed))

	msg, _ := data["message"].(string)
	return ActionResult{Success: true, Message: msg, Data: data, Call: &call}
}

type invokeResult struct {
	data map[string]any
	err  error
}

func (d *Dispatcher) invoke(ctx context.Context, c Collaborator, call Call) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeResult{err: fmt.Errorf("collaborator panicked: %v", r)}
			}
		}()
		data, err := c.Invoke(ctx, call.Operation, call.Params)
		done <- invokeResult{data: data, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && ctx.Err() != nil {
			return nil, contextErr(ctx)
		}
		return res.data, res.err
	case <-ctx.Done():
		return nil, contextErr(ctx)
	}
}

func contextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

// normalize turns any collaborator failure into a CollaboratorError.
func normalize(call Call, err error) *CollaboratorError {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		if ce.Collaborator == "" {
			ce.Collaborator = call.Collaborator
		}
		if ce.Operation == "" {
			ce.Operation = call.Operation
		}
		if ce.Message == "" {
			ce.Message = errMessage(ce.Err)
		}
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrTimeout
	}
	return &CollaboratorError{
		Collaborator: call.Collaborator,
		Operation:    call.Operation,
		Message:      errMessage(err),
		Err:          err,
	}
}

func errMessage(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, ErrTimeout):
		return ErrTimeout.Error()
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

// Cancelled reports whether r came from a call aborted by its caller.
func (r ActionResult) Cancelled() bool {
	return r.Err != nil && errors.Is(r.Err, context.Canceled)
}

// TimedOut reports whether r came from a call that exceeded the timeout.
func (r ActionResult) TimedOut() bool {
	return r.Err != nil && errors.Is(r.Err, ErrTimeout)
}
