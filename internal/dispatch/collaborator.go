// Package dispatch turns resolved intents into calls on external action
// collaborators (mail, tasks, calendar, documents, notes) and normalizes
// every outcome into an ActionResult.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Collaborator names.
const (
	Mail         = "mail"
	Tasks        = "tasks"
	Documents    = "documents"
	Spreadsheets = "spreadsheets"
	Calendar     = "calendar"
	Notes        = "notes"
)

// Collaborators lists every collaborator the dispatcher may call.
var Collaborators = []string{Mail, Tasks, Documents, Spreadsheets, Calendar, Notes}

// Collaborator performs named operations on an external service.
type Collaborator interface {
	Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error)
}

// CollaboratorFunc adapts a function to the Collaborator interface.
type CollaboratorFunc func(ctx context.Context, operation string, params map[string]any) (map[string]any, error)

func (f CollaboratorFunc) Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	return f(ctx, operation, params)
}

var (
	// ErrTimeout is returned when a collaborator does not answer in time.
	ErrTimeout = errors.New("collaborator did not respond in time")
	// ErrNoCollaborator is returned when no collaborator is registered under a name.
	ErrNoCollaborator = errors.New("no collaborator configured")
)

// CollaboratorError is a failed collaborator call. Message is the text shown
// to the user.
type CollaboratorError struct {
	Collaborator string
	Operation    string
	Message      string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Collaborator, e.Operation, e.Message)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Registry maps collaborator names to implementations.
type Registry struct {
	mu    sync.RWMutex
	named map[string]Collaborator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{named: make(map[string]Collaborator)}
}

// Register installs c under name, replacing any previous entry.
func (r *Registry) Register(name string, c Collaborator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = c
}

// Get returns the collaborator registered under name.
func (r *Registry) Get(name string) (Collaborator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.named[name]
	return c, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.named))
	for n := range r.named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
