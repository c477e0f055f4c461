package intent

import (
	"strings"
	"time"
)

// SlotDefaulter may override default slot values for a user before an
// intent's resolution is evaluated, e.g. a learner replaying past
// corrections. It mutates params in place.
type SlotDefaulter interface {
	DefaultSlots(userID string, tag Tag, params Params)
}

// Classifier maps text to an Intent using a Registry.
type Classifier struct {
	registry  *Registry
	now       func() time.Time
	defaulter SlotDefaulter
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock sets the clock relative times are resolved against.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// WithSlotDefaulter installs a slot-default hook.
func WithSlotDefaulter(d SlotDefaulter) Option {
	return func(c *Classifier) { c.defaulter = d }
}

// NewClassifier returns a Classifier over reg. A nil reg uses DefaultRegistry.
func NewClassifier(reg *Registry, opts ...Option) *Classifier {
	if reg == nil {
		reg = DefaultRegistry()
	}
	c := &Classifier{registry: reg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the table the classifier evaluates.
func (c *Classifier) Registry() *Registry { return c.registry }

// Now returns the classifier's current time.
func (c *Classifier) Now() time.Time { return c.now() }

// Classify returns the intent of text. The result depends only on text, the
// registry and the clock; dialogue state is never consulted.
func (c *Classifier) Classify(text, userID string) Intent {
	text = strings.TrimSpace(text)
	def, ok := c.registry.Match(text)
	if !ok {
		return UnknownIntent()
	}
	in := Intent{
		Type:       def.Tag,
		Confidence: def.Confidence,
		Params:     def.BuildParams(text, c.now()),
	}
	if c.defaulter != nil && def.Tag.Actionable() {
		c.defaulter.DefaultSlots(userID, def.Tag, in.Params)
	}
	c.Evaluate(&in)
	return in
}

// Evaluate recomputes NeedsConfirmation after params change.
func (c *Classifier) Evaluate(in *Intent) {
	if !in.Type.Actionable() {
		in.NeedsConfirmation = in.Type == ClarificationNeeded
		return
	}
	def, ok := c.registry.Lookup(in.Type)
	if !ok {
		in.NeedsConfirmation = true
		return
	}
	in.NeedsConfirmation = len(def.Unmet(in.Params)) > 0
}
