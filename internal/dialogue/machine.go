package dialogue

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/deskmate/internal/extract"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// State is a user's position in the clarification dialogue.
type State int

const (
	Idle State = iota
	AwaitingResolution
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResolution:
		return "awaiting_resolution"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Policy holds the tunable resolution constants.
type Policy struct {
	// AcceptThreshold is the minimum confidence dispatched without asking.
	AcceptThreshold float64
	// MaxReprompts is how many times an unhelpful answer is re-asked
	// before the dialogue is abandoned.
	MaxReprompts int
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{AcceptThreshold: 0.75, MaxReprompts: 1}
}

// Outcome is the result of one transition.
type Outcome struct {
	State  State
	Intent intent.Intent
	// Prompt is set when State is AwaitingResolution.
	Prompt *Prompt
	// Pending is the record to store when State is AwaitingResolution.
	Pending *PendingIntent
	// Cancelled is set when the user backed out.
	Cancelled bool
	// GiveUp is set when answers failed more than MaxReprompts times; the
	// pending intent must be dropped and the message treated as fresh input.
	GiveUp bool
}

// Machine holds the clarification transitions. It keeps no per-user state:
// callers pass the pending intent in and persist what comes out.
type Machine struct {
	classifier *intent.Classifier
	policy     Policy
}

// NewMachine returns a Machine resolving intents from c under policy.
func NewMachine(c *intent.Classifier, policy Policy) *Machine {
	return &Machine{classifier: c, policy: policy}
}

// Policy returns the machine's policy.
func (m *Machine) Policy() Policy { return m.policy }

// Resolved reports whether in can be dispatched without asking.
func (m *Machine) Resolved(in intent.Intent) bool {
	return in.Type.Actionable() && !in.NeedsConfirmation && in.Confidence >= m.policy.AcceptThreshold
}

// Start handles a freshly classified intent from an Idle user.
func (m *Machine) Start(userID string, in intent.Intent, now time.Time) Outcome {
	if in.Type == intent.Unknown {
		return Outcome{State: Idle, Intent: in}
	}
	if m.Resolved(in) {
		return Outcome{State: Resolved, Intent: in}
	}
	req := m.requirement(in)
	prompt := m.prompt(in, req, false)
	return Outcome{
		State:  AwaitingResolution,
		Intent: in,
		Prompt: &prompt,
		Pending: &PendingIntent{
			ID:              uuid.New().String(),
			UserID:          userID,
			Intent:          in,
			CreatedAt:       now,
			UpdatedAt:       now,
			PromptedOptions: prompt.Options,
			Awaiting:        req,
		},
	}
}

// Answer handles a message from a user with a pending intent. The message
// is applied to the awaited requirement only.
func (m *Machine) Answer(p PendingIntent, text string, now time.Time) Outcome {
	if IsCancel(text) {
		return Outcome{State: Idle, Intent: p.Intent, Cancelled: true}
	}

	in, ok := m.apply(p, text, now)
	if !ok {
		return m.await(p, p.Intent, p.Awaiting, p.Attempts+1, now)
	}

	m.classifier.Evaluate(&in)
	if m.Resolved(in) {
		return Outcome{State: Resolved, Intent: in}
	}
	req := m.requirement(in)
	attempts := 0
	if req == p.Awaiting {
		attempts = p.Attempts + 1
	}
	return m.await(p, in, req, attempts, now)
}

func (m *Machine) await(p PendingIntent, in intent.Intent, req Requirement, attempts int, now time.Time) Outcome {
	if attempts > m.policy.MaxReprompts {
		return Outcome{State: Idle, Intent: in, GiveUp: true}
	}
	prompt := m.prompt(in, req, attempts > 0)
	next := p
	next.Intent = in
	next.Awaiting = req
	next.Attempts = attempts
	next.PromptedOptions = prompt.Options
	next.UpdatedAt = now
	return Outcome{State: AwaitingResolution, Intent: in, Prompt: &prompt, Pending: &next}
}

// requirement returns the first thing in still needs.
func (m *Machine) requirement(in intent.Intent) Requirement {
	if !in.Type.Actionable() {
		return Requirement{Kind: NeedIntent}
	}
	if def, ok := m.classifier.Registry().Lookup(in.Type); ok {
		if unmet := def.Unmet(in.Params); len(unmet) > 0 {
			s := unmet[0]
			if s.Kind == intent.SlotTime && in.Params.Has(s.Name) {
				return Requirement{Kind: NeedTime, Slot: s.Name}
			}
			return Requirement{Kind: NeedSlot, Slot: s.Name}
		}
	}
	return Requirement{Kind: NeedConfirm}
}

// apply merges an answer into a copy of the pending intent. It reports
// false when the answer says nothing about the awaited requirement.
func (m *Machine) apply(p PendingIntent, text string, now time.Time) (intent.Intent, bool) {
	in := p.Intent
	in.Params = in.Params.Clone()

	answer := strings.TrimSpace(text)
	if opt, ok := pickOption(p.PromptedOptions, answer); ok {
		answer = opt
	}

	switch p.Awaiting.Kind {
	case NeedIntent:
		fresh := m.classifier.Classify(answer, p.UserID)
		if !fresh.Type.Actionable() {
			return in, false
		}
		return fresh, true

	case NeedConfirm:
		if !IsAffirmative(answer) {
			return in, false
		}
		in.Confidence = 1
		return in, true

	case NeedTime:
		slot := p.Awaiting.Slot
		prev, _ := in.Params.Time(slot)
		if extract.HasTime(answer) {
			t, ok := extract.RefineClock(prev, answer, now)
			if !ok {
				return in, false
			}
			in.Params[slot] = t
			return in, true
		}
		if IsAffirmative(answer) {
			prev.Confirmed = true
			in.Params[slot] = prev
			return in, true
		}
		return in, false

	case NeedSlot:
		def, ok := m.classifier.Registry().Lookup(in.Type)
		if !ok {
			return in, false
		}
		spec, ok := def.Slot(p.Awaiting.Slot)
		if !ok {
			return in, false
		}
		switch spec.Kind {
		case intent.SlotText:
			v, ok := extract.Content(answer, answerFillers)
			if !ok {
				return in, false
			}
			in.Params[spec.Name] = v
		case intent.SlotNumber:
			n, ok := extract.Number(answer)
			if !ok {
				return in, false
			}
			in.Params[spec.Name] = spec.Clamp(n)
			if ns, ok := extract.Numbers(answer); ok {
				for _, s := range def.Slots {
					if s.Kind == intent.SlotNumbers {
						in.Params[s.Name] = ns
					}
				}
			}
		case intent.SlotTime:
			tm := extract.Time(answer, now)
			if !tm.Found {
				return in, false
			}
			in.Params[spec.Name] = tm.Expr
		default:
			return in, false
		}
		return in, true
	}
	return in, false
}
