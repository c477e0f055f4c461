// Package dialogue holds per-user pending intents and the clarification state
// machine that decides when an intent is ready to dispatch.
package dialogue

import (
	"time"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

// RequirementKind is what a clarification prompt is waiting for.
type RequirementKind string

const (
	// NeedSlot waits for a missing required slot.
	NeedSlot RequirementKind = "slot"
	// NeedTime waits for a time of day, or acceptance of a default.
	NeedTime RequirementKind = "time"
	// NeedIntent waits for the user to pick what they meant.
	NeedIntent RequirementKind = "intent"
	// NeedConfirm waits for a yes/no on a low-confidence intent.
	NeedConfirm RequirementKind = "confirm"
)

// Requirement is the single thing a pending intent is missing.
type Requirement struct {
	Kind RequirementKind `json:"kind"`
	Slot string          `json:"slot,omitempty"`
}

func (r Requirement) String() string {
	if r.Slot == "" {
		return string(r.Kind)
	}
	return string(r.Kind) + ":" + r.Slot
}

// PendingIntent is an unresolved intent awaiting the user's answer.
type PendingIntent struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Intent          intent.Intent `json:"intent"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	PromptedOptions []string      `json:"prompted_options"`
	Awaiting        Requirement   `json:"awaiting"`
	// Attempts counts consecutive answers that did not settle Awaiting.
	Attempts int `json:"attempts"`
}

// Expired reports whether p has been idle for at least ttl.
func (p PendingIntent) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	last := p.UpdatedAt
	if last.IsZero() {
		last = p.CreatedAt
	}
	return !now.Before(last.Add(ttl))
}
