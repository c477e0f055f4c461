// Package audit keeps a journal of every action the assistant dispatched.
package audit

import (
	"time"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

// Entry is a single journal record.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       string         `json:"user_id"`
	Intent       intent.Tag     `json:"intent"`
	Collaborator string         `json:"collaborator,omitempty"`
	Operation    string         `json:"operation,omitempty"`
	Success      bool           `json:"success"`
	Message      string         `json:"message,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// Summary aggregates the journal.
type Summary struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	ByIntent  map[intent.Tag]int `json:"by_intent"`
}
