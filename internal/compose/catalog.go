// Package compose turns dispatch results and clarification prompts into the
// text sent back to the user.
package compose

import (
	"fmt"
	"strings"
)

// Category is a kind of reply.
type Category string

const (
	Success       Category = "success"
	Failure       Category = "failure"
	Clarification Category = "clarification"
	Cancelled     Category = "cancelled"
	Fallback      Category = "fallback"
	Empty         Category = "empty"
)

// Categories lists every category a Catalog must fill.
var Categories = []Category{Success, Failure, Clarification, Cancelled, Fallback, Empty}

// Catalog holds the phrase variants per category. Failure phrases take the
// collaborator's message as their single %s verb.
type Catalog map[Category][]string

// DefaultCatalog returns the built-in phrases.
func DefaultCatalog() Catalog {
	return Catalog{
		Success: {
			"Done.",
			"All set.",
			"Got it.",
			"There you go.",
		},
		Failure: {
			"Sorry, that didn't work: %s",
			"I couldn't finish that: %s",
			"Something went wrong: %s",
		},
		Clarification: {
			"Sure.",
			"Happy to help.",
			"Okay.",
		},
		Cancelled: {
			"Okay, I've cancelled that.",
			"No problem, forget I asked.",
			"Cancelled.",
		},
		Fallback: {
			"I'm still not sure what you need.",
			"Let's start over.",
		},
		Empty: {
			"Nothing to show.",
			"That list is empty.",
		},
	}
}

// Validate reports a category without phrases or a failure phrase that
// cannot take the message.
func (c Catalog) Validate() error {
	for _, cat := range Categories {
		if len(c[cat]) == 0 {
			return fmt.Errorf("catalog has no %s phrases", cat)
		}
	}
	for _, p := range c[Failure] {
		if strings.Count(p, "%s") != 1 {
			return fmt.Errorf("failure phrase %q does not include the message", p)
		}
	}
	return nil
}
