package intent

import (
	"fmt"
	"regexp"

	"github.com/ziadkadry99/deskmate/internal/extract"
)

// SlotKind selects the extractor that fills a slot.
type SlotKind int

const (
	SlotText SlotKind = iota
	SlotNumber
	// SlotNumbers slots hold every index in a list or range ("1, 3 and 5").
	SlotNumbers
	SlotTime
	SlotFlag
	SlotWindow
	// SlotFixed slots always take their default.
	SlotFixed
)

func (k SlotKind) String() string {
	switch k {
	case SlotText:
		return "text"
	case SlotNumber:
		return "number"
	case SlotNumbers:
		return "numbers"
	case SlotTime:
		return "time"
	case SlotFlag:
		return "flag"
	case SlotWindow:
		return "window"
	case SlotFixed:
		return "fixed"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// SlotSpec describes one parameter of an intent.
type SlotSpec struct {
	Name     string
	Kind     SlotKind
	Required bool
	Default  any
	// Max clamps number slots when positive.
	Max int
	// Pattern sets a flag slot when it matches.
	Pattern *regexp.Regexp
}

// Definition is one row of the pattern registry.
type Definition struct {
	Tag        Tag
	Groups     []*regexp.Regexp
	MinMatches int
	Confidence float64
	StopWords  *extract.StopWords
	Slots      []SlotSpec
	// Summary is a short description used in confirmations ("create a task").
	Summary string
	// Example is a literal phrasing offered when the user's goal is unclear.
	Example string
}

// Matches returns how many pattern groups match text.
func (d Definition) Matches(text string) int {
	n := 0
	for _, g := range d.Groups {
		if g.MatchString(text) {
			n++
		}
	}
	return n
}

// Slot returns the spec for the named slot.
func (d Definition) Slot(name string) (SlotSpec, bool) {
	for _, s := range d.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}

// Unmet returns the slots that keep params from being dispatchable, in
// declaration order: required slots that are missing, and time slots whose
// value is only a best-effort default.
func (d Definition) Unmet(p Params) []SlotSpec {
	var out []SlotSpec
	for _, s := range d.Slots {
		if s.Kind == SlotTime {
			if t, ok := p.Time(s.Name); ok {
				if !t.Settled() {
					out = append(out, s)
				}
				continue
			}
		}
		if s.Required && !p.Has(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Registry is an ordered list of definitions evaluated first-match-wins.
type Registry struct {
	defs  []Definition
	byTag map[Tag]int
}

// NewRegistry validates defs and returns a registry preserving their order.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byTag: make(map[Tag]int, len(defs))}
	for i, d := range defs {
		if d.Tag == "" || d.Tag == Unknown {
			return nil, fmt.Errorf("definition %d: invalid tag %q", i, d.Tag)
		}
		if _, dup := r.byTag[d.Tag]; dup {
			return nil, fmt.Errorf("definition %d: duplicate tag %q", i, d.Tag)
		}
		if d.MinMatches < 1 || d.MinMatches > len(d.Groups) {
			return nil, fmt.Errorf("definition %q: min matches %d out of range for %d groups", d.Tag, d.MinMatches, len(d.Groups))
		}
		if d.Confidence <= 0 || d.Confidence > 1 {
			return nil, fmt.Errorf("definition %q: confidence %v must be in (0,1]", d.Tag, d.Confidence)
		}
		r.byTag[d.Tag] = i
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(defs ...Definition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Match returns the first definition whose match count reaches MinMatches.
func (r *Registry) Match(text string) (Definition, bool) {
	for _, d := range r.defs {
		if d.Matches(text) >= d.MinMatches {
			return d, true
		}
	}
	return Definition{}, false
}

// Lookup returns the definition for tag.
func (r *Registry) Lookup(tag Tag) (Definition, bool) {
	i, ok := r.byTag[tag]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns all definitions in evaluation order.
func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}

// Actionable returns the definitions that map to an action, in order.
func (r *Registry) Actionable() []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Tag.Actionable() {
			out = append(out, d)
		}
	}
	return out
}
