package intent

import (
	"time"

	"github.com/ziadkadry99/deskmate/internal/extract"
)

// BuildParams runs each slot's extractor over text. Optional slots without a
// value and without a default are left unset so that Unmet can tell them
// apart from values the user gave.
func (d Definition) BuildParams(text string, now time.Time) Params {
	p := Params{}
	for _, s := range d.Slots {
		switch s.Kind {
		case SlotText:
			if v, ok := extract.Content(text, d.StopWords); ok {
				p[s.Name] = v
			}
		case SlotNumber:
			if n, ok := extract.Number(text); ok {
				p[s.Name] = s.Clamp(n)
			} else if s.Default != nil {
				p[s.Name] = s.Default
			}
		case SlotNumbers:
			if ns, ok := extract.Numbers(text); ok {
				p[s.Name] = ns
			}
		case SlotTime:
			m := extract.Time(text, now)
			if m.Found || s.Required {
				p[s.Name] = m.Expr
			}
		case SlotFlag:
			p[s.Name] = s.Pattern != nil && s.Pattern.MatchString(text)
		case SlotWindow:
			p[s.Name] = extract.DayWindow(text, now)
		case SlotFixed:
			if s.Default != nil {
				p[s.Name] = s.Default
			}
		}
	}
	return p
}

// Clamp bounds n to [1, Max] when Max is set.
func (s SlotSpec) Clamp(n int) int {
	if n < 1 && s.Max > 0 {
		return 1
	}
	if s.Max > 0 && n > s.Max {
		return s.Max
	}
	return n
}
