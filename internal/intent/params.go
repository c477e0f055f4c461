package intent

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/ziadkadry99/deskmate/internal/extract"
)

// Slot names shared by the registry, the dialogue prompts and the dispatcher.
const (
	ParamTitle            = "title"
	ParamNotes            = "notes"
	ParamContent          = "content"
	ParamQuery            = "query"
	ParamCount            = "count"
	ParamMaxResults       = "max_results"
	ParamIndex            = "index"
	ParamIndices          = "indices"
	ParamIncludeCompleted = "include_completed"
	ParamDue              = "due"
	ParamTime             = "time"
	ParamWindow           = "window"
	ParamWhat             = "what"
)

// Params holds extracted slot values keyed by slot name.
type Params map[string]any

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Has reports whether the slot is set.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// String returns a text slot.
func (p Params) String(name string) (string, bool) {
	s, ok := p[name].(string)
	return s, ok
}

// Int returns a number slot. Values decoded from JSON arrive as float64.
func (p Params) Int(name string) (int, bool) {
	switch v := p[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Ints returns a number list slot. Values decoded from JSON arrive as
// []any of float64.
func (p Params) Ints(name string) ([]int, bool) {
	switch v := p[name].(type) {
	case []int:
		return v, len(v) > 0
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			f, ok := e.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, int(f))
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// Bool returns a flag slot.
func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// Time returns a time slot.
func (p Params) Time(name string) (extract.TimeExpression, bool) {
	switch v := p[name].(type) {
	case extract.TimeExpression:
		return v, true
	case *extract.TimeExpression:
		if v != nil {
			return *v, true
		}
	}
	return extract.TimeExpression{}, false
}

// Window returns a listing range slot.
func (p Params) Window(name string) (extract.Window, bool) {
	w, ok := p[name].(extract.Window)
	return w, ok
}

// UnmarshalJSON restores typed time and window slots so that params survive
// a round trip through an external dialogue store.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch k {
		case ParamTime, ParamDue:
			var t extract.TimeExpression
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			out[k] = t
		case ParamWindow:
			var w extract.Window
			if err := json.Unmarshal(v, &w); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			out[k] = w
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			out[k] = val
		}
	}
	*p = out
	return nil
}
