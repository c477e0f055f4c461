package compose

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/deskmate/internal/dialogue"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
)

// Composer picks phrases from a Catalog. It is safe for concurrent use.
type Composer struct {
	catalog Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Composer.
type Option func(*Composer)

// WithCatalog replaces the built-in phrases.
func WithCatalog(c Catalog) Option {
	return func(x *Composer) { x.catalog = c }
}

// New returns a Composer. A zero seed seeds from the clock; any other
// seed makes phrase selection repeatable.
func New(seed int64, opts ...Option) (*Composer, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c := &Composer{catalog: DefaultCatalog(), rng: rand.New(rand.NewSource(seed))}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.catalog.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Phrase returns one variant from cat.
func (c *Composer) Phrase(cat Category) string {
	phrases := c.catalog[cat]
	c.mu.Lock()
	i := c.rng.Intn(len(phrases))
	c.mu.Unlock()
	return phrases[i]
}

// Result renders a dispatch outcome. List results put each item on its
// own bullet line.
func (c *Composer) Result(res dispatch.ActionResult) string {
	if !res.Success {
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Sprintf(c.Phrase(Failure), msg)
	}

	var b strings.Builder
	b.WriteString(c.Phrase(Success))
	if msg := strings.TrimSpace(res.Message); msg != "" {
		b.WriteString(" ")
		b.WriteString(msg)
	}

	if raw, ok := res.Data["items"]; ok {
		items := listItems(raw)
		if len(items) == 0 {
			b.WriteString(" ")
			b.WriteString(c.Phrase(Empty))
		}
		for _, it := range items {
			b.WriteString("\n• ")
			b.WriteString(it)
		}
	}
	return b.String()
}

// Prompt renders a clarification question. The first question for a known
// intent gets a lead-in; retries and intent menus are sent as they are.
func (c *Composer) Prompt(p dialogue.Prompt) string {
	if p.Retry || p.Requirement.Kind == dialogue.NeedIntent {
		return p.Question
	}
	return c.Phrase(Clarification) + " " + p.Question
}

// Cancelled renders the reply to a cancelled dialogue.
func (c *Composer) Cancelled() string { return c.Phrase(Cancelled) }

// Fallback renders the reply after the dialogue gave up, followed by the
// menu question.
func (c *Composer) Fallback(p dialogue.Prompt) string {
	return c.Phrase(Fallback) + " " + p.Question
}

func listItems(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			out = append(out, fmt.Sprint(it))
		}
		return out
	default:
		return nil
	}
}
