package collaborator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/deskmate/internal/dispatch"
)

// DefaultCallLogSize is how many invocations a CallLog keeps.
const DefaultCallLogSize = 256

// Invocation is one call recorded by DryRun.
type Invocation struct {
	Collaborator string
	Operation    string
	Params       map[string]any
}

// DryRun answers every operation locally and records it. It backs the CLI
// chat and the default configuration so that deskmate runs without any
// services attached.
type DryRun struct {
	name string
	log  *CallLog
}

// CallLog is shared by the dry-run collaborators of one registry. It keeps
// the most recent invocations and numbers every one it sees. The zero value
// holds DefaultCallLogSize calls.
type CallLog struct {
	mu    sync.Mutex
	size  int
	calls *lru.Cache[uint64, Invocation]
	seq   uint64
}

// NewCallLog returns a log keeping the last size invocations.
func NewCallLog(size int) *CallLog {
	return &CallLog{size: size}
}

// Calls returns the retained invocations, oldest first.
func (l *CallLog) Calls() []Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		return nil
	}
	return l.calls.Values()
}

// Total returns how many invocations were recorded, including evicted ones.
func (l *CallLog) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// record stores inv and returns its sequence number, starting at 1.
func (l *CallLog) record(inv Invocation) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		size := l.size
		if size <= 0 {
			size = DefaultCallLogSize
		}
		c, err := lru.New[uint64, Invocation](size)
		if err != nil {
			panic(err)
		}
		l.calls = c
	}
	l.seq++
	l.calls.Add(l.seq, inv)
	return l.seq
}

// NewDryRun returns a dry-run collaborator writing to log. A nil log
// allocates a private one.
func NewDryRun(name string, log *CallLog) *DryRun {
	if log == nil {
		log = &CallLog{}
	}
	return &DryRun{name: name, log: log}
}

// Log returns the call log.
func (d *DryRun) Log() *CallLog { return d.log }

// Invoke records the call and returns a canned reply.
func (d *DryRun) Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := d.log.record(Invocation{Collaborator: d.name, Operation: operation, Params: params})

	switch operation {
	case dispatch.OpCheck:
		return map[string]any{
			"message": "You have 2 unread messages.",
			"items":   []any{"Alice: Lunch on Friday?", "Billing: Your invoice is ready"},
		}, nil
	case dispatch.OpSearch:
		return map[string]any{
			"message": fmt.Sprintf("Found 1 message matching %q.", params["query"]),
			"items":   []any{fmt.Sprintf("Re: %v", params["query"])},
		}, nil
	case dispatch.OpList:
		return map[string]any{
			"message": "Here are your tasks:",
			"items":   []any{"1. Review pull requests", "2. Book flights"},
		}, nil
	case dispatch.OpListEvents:
		return map[string]any{
			"message": "Here is what's coming up:",
			"items":   []any{"10:00 Team sync", "15:30 Dentist"},
		}, nil
	case dispatch.OpComplete:
		if ns, ok := params["indices"].([]int); ok && len(ns) > 1 {
			return map[string]any{"message": fmt.Sprintf("Marked tasks %s as done.", joinInts(ns))}, nil
		}
		return map[string]any{"message": fmt.Sprintf("Marked task %v as done.", params["index"])}, nil
	case dispatch.OpRemind:
		return map[string]any{
			"message": fmt.Sprintf("I'll remind you to %v at %v.", params["what"], params["at"]),
			"id":      fmt.Sprintf("%s-%d", d.name, seq),
		}, nil
	case dispatch.OpCreate, dispatch.OpCreateEvent, dispatch.OpCreatePage:
		label := params["title"]
		if label == nil {
			label = params["content"]
		}
		return map[string]any{
			"message": fmt.Sprintf("Created %q in %s.", label, d.name),
			"id":      fmt.Sprintf("%s-%d", d.name, seq),
		}, nil
	default:
		return nil, &dispatch.CollaboratorError{
			Collaborator: d.name,
			Operation:    operation,
			Message:      fmt.Sprintf("%s does not support %s", d.name, operation),
		}
	}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
