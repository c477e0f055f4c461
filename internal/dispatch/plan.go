package dispatch

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/deskmate/internal/extract"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// Operation names, per collaborator.
const (
	OpCheck       = "check"
	OpSearch      = "search"
	OpCreate      = "create"
	OpList        = "list"
	OpComplete    = "complete"
	OpCreateEvent = "create_event"
	OpListEvents  = "list_events"
	OpCreatePage  = "create_page"
	OpRemind      = "remind"
)

// Call is one collaborator operation with its wire parameters.
type Call struct {
	Collaborator string         `json:"collaborator"`
	Operation    string         `json:"operation"`
	Params       map[string]any `json:"params"`
}

// Route names the collaborator operation behind a tag.
type Route struct {
	Collaborator string `json:"collaborator"`
	Operation    string `json:"operation"`
}

// Routes is the fixed tag to operation table.
var Routes = map[intent.Tag]Route{
	intent.ReadMail:          {Mail, OpCheck},
	intent.SearchMail:        {Mail, OpSearch},
	intent.CreateTask:        {Tasks, OpCreate},
	intent.ListTasks:         {Tasks, OpList},
	intent.CompleteTask:      {Tasks, OpComplete},
	intent.CreateDocument:    {Documents, OpCreate},
	intent.CreateSpreadsheet: {Spreadsheets, OpCreate},
	intent.CreateEvent:       {Calendar, OpCreateEvent},
	intent.ListEvents:        {Calendar, OpListEvents},
	intent.CreateNote:        {Notes, OpCreatePage},
	intent.CreateReminder:    {Tasks, OpRemind},
}

// Plan marshals a resolved intent into its collaborator call. Optional
// parameters the user did not give are omitted.
func Plan(in intent.Intent) (Call, error) {
	route, ok := Routes[in.Type]
	if !ok {
		return Call{}, fmt.Errorf("intent %q is not dispatchable", in.Type)
	}
	c := Call{Collaborator: route.Collaborator, Operation: route.Operation, Params: map[string]any{}}
	p := in.Params

	switch in.Type {
	case intent.ReadMail:
		n, _ := p.Int(intent.ParamCount)
		c.Params["count"] = n
	case intent.SearchMail:
		q, _ := p.String(intent.ParamQuery)
		n, _ := p.Int(intent.ParamMaxResults)
		c.Params["query"] = q
		c.Params["maxResults"] = n
	case intent.CreateTask:
		title, _ := p.String(intent.ParamTitle)
		c.Params["title"] = title
		if notes, ok := p.String(intent.ParamNotes); ok {
			c.Params["notes"] = notes
		}
		if due, ok := p.Time(intent.ParamDue); ok {
			c.Params["dueDate"] = due.Start.Format(time.RFC3339)
		}
	case intent.ListTasks:
		c.Params["includeCompleted"] = p.Bool(intent.ParamIncludeCompleted)
	case intent.CompleteTask:
		n, _ := p.Int(intent.ParamIndex)
		c.Params["index"] = n
		indices, ok := p.Ints(intent.ParamIndices)
		if !ok {
			indices = []int{n}
		}
		c.Params["indices"] = indices
	case intent.CreateDocument:
		title, _ := p.String(intent.ParamTitle)
		c.Params["title"] = title
		if content, ok := p.String(intent.ParamContent); ok {
			c.Params["content"] = content
		}
	case intent.CreateSpreadsheet:
		title, _ := p.String(intent.ParamTitle)
		c.Params["title"] = title
	case intent.CreateEvent:
		title, _ := p.String(intent.ParamTitle)
		t, ok := p.Time(intent.ParamTime)
		if !ok {
			return Call{}, fmt.Errorf("event %q has no time", title)
		}
		c.Params["title"] = title
		c.Params["start"] = t.Start.Format(time.RFC3339)
		c.Params["end"] = t.End.Format(time.RFC3339)
		addRecurrence(c.Params, t)
	case intent.CreateReminder:
		what, _ := p.String(intent.ParamWhat)
		t, ok := p.Time(intent.ParamTime)
		if !ok {
			return Call{}, fmt.Errorf("reminder %q has no time", what)
		}
		c.Params["what"] = what
		c.Params["at"] = t.Start.Format(time.RFC3339)
		addRecurrence(c.Params, t)
	case intent.ListEvents:
		w, ok := p.Window(intent.ParamWindow)
		if !ok {
			return Call{}, fmt.Errorf("event listing has no window")
		}
		c.Params["from"] = w.From.Format(time.RFC3339)
		c.Params["to"] = w.To.Format(time.RFC3339)
	case intent.CreateNote:
		content, _ := p.String(intent.ParamContent)
		c.Params["content"] = content
		if title, ok := p.String(intent.ParamTitle); ok {
			c.Params["title"] = title
		}
	}
	return c, nil
}

func addRecurrence(params map[string]any, t extract.TimeExpression) {
	if r := t.Recurrence; r != nil {
		params["recurrence"] = map[string]any{
			"frequency": string(r.Frequency),
			"cron":      r.Cron,
		}
	}
}
