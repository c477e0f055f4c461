package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ziadkadry99/deskmate/internal/extract"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// Prompt is a clarification question with literal answers the user can send.
type Prompt struct {
	Requirement Requirement `json:"requirement"`
	Question    string      `json:"question"`
	Options     []string    `json:"options"`
	// Retry is set when the previous answer did not help.
	Retry bool `json:"retry,omitempty"`
}

type slotPrompt struct {
	question string
	options  []string
}

var slotPrompts = map[intent.Tag]map[string]slotPrompt{
	intent.CreateTask: {
		intent.ParamTitle: {"What should the task be called?", []string{"Prepare meeting notes", "Buy groceries", "Call the bank"}},
		intent.ParamDue:   {"When is it due? I have %s so far.", nil},
	},
	intent.CreateEvent: {
		intent.ParamTitle: {"What should I call the event?", []string{"Team sync", "Lunch with Sam", "Dentist appointment"}},
		intent.ParamTime:  {"What time should it start? I pencilled in %s.", nil},
	},
	intent.CreateDocument: {
		intent.ParamTitle: {"What should the document be called?", []string{"Meeting notes", "Project plan", "Weekly report"}},
	},
	intent.CreateSpreadsheet: {
		intent.ParamTitle: {"What should the spreadsheet be called?", []string{"Budget", "Expenses", "Project tracker"}},
	},
	intent.CreateNote: {
		intent.ParamContent: {"What should the note say?", []string{"Ideas for the offsite", "Book recommendations", "Parking spot B12"}},
	},
	intent.SearchMail: {
		intent.ParamQuery: {"What should I look for in your mail?", []string{"invoices", "flight confirmation", "from alice"}},
	},
	intent.CompleteTask: {
		intent.ParamIndex: {"Which task number should I mark as done?", []string{"1", "2", "3"}},
	},
	intent.CreateReminder: {
		intent.ParamWhat: {"What should I remind you about?", []string{"Call mom", "Take out the trash", "Stretch"}},
		intent.ParamTime: {"When should I remind you? I have %s so far.", nil},
	},
}

// prompt builds the question for req.
func (m *Machine) prompt(in intent.Intent, req Requirement, retry bool) Prompt {
	p := Prompt{Requirement: req, Retry: retry}

	switch req.Kind {
	case NeedIntent:
		p.Question = "I'm not sure what you'd like me to do. Pick one of these or rephrase:"
		p.Options = m.IntentOptions()
	case NeedConfirm:
		p.Question = fmt.Sprintf("Just to check, you want me to %s?", m.summary(in.Type))
		p.Options = []string{"yes", "no"}
	case NeedTime:
		t, _ := in.Params.Time(req.Slot)
		sp, ok := slotPrompts[in.Type][req.Slot]
		if !ok {
			sp = slotPrompt{question: "What time works? I have %s so far."}
		}
		p.Question = fmt.Sprintf(sp.question, describeTime(t))
		p.Options = timeOptions(t)
	default:
		sp, ok := slotPrompts[in.Type][req.Slot]
		if !ok {
			sp = slotPrompt{question: fmt.Sprintf("What %s should I use?", strings.ReplaceAll(req.Slot, "_", " "))}
		}
		p.Question = sp.question
		p.Options = append([]string(nil), sp.options...)
	}

	if retry {
		p.Question = "Sorry, I didn't catch that. " + p.Question
	}
	return p
}

// IntentOptions returns one literal example per actionable intent.
func (m *Machine) IntentOptions() []string {
	defs := m.classifier.Registry().Actionable()
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Example)
	}
	return out
}

func (m *Machine) summary(tag intent.Tag) string {
	if d, ok := m.classifier.Registry().Lookup(tag); ok && d.Summary != "" {
		return d.Summary
	}
	return strings.ReplaceAll(string(tag), "-", " ")
}

func describeTime(t extract.TimeExpression) string {
	if r := t.Recurrence; r != nil {
		clock := fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
		switch r.Frequency {
		case extract.Weekdays:
			return "every weekday at " + clock
		case extract.Weekly:
			return "every " + r.Weekday.String() + " at " + clock
		default:
			return "every day at " + clock
		}
	}
	return t.Start.Format("Mon 2 Jan 15:04")
}

// timeOptions suggests answers the time extractor understands.
func timeOptions(t extract.TimeExpression) []string {
	keep := t.Start.Format("15:04")
	if t.Recurrence != nil {
		keep = fmt.Sprintf("%02d:%02d", t.Recurrence.Hour, t.Recurrence.Minute)
	}
	out := []string{"yes, keep " + keep}
	for _, c := range []string{"09:30", "14:00", "17:30"} {
		if c != keep {
			out = append(out, c)
		}
	}
	return out
}

// pickOption maps a numeric reply ("2") or an exact option back to the option.
func pickOption(options []string, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	return "", false
}
