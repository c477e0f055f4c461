// Package intent classifies chat messages into a closed set of intents using
// an ordered table of keyword patterns, and fills their slots.
package intent

// TagSetVersion changes whenever a tag is added, removed or renamed.
const TagSetVersion = "2"

// Tag identifies a user goal.
type Tag string

const (
	ReadMail          Tag = "read-mail"
	SearchMail        Tag = "search-mail"
	CreateTask        Tag = "create-task"
	ListTasks         Tag = "list-tasks"
	CompleteTask      Tag = "complete-task"
	CreateDocument    Tag = "create-document"
	CreateSpreadsheet Tag = "create-spreadsheet"
	CreateEvent       Tag = "create-event"
	ListEvents        Tag = "list-events"
	CreateNote        Tag = "create-note"
	CreateReminder    Tag = "create-reminder"

	// Unknown is returned for text with nothing to classify.
	Unknown Tag = "unknown"
	// ClarificationNeeded is returned when only the catch-all matched.
	ClarificationNeeded Tag = "clarification_needed"
)

// ActionTags lists every tag that maps to an action, in declaration order.
var ActionTags = []Tag{
	ReadMail, SearchMail, CreateTask, ListTasks, CompleteTask,
	CreateDocument, CreateSpreadsheet, CreateEvent, ListEvents, CreateNote,
	CreateReminder,
}

// Actionable reports whether t maps to an action.
func (t Tag) Actionable() bool {
	for _, a := range ActionTags {
		if a == t {
			return true
		}
	}
	return false
}

// Intent is a classified message.
type Intent struct {
	Type              Tag     `json:"type"`
	Confidence        float64 `json:"confidence"`
	Params            Params  `json:"params"`
	NeedsConfirmation bool    `json:"needs_confirmation"`
}

// UnknownIntent returns the zero-confidence intent.
func UnknownIntent() Intent {
	return Intent{Type: Unknown, Params: Params{}}
}
