package intent

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/deskmate/internal/extract"
)

// words compiles a case-insensitive whole-word alternation. Spaces inside an
// alternative match any run of whitespace.
func words(alts ...string) *regexp.Regexp {
	parts := make([]string, len(alts))
	for i, a := range alts {
		parts[i] = strings.Join(strings.Fields(a), `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

var (
	mailNoun     = words(`e-?mails?`, `mails?`, `inbox`, `gmail`, `messages?`)
	taskNoun     = words(`tasks?`, `todos?`, `to-dos?`, `to do`)
	eventNoun    = words(`calendar`, `events?`, `meetings?`, `appointments?`)
	createVerb   = words(`add`, `create`, `make`, `put`, `jot`, `set up`)
	scheduleVerb = words(`put`, `add`, `schedule`, `book`, `create`, `set up`, `plan`, `arrange`, `new`)
	draftVerb    = words(`create`, `new`, `make`, `start`, `draft`, `write`, `open`)
	reminderWord = regexp.MustCompile(`(?i)\b(?:remind|nudge)\b|\b(?:set|add|create|make|new)\b.*\breminder\b`)
	listWord     = words(`list`, `show`, `view`, `see`, `display`, `what`, `whats`, `which`, `any`, `pending`, `open`, `outstanding`, `remaining`, `all`)
)

// fillers are stripped from every free-text slot.
var fillers = []string{
	"please", "can you", "could you", "would you", "i want to", "i'd like to",
	"i need to", "for me", "something", "some",
}

func stopWords(specific ...string) *extract.StopWords {
	return extract.NewStopWords(append(specific, fillers...)...)
}

// catchAll matches any text with at least one word character.
var catchAll = regexp.MustCompile(`\w`)

// CatchAllConfidence is the baseline confidence of clarification_needed.
const CatchAllConfidence = 0.3

// DefaultRegistry returns the built-in intent table. Task creation and
// completion come first so that "add a task to my list" is not a listing and
// "mark all tasks as done" is not a request to see them. Mail search precedes
// mail reading.
func DefaultRegistry() *Registry {
	return MustRegistry(
		Definition{
			Tag:        CreateTask,
			Groups:     []*regexp.Regexp{createVerb, taskNoun},
			MinMatches: 2,
			Confidence: 0.85,
			StopWords: stopWords("add", "create", "new", "make", "put", "jot down", "jot", "set up",
				"task", "tasks", "todo", "todos", "to-do", "to do",
				"to my to-do list", "to my todo list", "to my task list", "to my tasks", "to my list",
				"on my list", "to-do list", "todo list", "task list", "my"),
			Slots: []SlotSpec{
				{Name: ParamTitle, Kind: SlotText, Required: true},
				{Name: ParamDue, Kind: SlotTime},
			},
			Summary: "create a task",
			Example: "add a task",
		},
		Definition{
			Tag: CompleteTask,
			Groups: []*regexp.Regexp{
				words(`complete`, `finish`, `done`, `mark`, `tick off`, `check off`, `cross off`),
				taskNoun,
				regexp.MustCompile(`(?i)(?:#|\bnumber\s+|\bno\.?\s*)\d+`),
			},
			MinMatches: 2,
			Confidence: 0.85,
			Slots: []SlotSpec{
				{Name: ParamIndex, Kind: SlotNumber, Required: true},
				{Name: ParamIndices, Kind: SlotNumbers},
			},
			Summary: "mark a task as done",
			Example: "mark task 1 as done",
		},
		Definition{
			Tag:        CreateReminder,
			Groups:     []*regexp.Regexp{reminderWord},
			MinMatches: 1,
			Confidence: 0.85,
			StopWords: stopWords("remind me to", "remind me about", "remind me of", "remind me", "remind",
				"set a reminder to", "set a reminder for", "set a reminder", "add a reminder to", "add a reminder",
				"create a reminder", "a reminder to", "a reminder for", "reminder to", "reminder",
				"nudge me to", "nudge me", "me"),
			Slots: []SlotSpec{
				{Name: ParamWhat, Kind: SlotText, Required: true},
				{Name: ParamTime, Kind: SlotTime, Required: true},
			},
			Summary: "set a reminder",
			Example: "remind me to call mom",
		},
		Definition{
			Tag:        CreateEvent,
			Groups:     []*regexp.Regexp{eventNoun, scheduleVerb},
			MinMatches: 2,
			Confidence: 0.85,
			StopWords: stopWords("put", "add", "schedule", "book", "create", "set up", "plan", "arrange", "new",
				"on my calendar", "to my calendar", "in my calendar", "on the calendar", "my calendar",
				"calendar", "event", "an event", "entry"),
			Slots: []SlotSpec{
				{Name: ParamTitle, Kind: SlotText, Required: true},
				{Name: ParamTime, Kind: SlotTime, Required: true},
			},
			Summary: "add an event to your calendar",
			Example: "schedule a meeting",
		},
		Definition{
			Tag:        CreateDocument,
			Groups:     []*regexp.Regexp{words(`docs?`, `documents?`, `google docs?`, `write-?up`), draftVerb},
			MinMatches: 2,
			Confidence: 0.85,
			StopWords: stopWords("create", "new", "make", "start", "draft", "write", "open",
				"google doc", "google docs", "document", "doc", "docs", "write-up", "writeup"),
			Slots: []SlotSpec{
				{Name: ParamTitle, Kind: SlotText, Required: true},
			},
			Summary: "create a document",
			Example: "create a new document",
		},
		Definition{
			Tag:        CreateSpreadsheet,
			Groups:     []*regexp.Regexp{words(`spreadsheets?`, `sheets?`, `excel`, `workbook`), draftVerb},
			MinMatches: 2,
			Confidence: 0.85,
			StopWords: stopWords("create", "new", "make", "start", "draft", "write", "open",
				"google sheet", "google sheets", "spreadsheet", "sheet", "excel", "workbook"),
			Slots: []SlotSpec{
				{Name: ParamTitle, Kind: SlotText, Required: true},
			},
			Summary: "create a spreadsheet",
			Example: "make a spreadsheet",
		},
		Definition{
			Tag:        CreateNote,
			Groups:     []*regexp.Regexp{words(`notes?`, `notion`, `memo`), words(`take`, `add`, `create`, `new`, `make`, `jot`, `write`, `save`)},
			MinMatches: 2,
			Confidence: 0.8,
			StopWords: stopWords("take", "add", "create", "new", "make", "jot down", "jot", "write down", "write", "save",
				"a note", "note", "notes", "in notion", "to notion", "notion", "memo", "saying"),
			Slots: []SlotSpec{
				{Name: ParamContent, Kind: SlotText, Required: true},
			},
			Summary: "save a note",
			Example: "take a note",
		},
		Definition{
			Tag:        SearchMail,
			Groups:     []*regexp.Regexp{mailNoun, words(`search`, `find`, `look for`, `look up`, `from`, `about`, `regarding`)},
			MinMatches: 2,
			Confidence: 0.85,
			StopWords: stopWords("search", "search for", "find", "look for", "look up", "look through",
				"my", "mail", "mails", "email", "emails", "e-mail", "e-mails", "inbox", "gmail",
				"message", "messages", "in", "for", "any", "all", "me"),
			Slots: []SlotSpec{
				{Name: ParamQuery, Kind: SlotText, Required: true},
				{Name: ParamMaxResults, Kind: SlotFixed, Default: 10},
			},
			Summary: "search your mail",
			Example: "search my mail for invoices",
		},
		Definition{
			Tag: ReadMail,
			Groups: []*regexp.Regexp{
				mailNoun,
				words(`check`, `read`, `show`, `open`, `any`, `new`, `unread`, `latest`, `recent`, `last`, `get`, `my`),
			},
			MinMatches: 2,
			Confidence: 0.9,
			Slots: []SlotSpec{
				{Name: ParamCount, Kind: SlotNumber, Default: 5, Max: 50},
			},
			Summary: "check your mail",
			Example: "check my mail",
		},
		Definition{
			Tag:        ListTasks,
			Groups:     []*regexp.Regexp{taskNoun, listWord},
			MinMatches: 2,
			Confidence: 0.85,
			Slots: []SlotSpec{
				{Name: ParamIncludeCompleted, Kind: SlotFlag, Pattern: words(`all`, `completed`, `done`, `finished`)},
			},
			Summary: "list your tasks",
			Example: "show my tasks",
		},
		Definition{
			Tag: ListEvents,
			Groups: []*regexp.Regexp{
				words(`calendar`, `events?`, `meetings?`, `appointments?`, `schedule`, `agenda`),
				words(`what`, `whats`, `show`, `list`, `view`, `see`, `check`, `any`, `upcoming`, `next`, `my`, `today`, `tomorrow`, `this week`),
			},
			MinMatches: 2,
			Confidence: 0.85,
			Slots: []SlotSpec{
				{Name: ParamWindow, Kind: SlotWindow},
			},
			Summary: "show your calendar",
			Example: "what's on my calendar",
		},
		Definition{
			Tag:        ClarificationNeeded,
			Groups:     []*regexp.Regexp{catchAll},
			MinMatches: 1,
			Confidence: CatchAllConfidence,
		},
	)
}
