package dialogue

import (
	"strings"

	"github.com/ziadkadry99/deskmate/internal/extract"
)

var cancelWords = setOf(
	"no", "n", "nope", "nah", "cancel", "cancel that", "cancel it", "abort", "stop",
	"nevermind", "never mind", "forget it", "forget about it", "no thanks", "no thank you",
)

var affirmativeWords = setOf(
	"yes", "y", "yeah", "yep", "yup", "ok", "okay", "sure", "confirm", "proceed",
	"go ahead", "go", "do it", "sounds good", "keep it", "fine", "that works",
	"correct", "right", "affirmative", "please do", "yes please",
)

// answerFillers are stripped from free-text answers ("call it meeting prep").
var answerFillers = extract.NewStopWords(
	"call it", "name it", "it's called", "its called", "it is called", "title it",
	"titled", "the title is", "how about", "let's say", "lets say", "make it", "just",
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Trim(text, " .!?,;:")
	return strings.Join(strings.Fields(text), " ")
}

// IsCancel reports whether the whole message is a negative or cancel reply.
func IsCancel(text string) bool {
	return cancelWords[normalize(text)]
}

// IsAffirmative reports whether the message accepts the current proposal,
// either entirely ("sure") or as its leading word ("yes, keep 09:00").
func IsAffirmative(text string) bool {
	n := normalize(text)
	if affirmativeWords[n] {
		return true
	}
	first, _, _ := strings.Cut(n, " ")
	first = strings.TrimRight(first, ",")
	return first != "go" && first != "right" && affirmativeWords[first]
}
