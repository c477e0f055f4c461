package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MinContentLength is the shortest free-text fragment accepted as a slot value.
const MinContentLength = 2

var (
	quotedRe = regexp.MustCompile(`["“]([^"“”]+)["”]`)

	leadingFillerRe  = regexp.MustCompile(`(?i)^(?:a|an|the|to|for|about|called|named|titled|that|is|of|:|-)(?:\s+|$)`)
	trailingFillerRe = regexp.MustCompile(`(?i)\s+(?:to|for|on|at|by|in|due|until|from|and|of)$`)
)

// emptyWords carry no content on their own. A fragment made only of them is
// treated as missing.
var emptyWords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true, "about": true,
	"called": true, "named": true, "titled": true, "that": true, "is": true, "of": true,
	"it": true, "this": true, "my": true, "me": true, "new": true, "all": true,
	"show": true, "list": true, "view": true, "see": true, "display": true,
	"what": true, "whats": true, "what's": true, "which": true, "any": true,
	"pending": true, "open": true,
}

// StopWords is a compiled, case-insensitive list of words and phrases
// removed from text before it becomes a free-text slot.
type StopWords struct {
	words []string
	re    *regexp.Regexp
}

// NewStopWords compiles the given words. Multi-word phrases match across any
// run of whitespace; longer phrases win over their prefixes.
func NewStopWords(words ...string) *StopWords {
	sorted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	sw := &StopWords{words: sorted}
	if len(sorted) == 0 {
		return sw
	}
	alts := make([]string, len(sorted))
	for i, w := range sorted {
		parts := strings.Fields(w)
		for k, p := range parts {
			parts[k] = regexp.QuoteMeta(p)
		}
		alts[i] = strings.Join(parts, `\s+`)
	}
	sw.re = regexp.MustCompile(`(?i)(?:^|\b)(?:` + strings.Join(alts, "|") + `)(?:\b|$)`)
	return sw
}

// Words returns the stop words, longest first.
func (s *StopWords) Words() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.words...)
}

func (s *StopWords) strip(text string) string {
	if s == nil || s.re == nil {
		return text
	}
	return s.re.ReplaceAllString(text, " ")
}

// Content extracts the free-text slot from text. A double-quoted phrase is
// taken verbatim; otherwise time phrases and stop words are removed and
// whitespace collapsed. The second return is false when the result is
// shorter than MinContentLength or holds nothing but filler words.
func Content(text string, stop *StopWords) (string, bool) {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return checkLength(collapse(m[1]))
	}

	s := stop.strip(StripTime(text))
	s = collapse(s)
	s = strings.Trim(s, " .,!?;:")
	for {
		trimmed := leadingFillerRe.ReplaceAllString(s, "")
		trimmed = trailingFillerRe.ReplaceAllString(trimmed, "")
		trimmed = strings.Trim(trimmed, " .,!?;:")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	if onlyEmptyWords(s) {
		return "", false
	}
	return checkLength(s)
}

func onlyEmptyWords(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if !emptyWords[strings.Trim(w, ".,!?;:")] {
			return false
		}
	}
	return true
}

func checkLength(s string) (string, bool) {
	if utf8.RuneCountInString(s) < MinContentLength {
		return "", false
	}
	return s, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
