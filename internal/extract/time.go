package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultDuration is the length of a window when the text names none.
const DefaultDuration = time.Hour

// Hours used when a day is named without a time of day.
const (
	defaultHour = 9
	eveningHour = 19
	tonightHour = 20
	nightHour   = 21
)

// Frequency is how often a recurring expression repeats.
type Frequency string

const (
	Daily    Frequency = "daily"
	Weekdays Frequency = "weekdays"
	Weekly   Frequency = "weekly"
)

// Recurrence describes a repeating time of day.
type Recurrence struct {
	Frequency Frequency    `json:"frequency"`
	Weekday   time.Weekday `json:"weekday,omitempty"`
	Hour      int          `json:"hour"`
	Minute    int          `json:"minute"`
	// Cron is the equivalent standard five-field cron expression.
	Cron string `json:"cron"`
}

func (r Recurrence) spec() string {
	switch r.Frequency {
	case Weekdays:
		return fmt.Sprintf("%d %d * * 1-5", r.Minute, r.Hour)
	case Weekly:
		return fmt.Sprintf("%d %d * * %d", r.Minute, r.Hour, int(r.Weekday))
	default:
		return fmt.Sprintf("%d %d * * *", r.Minute, r.Hour)
	}
}

// Next returns the first occurrence strictly after t, in t's location.
func (r Recurrence) Next(t time.Time) time.Time {
	expr := r.Cron
	if expr == "" {
		expr = r.spec()
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return t.Add(DefaultDuration)
	}
	return sched.Next(t)
}

// TimeExpression is a resolved time window.
//
// Specific is true only when the text fixed the time of day; otherwise the
// window is a best-effort default that must be confirmed before use.
// Confirmed records that the user accepted such a default.
type TimeExpression struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Specific   bool        `json:"specific"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Confirmed  bool        `json:"confirmed,omitempty"`
}

// Duration returns End - Start.
func (t TimeExpression) Duration() time.Duration { return t.End.Sub(t.Start) }

// Settled reports whether the expression can be acted on.
func (t TimeExpression) Settled() bool { return t.Specific || t.Confirmed }

// TimeMatch is the result of scanning text for time markers.
type TimeMatch struct {
	Expr     TimeExpression
	Found    bool // any marker was recognized
	HasClock bool // an explicit time of day was present
	HasDay   bool // the day was fixed by the text
}

var (
	clockRe      = regexp.MustCompile(`(?i)\b(?:at\s+)?([01]?\d|2[0-3])[:.]([0-5]\d)(?:\s*(am|pm))?\b`)
	meridiemRe   = regexp.MustCompile(`(?i)\b(?:at\s+)?(1[0-2]|0?[1-9])\s*(am|pm)\b`)
	noonRe       = regexp.MustCompile(`(?i)\b(?:at\s+)?(noon|midday|midnight)\b`)
	dayAfterRe   = regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+after\s+tomorrow\b`)
	relDayRe     = regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|tmrw)\b`)
	nextWeekRe   = regexp.MustCompile(`(?i)\bnext\s+week\b`)
	weekdayRe    = regexp.MustCompile(`(?i)\b(?:(next|this|on)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	offsetRe     = regexp.MustCompile(`(?i)\bin\s+(\d+|an?|one|two|three|four|five|half\s+an)\s*(minutes?|mins?|hours?|hrs?|days?|weeks?)\b`)
	durationRe   = regexp.MustCompile(`(?i)\bfor\s+(\d+|an?|one|two|three|half\s+an)\s*(minutes?|mins?|hours?|hrs?)\b`)
	recurrenceRe = regexp.MustCompile(`(?i)\b(?:(?:every|each)\s+(morning|evening|night|day|weekday|week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)|(daily|weekly))\b`)
)

// timePhrases is every pattern StripTime removes, longest constructs first.
var timePhrases = []*regexp.Regexp{
	recurrenceRe, dayAfterRe, clockRe, meridiemRe, noonRe,
	relDayRe, nextWeekRe, weekdayRe, offsetRe, durationRe,
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
}

// Time scans text for time markers relative to now: an explicit clock time,
// a relative day combined with the clock, a relative offset, or a
// recurrence. A recurrence claims the clock time and any weekday it names.
// With no marker the result is a window starting one hour from now with
// Specific=false.
func Time(text string, now time.Time) TimeMatch {
	hour, minute, hasClock := findClock(text)
	dur := findDuration(text)

	if rec, ok := findRecurrence(text, now); ok {
		if hasClock {
			rec.Hour, rec.Minute = hour, minute
		}
		rec.Cron = rec.spec()
		start := rec.Next(now)
		return TimeMatch{
			Expr:     TimeExpression{Start: start, End: start.Add(dur), Specific: hasClock, Recurrence: &rec},
			Found:    true,
			HasClock: hasClock,
			HasDay:   true,
		}
	}

	days, dayHour, hasDay := findDay(text, now)
	if hasClock || hasDay {
		h, m := dayHour, 0
		if hasClock {
			h, m = hour, minute
		}
		base := now.AddDate(0, 0, days)
		start := time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, now.Location())
		if hasClock && !hasDay && !start.After(now) {
			start = start.AddDate(0, 0, 1)
		}
		return TimeMatch{
			Expr:     TimeExpression{Start: start, End: start.Add(dur), Specific: hasClock},
			Found:    true,
			HasClock: hasClock,
			HasDay:   hasDay,
		}
	}

	if offset, ok := findOffset(text); ok {
		if offset < 24*time.Hour {
			start := now.Add(offset).Truncate(time.Minute)
			return TimeMatch{
				Expr:  TimeExpression{Start: start, End: start.Add(dur), Specific: true},
				Found: true,
			}
		}
		base := now.AddDate(0, 0, int(offset/(24*time.Hour)))
		start := time.Date(base.Year(), base.Month(), base.Day(), defaultHour, 0, 0, 0, now.Location())
		return TimeMatch{
			Expr:   TimeExpression{Start: start, End: start.Add(dur)},
			Found:  true,
			HasDay: true,
		}
	}

	start := now.Add(time.Hour).Truncate(time.Minute)
	return TimeMatch{Expr: TimeExpression{Start: start, End: start.Add(dur)}}
}

// RefineClock applies an answer to an earlier expression. A clock-only
// answer keeps prev's day (or recurrence) and fixes the time of day; any
// other recognized answer replaces prev. The second return is false when
// the answer holds no time marker.
func RefineClock(prev TimeExpression, text string, now time.Time) (TimeExpression, bool) {
	m := Time(text, now)
	if !m.Found {
		return prev, false
	}
	if !m.HasClock || m.HasDay {
		return m.Expr, true
	}

	dur := prev.Duration()
	if durationRe.MatchString(text) || dur <= 0 {
		dur = m.Expr.Duration()
	}
	h, mm := m.Expr.Start.Hour(), m.Expr.Start.Minute()

	out := prev
	out.Specific = true
	if prev.Recurrence != nil {
		rec := *prev.Recurrence
		rec.Hour, rec.Minute = h, mm
		rec.Cron = rec.spec()
		out.Recurrence = &rec
		out.Start = rec.Next(now)
	} else {
		out.Start = time.Date(prev.Start.Year(), prev.Start.Month(), prev.Start.Day(), h, mm, 0, 0, prev.Start.Location())
		if !out.Start.After(now) {
			out.Start = m.Expr.Start
		}
	}
	out.End = out.Start.Add(dur)
	return out, true
}

// StripTime removes every recognized time phrase from text.
func StripTime(text string) string {
	for _, re := range timePhrases {
		text = re.ReplaceAllString(text, " ")
	}
	return collapse(text)
}

// HasTime reports whether text contains any time marker.
func HasTime(text string) bool {
	for _, re := range timePhrases {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func findClock(text string) (hour, minute int, ok bool) {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return applyMeridiem(hour, m[3]), minute, true
	}
	if m := meridiemRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		return applyMeridiem(hour, m[2]), 0, true
	}
	if m := noonRe.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "midnight") {
			return 0, 0, true
		}
		return 12, 0, true
	}
	return 0, 0, false
}

func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

// findDay returns how many days ahead of now the text points, and the
// default hour for that day.
func findDay(text string, now time.Time) (days, hour int, ok bool) {
	if dayAfterRe.MatchString(text) {
		return 2, defaultHour, true
	}
	if m := relDayRe.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "today":
			return 0, defaultHour, true
		case "tonight":
			return 0, tonightHour, true
		default:
			return 1, defaultHour, true
		}
	}
	if nextWeekRe.MatchString(text) {
		return daysUntil(now.Weekday(), time.Monday, true), defaultHour, true
	}
	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		target := weekdays[strings.ToLower(m[2])]
		return daysUntil(now.Weekday(), target, strings.EqualFold(m[1], "next")), defaultHour, true
	}
	return 0, 0, false
}

func daysUntil(from, to time.Weekday, skipToday bool) int {
	d := (int(to) - int(from) + 7) % 7
	if d == 0 && skipToday {
		d = 7
	}
	return d
}

func findRecurrence(text string, now time.Time) (Recurrence, bool) {
	m := recurrenceRe.FindStringSubmatch(text)
	if m == nil {
		return Recurrence{}, false
	}
	rec := Recurrence{Frequency: Daily, Hour: defaultHour}
	switch word := strings.ToLower(m[1] + m[2]); word {
	case "morning", "day", "daily":
	case "evening":
		rec.Hour = eveningHour
	case "night":
		rec.Hour = nightHour
	case "weekday":
		rec.Frequency = Weekdays
	case "week", "weekly":
		rec.Frequency = Weekly
		rec.Weekday = now.Weekday()
	default:
		rec.Frequency = Weekly
		rec.Weekday = weekdays[word]
	}
	return rec, true
}

func findOffset(text string) (time.Duration, bool) {
	m := offsetRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return amount(m[1], m[2])
}

func findDuration(text string) time.Duration {
	if m := durationRe.FindStringSubmatch(text); m != nil {
		if d, ok := amount(m[1], m[2]); ok && d > 0 {
			return d
		}
	}
	return DefaultDuration
}

// MaxOffset is the longest relative offset or duration accepted ("in 3 weeks").
// Larger amounts are not treated as time phrases.
const MaxOffset = 10 * 365 * 24 * time.Hour

func amount(qty, unit string) (time.Duration, bool) {
	var base time.Duration
	switch unit = strings.ToLower(unit); {
	case strings.HasPrefix(unit, "m"):
		base = time.Minute
	case strings.HasPrefix(unit, "h"):
		base = time.Hour
	case strings.HasPrefix(unit, "d"):
		base = 24 * time.Hour
	case strings.HasPrefix(unit, "w"):
		base = 7 * 24 * time.Hour
	default:
		return 0, false
	}

	qty = strings.ToLower(collapse(qty))
	if qty == "half an" {
		return base / 2, true
	}
	if n, ok := smallNumbers[qty]; ok {
		return time.Duration(n) * base, true
	}
	n, err := strconv.Atoi(qty)
	if err != nil || n <= 0 || n > int(MaxOffset/base) {
		return 0, false
	}
	return time.Duration(n) * base, true
}
