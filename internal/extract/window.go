package extract

import "time"

// DefaultWindow is how far ahead a listing looks when the text names no day.
const DefaultWindow = 7 * 24 * time.Hour

// Window is a half-open range [From, To) used for listings.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DayWindow returns the listing range named by text: a single day for
// "today" or "on friday", the week starting next Monday for "next week",
// and the coming seven days otherwise.
func DayWindow(text string, now time.Time) Window {
	if nextWeekRe.MatchString(text) && !weekdayRe.MatchString(text) {
		from := midnight(now.AddDate(0, 0, daysUntil(now.Weekday(), time.Monday, true)))
		return Window{From: from, To: from.AddDate(0, 0, 7)}
	}
	if days, _, ok := findDay(text, now); ok {
		from := midnight(now.AddDate(0, 0, days))
		if days == 0 {
			from = now
		}
		return Window{From: from, To: midnight(now.AddDate(0, 0, days+1))}
	}
	return Window{From: now, To: now.Add(DefaultWindow)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
