package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"read my last 3 emails", 3, true},
		{"task 12 and 4", 12, true},
		{"no digits here", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Number(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		text string
		want []int
		ok   bool
	}{
		{"complete task 3", []int{3}, true},
		{"mark tasks 1,3,5 as done", []int{1, 3, 5}, true},
		{"tasks 1, 3 and 5", []int{1, 3, 5}, true},
		{"finish 2-4", []int{2, 3, 4}, true},
		{"tasks 4 to 2", []int{2, 3, 4}, true},
		{"タスク1と3を完了", []int{1, 3}, true},
		{"1-3, 3 and 7", []int{1, 2, 3, 7}, true},
		{"1-500", []int{1, 500}, true},
		{"no digits", nil, false},
	}
	for _, tt := range tests {
		got, ok := Numbers(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestHugeOffsetIsIgnored(t *testing.T) {
	for _, text := range []string{"in 9999999999 weeks", "in 99999999999999999999 days", "for 900000 hours"} {
		m := Time(text, now)
		assert.False(t, m.Found, text)
		assert.False(t, m.Expr.Start.Before(now), text)
	}
}

func TestContent(t *testing.T) {
	stop := NewStopWords("add", "task", "to my list", "my")

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"strips stop words and fillers", "add a task to buy milk", "buy milk", true},
		{"only stop words", "add a task", "", false},
		{"case insensitive", "ADD Task Call the bank", "Call the bank", true},
		{"phrase stop word", "add milk to my list", "milk", true},
		{"time phrases removed", "add task pay rent tomorrow at 5pm", "pay rent", true},
		{"quoted wins", `add "Quarterly report" task`, "Quarterly report", true},
		{"too short", "x", "", false},
		{"collapses whitespace", "add   water   plants  ", "water plants", true},
		{"lone article", "add the task", "", false},
		{"dangling called", "add a task called", "", false},
		{"only filler words", "show any new task", "", false},
		{"filler words around content", "add task see the doctor", "see the doctor", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Content(tt.text, stop)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentNilStopWords(t *testing.T) {
	got, ok := Content("  meeting prep ", nil)
	require.True(t, ok)
	assert.Equal(t, "meeting prep", got)
}

func TestNewStopWordsLongestFirst(t *testing.T) {
	sw := NewStopWords("to", "to my list", "", "  LIST ")
	assert.Equal(t, []string{"to my list", "list", "to"}, sw.Words())
}

func TestTime(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		start    time.Time
		specific bool
		found    bool
		hasClock bool
		hasDay   bool
	}{
		{"clock later today", "at 14:30", at(14, 14, 30), true, true, true, false},
		{"clock already passed rolls over", "9:15", at(15, 9, 15), true, true, true, false},
		{"meridiem", "call at 3pm", at(14, 15, 0), true, true, true, false},
		{"dotted clock", "10.45 please", at(14, 10, 45), true, true, true, false},
		{"noon", "lunch at noon", at(14, 12, 0), true, true, true, false},
		{"tomorrow with clock", "tomorrow at 14:30", at(15, 14, 30), true, true, true, true},
		{"tomorrow alone", "tomorrow", at(15, 9, 0), false, true, false, true},
		{"tonight", "tonight", at(14, 20, 0), false, true, false, true},
		{"day after tomorrow", "the day after tomorrow at 8am", at(16, 8, 0), true, true, true, true},
		{"next week", "next week", at(19, 9, 0), false, true, false, true},
		{"weekday with clock", "on friday at 10:30", at(16, 10, 30), true, true, true, true},
		{"next weekday", "next wednesday", at(21, 9, 0), false, true, false, true},
		{"minute offset", "in 30 minutes", at(14, 10, 30), true, true, false, false},
		{"half an hour", "in half an hour", at(14, 10, 30), true, true, false, false},
		{"day offset", "in 2 days", at(16, 9, 0), false, true, false, true},
		{"no marker", "nothing here", at(14, 11, 0), false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Time(tt.text, now)
			assert.Equal(t, tt.start, m.Expr.Start)
			assert.Equal(t, tt.specific, m.Expr.Specific)
			assert.Equal(t, tt.found, m.Found)
			assert.Equal(t, tt.hasClock, m.HasClock)
			assert.Equal(t, tt.hasDay, m.HasDay)
			assert.True(t, m.Expr.End.After(m.Expr.Start), "end must be after start")
			assert.Nil(t, m.Expr.Recurrence)
		})
	}
}

func TestTimeAbsoluteRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:05", "08:00", "12:30", "17:45", "23:59"} {
		want, err := time.ParseInLocation("2006-01-02 15:04", "2026-10-15 "+clock, time.UTC)
		require.NoError(t, err)

		m := Time("tomorrow at "+clock, now)
		assert.Equal(t, want, m.Expr.Start, clock)
		assert.True(t, m.Expr.Specific, clock)
	}
}

func TestTimeDuration(t *testing.T) {
	m := Time("tomorrow at 10:00 for 30 minutes", now)
	assert.Equal(t, at(15, 10, 0), m.Expr.Start)
	assert.Equal(t, 30*time.Minute, m.Expr.Duration())

	m = Time("standup", now)
	assert.Equal(t, DefaultDuration, m.Expr.Duration())
}

func TestTimeRecurrence(t *testing.T) {
	tests := []struct {
		text     string
		cron     string
		freq     Frequency
		start    time.Time
		specific bool
	}{
		{"every weekday", "0 9 * * 1-5", Weekdays, at(15, 9, 0), false},
		{"every morning at 7:45", "45 7 * * *", Daily, at(15, 7, 45), true},
		{"every evening", "0 19 * * *", Daily, at(14, 19, 0), false},
		{"every monday", "0 9 * * 1", Weekly, at(19, 9, 0), false},
		{"water plants daily at 11:00", "0 11 * * *", Daily, at(14, 11, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := Time(tt.text, now)
			require.NotNil(t, m.Expr.Recurrence)
			assert.Equal(t, tt.cron, m.Expr.Recurrence.Cron)
			assert.Equal(t, tt.freq, m.Expr.Recurrence.Frequency)
			assert.Equal(t, tt.start, m.Expr.Start)
			assert.Equal(t, tt.specific, m.Expr.Specific)
			assert.True(t, m.HasDay)
		})
	}
}

func TestRefineClock(t *testing.T) {
	prev := Time("tomorrow", now).Expr
	require.False(t, prev.Specific)

	got, ok := RefineClock(prev, "10:30", now)
	require.True(t, ok)
	assert.Equal(t, at(15, 10, 30), got.Start)
	assert.Equal(t, at(15, 11, 30), got.End)
	assert.True(t, got.Specific)

	_, ok = RefineClock(prev, "sounds good", now)
	assert.False(t, ok)

	got, ok = RefineClock(prev, "friday at 16:00", now)
	require.True(t, ok)
	assert.Equal(t, at(16, 16, 0), got.Start)
}

func TestRefineClockRecurrence(t *testing.T) {
	prev := Time("every weekday", now).Expr

	got, ok := RefineClock(prev, "8:00", now)
	require.True(t, ok)
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, "0 8 * * 1-5", got.Recurrence.Cron)
	assert.Equal(t, at(15, 8, 0), got.Start)
	assert.True(t, got.Specific)
	assert.Equal(t, "0 9 * * 1-5", prev.Recurrence.Cron, "previous expression must not be mutated")
}

func TestStripTime(t *testing.T) {
	assert.Equal(t, "dentist", StripTime("dentist tomorrow at 14:30"))
	assert.Equal(t, "standup", StripTime("standup every weekday at 9:15"))
	assert.True(t, HasTime("in 5 minutes"))
	assert.False(t, HasTime("buy milk"))
}

func TestDayWindow(t *testing.T) {
	w := DayWindow("what's on today", now)
	assert.Equal(t, now, w.From)
	assert.Equal(t, at(15, 0, 0), w.To)

	w = DayWindow("anything on friday", now)
	assert.Equal(t, at(16, 0, 0), w.From)
	assert.Equal(t, at(17, 0, 0), w.To)

	w = DayWindow("next week", now)
	assert.Equal(t, at(19, 0, 0), w.From)
	assert.Equal(t, at(26, 0, 0), w.To)

	w = DayWindow("my meetings", now)
	assert.Equal(t, now, w.From)
	assert.Equal(t, now.Add(DefaultWindow), w.To)
}
