package dialogue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/deskmate/internal/intent"
)

var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, store Store) (*Manager, *clock) {
	t.Helper()
	clk := &clock{now: now}
	c := intent.NewClassifier(intent.DefaultRegistry(), intent.WithClock(clk.Now))
	return NewManager(store, c, DefaultPolicy()), clk
}

func pendingFor(t *testing.T, m *Manager, userID string) (PendingIntent, bool) {
	t.Helper()
	p, err := m.Store().Get(context.Background(), userID)
	if err != nil {
		require.ErrorIs(t, err, ErrNotFound)
		return PendingIntent{}, false
	}
	return p, true
}

func TestResolvedImmediately(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())

	turn := m.Handle(context.Background(), "u1", "check my mail")
	assert.Equal(t, Resolved, turn.State)
	assert.Equal(t, intent.ReadMail, turn.Intent.Type)
	assert.Nil(t, turn.Prompt)

	_, ok := pendingFor(t, m, "u1")
	assert.False(t, ok)
}

func TestUnknownStaysIdle(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())

	turn := m.Handle(context.Background(), "u1", "?!")
	assert.Equal(t, Idle, turn.State)
	assert.Equal(t, intent.Unknown, turn.Intent.Type)
	_, ok := pendingFor(t, m, "u1")
	assert.False(t, ok)
}

func TestTaskTitleClarification(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "add a task")
	require.Equal(t, AwaitingResolution, turn.State)
	require.NotNil(t, turn.Prompt)
	assert.Equal(t, Requirement{Kind: NeedSlot, Slot: intent.ParamTitle}, turn.Prompt.Requirement)
	assert.GreaterOrEqual(t, len(turn.Prompt.Options), 2)
	assert.NotEmpty(t, turn.Prompt.Question)

	p, ok := pendingFor(t, m, "u1")
	require.True(t, ok)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, turn.Prompt.Options, p.PromptedOptions)

	turn = m.Handle(ctx, "u1", "meeting prep")
	require.Equal(t, Resolved, turn.State)
	assert.Equal(t, intent.CreateTask, turn.Intent.Type)
	title, _ := turn.Intent.Params.String(intent.ParamTitle)
	assert.Equal(t, "meeting prep", title)

	_, ok = pendingFor(t, m, "u1")
	assert.False(t, ok, "resolved intents are removed before the turn returns")
}

func TestAnswerIsNotAppliedTwice(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "add a task")
	first := m.Handle(ctx, "u1", "meeting prep")
	require.Equal(t, Resolved, first.State)

	second := m.Handle(ctx, "u1", "meeting prep")
	assert.NotEqual(t, intent.CreateTask, second.Intent.Type, "a repeated answer is classified fresh")
}

func TestPickOptionByNumber(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "add a task")
	require.Equal(t, AwaitingResolution, turn.State)

	turn = m.Handle(ctx, "u1", "2")
	require.Equal(t, Resolved, turn.State)
	title, _ := turn.Intent.Params.String(intent.ParamTitle)
	assert.Equal(t, "Buy groceries", title)
}

func TestEventTimeClarification(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "put something on my calendar tomorrow")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.Equal(t, intent.CreateEvent, turn.Intent.Type)
	assert.True(t, turn.Intent.NeedsConfirmation)

	if turn.Prompt.Requirement.Slot == intent.ParamTitle {
		turn = m.Handle(ctx, "u1", "team sync")
		require.Equal(t, AwaitingResolution, turn.State)
	}
	require.Equal(t, Requirement{Kind: NeedTime, Slot: intent.ParamTime}, turn.Prompt.Requirement)
	assert.Contains(t, turn.Prompt.Options, "yes, keep 09:00")

	turn = m.Handle(ctx, "u1", "3pm")
	require.Equal(t, Resolved, turn.State)
	tm, ok := turn.Intent.Params.Time(intent.ParamTime)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC), tm.Start)
}

func TestCompleteAllTasksAsksForNumbers(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "mark all tasks as done")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.Equal(t, intent.CompleteTask, turn.Intent.Type)
	assert.Equal(t, Requirement{Kind: NeedSlot, Slot: intent.ParamIndex}, turn.Prompt.Requirement)

	turn = m.Handle(ctx, "u1", "1 and 3")
	require.Equal(t, Resolved, turn.State)
	n, _ := turn.Intent.Params.Int(intent.ParamIndex)
	assert.Equal(t, 1, n)
	ns, ok := turn.Intent.Params.Ints(intent.ParamIndices)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, ns)
}

func TestReminderAsksForTime(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "remind me to stretch")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.Equal(t, intent.CreateReminder, turn.Intent.Type)
	require.Equal(t, Requirement{Kind: NeedTime, Slot: intent.ParamTime}, turn.Prompt.Requirement)
	assert.Contains(t, turn.Prompt.Question, "When should I remind you?")

	turn = m.Handle(ctx, "u1", "tomorrow at 8am")
	require.Equal(t, Resolved, turn.State)
	what, _ := turn.Intent.Params.String(intent.ParamWhat)
	assert.Equal(t, "stretch", what)
	tm, _ := turn.Intent.Params.Time(intent.ParamTime)
	assert.Equal(t, time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC), tm.Start)
}

func TestEventKeepDefaultTime(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "schedule a meeting tomorrow")
	if turn.State == AwaitingResolution && turn.Prompt.Requirement.Slot == intent.ParamTitle {
		turn = m.Handle(ctx, "u1", "team sync")
	}
	require.Equal(t, AwaitingResolution, turn.State)
	require.Equal(t, NeedTime, turn.Prompt.Requirement.Kind)

	turn = m.Handle(ctx, "u1", "yes")
	require.Equal(t, Resolved, turn.State)
	tm, _ := turn.Intent.Params.Time(intent.ParamTime)
	assert.True(t, tm.Confirmed)
	assert.Equal(t, time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC), tm.Start)
}

func TestClarificationNeededOffersEveryIntent(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "please help me out")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.Equal(t, intent.ClarificationNeeded, turn.Intent.Type)
	require.NotNil(t, turn.Prompt)
	assert.Equal(t, NeedIntent, turn.Prompt.Requirement.Kind)

	reg := intent.DefaultRegistry()
	c := intent.NewClassifier(reg)
	var covered []intent.Tag
	for _, opt := range turn.Prompt.Options {
		covered = append(covered, c.Classify(opt, "u1").Type)
	}
	assert.ElementsMatch(t, intent.ActionTags, covered)

	turn = m.Handle(ctx, "u1", "1")
	assert.Equal(t, AwaitingResolution, turn.State, "first option needs a title")
	assert.Equal(t, intent.CreateTask, turn.Intent.Type)
}

func TestCancelPending(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "add a task")
	turn := m.Handle(ctx, "u1", "never mind")
	assert.True(t, turn.Cancelled)
	assert.Equal(t, Idle, turn.State)

	_, ok := pendingFor(t, m, "u1")
	assert.False(t, ok)
}

func TestRepromptThenGiveUp(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "please help me out")
	turn := m.Handle(ctx, "u1", "hmm")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.True(t, turn.Prompt.Retry)
	p, _ := pendingFor(t, m, "u1")
	assert.Equal(t, 1, p.Attempts)

	turn = m.Handle(ctx, "u1", "whatever")
	assert.True(t, turn.Fallback)
	assert.Equal(t, Idle, turn.State)
	assert.NotEmpty(t, turn.Prompt.Options)
	_, ok := pendingFor(t, m, "u1")
	assert.False(t, ok)
}

func TestGiveUpClassifiesFresh(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "schedule a meeting tomorrow")
	if turn.State == AwaitingResolution && turn.Prompt.Requirement.Slot == intent.ParamTitle {
		m.Handle(ctx, "u1", "team sync")
	}
	turn = m.Handle(ctx, "u1", "hmm")
	require.Equal(t, AwaitingResolution, turn.State)
	require.Equal(t, NeedTime, turn.Prompt.Requirement.Kind)

	turn = m.Handle(ctx, "u1", "check my mail")
	assert.Equal(t, Resolved, turn.State)
	assert.Equal(t, intent.ReadMail, turn.Intent.Type)
}

func TestConfirmLowConfidence(t *testing.T) {
	def, ok := intent.DefaultRegistry().Lookup(intent.ReadMail)
	require.True(t, ok)
	def.Confidence = 0.5
	reg := intent.MustRegistry(def)
	c := intent.NewClassifier(reg, intent.WithClock(func() time.Time { return now }))
	m := NewManager(NewMemoryStore(), c, DefaultPolicy())
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "check my mail")
	require.Equal(t, AwaitingResolution, turn.State)
	assert.Equal(t, NeedConfirm, turn.Prompt.Requirement.Kind)
	assert.Equal(t, []string{"yes", "no"}, turn.Prompt.Options)

	turn = m.Handle(ctx, "u1", "yes")
	assert.Equal(t, Resolved, turn.State)

	m.Handle(ctx, "u1", "check my mail")
	turn = m.Handle(ctx, "u1", "no")
	assert.True(t, turn.Cancelled)
}

func TestExpiredPendingIsDiscarded(t *testing.T) {
	m, clk := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "add a task")
	clk.Advance(DefaultIdleTimeout)

	turn := m.Handle(ctx, "u1", "meeting prep")
	assert.True(t, turn.Expired)
	assert.NotEqual(t, Resolved, turn.State)
}

func TestSweep(t *testing.T) {
	m, clk := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "add a task")
	clk.Advance(10 * time.Minute)
	m.Handle(ctx, "u2", "add a task")
	clk.Advance(6 * time.Minute)

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := pendingFor(t, m, "u1")
	assert.False(t, ok)
	_, ok = pendingFor(t, m, "u2")
	assert.True(t, ok)
}

func TestUsersAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	m.Handle(ctx, "u1", "add a task")
	turn := m.Handle(ctx, "u2", "meeting prep")
	assert.NotEqual(t, intent.CreateTask, turn.Intent.Type)

	turn = m.Handle(ctx, "u1", "meeting prep")
	assert.Equal(t, Resolved, turn.State)
}

func TestWords(t *testing.T) {
	for _, s := range []string{"no", "Cancel.", "never mind", "forget it!"} {
		assert.True(t, IsCancel(s), s)
	}
	for _, s := range []string{"no problem, add milk", "cancel my meeting tomorrow"} {
		assert.False(t, IsCancel(s), s)
	}
	for _, s := range []string{"yes", "Sure!", "yes, keep 09:00", "ok then"} {
		assert.True(t, IsAffirmative(s), s)
	}
	for _, s := range []string{"go to the gym", "right after lunch", "maybe"} {
		assert.False(t, IsAffirmative(s), s)
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			require.NoError(t, s.Put(ctx, PendingIntent{UserID: id, UpdatedAt: now}))
			_, err := s.Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client, "", DefaultIdleTimeout)
	ctx := context.Background()

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	in := intent.Intent{
		Type:       intent.CreateTask,
		Confidence: 0.85,
		Params:     intent.Params{intent.ParamTitle: "pay rent"},
	}
	p := PendingIntent{
		ID: "p1", UserID: "u1", Intent: in,
		CreatedAt: now, UpdatedAt: now,
		Awaiting:        Requirement{Kind: NeedConfirm},
		PromptedOptions: []string{"yes", "no"},
	}
	require.NoError(t, s.Put(ctx, p))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"u1"))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.Awaiting, got.Awaiting)
	assert.Equal(t, intent.CreateTask, got.Intent.Type)
	title, _ := got.Intent.Params.String(intent.ParamTitle)
	assert.Equal(t, "pay rent", title)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mr.FastForward(DefaultIdleTimeout + time.Second)
	_, err = s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound, "keys expire with the idle timeout")
}

func TestRedisStoreSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client, "test:", 0)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, PendingIntent{UserID: "old", UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Put(ctx, PendingIntent{UserID: "new", UpdatedAt: now}))
	require.NoError(t, mr.Set("test:broken", "{not json"))

	n, err := s.Sweep(ctx, now.Add(-DefaultIdleTimeout))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("test:old"))
	assert.True(t, mr.Exists("test:new"))
}

func TestManagerWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m, _ := newTestManager(t, NewRedisStore(client, "", DefaultIdleTimeout))
	ctx := context.Background()

	turn := m.Handle(ctx, "u1", "add a task")
	require.Equal(t, AwaitingResolution, turn.State)

	turn = m.Handle(ctx, "u1", "meeting prep")
	require.Equal(t, Resolved, turn.State)
	title, _ := turn.Intent.Params.String(intent.ParamTitle)
	assert.Equal(t, "meeting prep", title)
	assert.False(t, mr.Exists(DefaultKeyPrefix+"u1"))
}

func TestMachineTransitions(t *testing.T) {
	c := intent.NewClassifier(nil, intent.WithClock(func() time.Time { return now }))
	mc := NewMachine(c, DefaultPolicy())

	out := mc.Start("u1", c.Classify("add a task", "u1"), now)
	require.Equal(t, AwaitingResolution, out.State)
	require.NotNil(t, out.Pending)

	retry := mc.Answer(*out.Pending, "", now)
	assert.Equal(t, AwaitingResolution, retry.State)
	assert.Equal(t, 1, retry.Pending.Attempts)

	done := mc.Answer(*retry.Pending, "call the plumber", now)
	assert.Equal(t, Resolved, done.State)
	assert.Nil(t, done.Pending)
}
