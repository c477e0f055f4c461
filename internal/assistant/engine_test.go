package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ziadkadry99/deskmate/internal/compose"
	"github.com/ziadkadry99/deskmate/internal/dialogue"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

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

// fake records calls for one collaborator and answers with reply or err.
type fake struct {
	mu    sync.Mutex
	calls []dispatch.Call
	reply map[string]any
	err   error
}

func (f *fake) Invoke(_ context.Context, op string, params map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatch.Call{Operation: op, Params: params})
	return f.reply, f.err
}

func (f *fake) Calls() []dispatch.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatch.Call(nil), f.calls...)
}

type journal struct {
	mu      sync.Mutex
	entries []intent.Tag
}

func (j *journal) RecordDispatch(_ context.Context, _ string, tag intent.Tag, _ dispatch.ActionResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, tag)
	return nil
}

type counters struct {
	mu       sync.Mutex
	outcomes map[string]int
	clarify  map[string]int
	pending  int
}

func newCounters() *counters {
	return &counters{outcomes: map[string]int{}, clarify: map[string]int{}, pending: -1}
}

func (c *counters) IntentClassified(string) {}

func (c *counters) ClarificationIssued(req string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clarify[req]++
}

func (c *counters) Outcome(o string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o]++
}

func (c *counters) PendingDialogues(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = n
}

type harness struct {
	engine  *Engine
	clock   *clock
	fakes   map[string]*fake
	journal *journal
	stats   *counters
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:   &clock{now: now},
		fakes:   map[string]*fake{},
		journal: &journal{},
		stats:   newCounters(),
	}
	reg := dispatch.NewRegistry()
	for _, name := range dispatch.Collaborators {
		f := &fake{reply: map[string]any{"message": name + " ok"}}
		h.fakes[name] = f
		reg.Register(name, f)
	}

	c := intent.NewClassifier(intent.DefaultRegistry(), intent.WithClock(h.clock.Now))
	m := dialogue.NewManager(dialogue.NewMemoryStore(), c, dialogue.DefaultPolicy())
	comp, err := compose.New(1)
	require.NoError(t, err)

	opts = append([]Option{WithJournal(h.journal), WithRecorder(h.stats)}, opts...)
	h.engine = New(m, dispatch.NewDispatcher(reg, dispatch.WithTimeout(time.Second)), comp, opts...)
	return h
}

func TestCheckMailDispatchesDefaultCount(t *testing.T) {
	h := newHarness(t)

	r := h.engine.HandleMessage(context.Background(), "u1", "check my mail")
	assert.Equal(t, intent.ReadMail, r.Intent)
	assert.Equal(t, OutcomeDispatched, r.Outcome)
	assert.Contains(t, r.Text, "mail ok")
	assert.False(t, r.Silent)

	calls := h.fakes[dispatch.Mail].Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, dispatch.OpCheck, calls[0].Operation)
	assert.Equal(t, 5, calls[0].Params["count"])
	assert.Equal(t, []intent.Tag{intent.ReadMail}, h.journal.entries)
}

func TestTaskWithoutTitleAsksThenDispatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r := h.engine.HandleMessage(ctx, "u1", "add a task")
	assert.Equal(t, intent.CreateTask, r.Intent)
	assert.Equal(t, OutcomeClarification, r.Outcome)
	assert.Contains(t, r.Text, "?")
	assert.GreaterOrEqual(t, len(r.SuggestedReplies), 2)
	assert.Empty(t, h.fakes[dispatch.Tasks].Calls())

	r = h.engine.HandleMessage(ctx, "u1", "meeting prep")
	assert.Equal(t, OutcomeDispatched, r.Outcome)
	calls := h.fakes[dispatch.Tasks].Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, dispatch.OpCreate, calls[0].Operation)
	assert.Equal(t, "meeting prep", calls[0].Params["title"])
	assert.Equal(t, 1, h.stats.clarify["slot:title"])
}

func TestVagueEventWaitsForDetails(t *testing.T) {
	h := newHarness(t)

	r := h.engine.HandleMessage(context.Background(), "u1", "put something on my calendar tomorrow")
	assert.Equal(t, intent.CreateEvent, r.Intent)
	assert.Equal(t, OutcomeClarification, r.Outcome)
	assert.NotEmpty(t, r.SuggestedReplies)
	assert.Empty(t, h.fakes[dispatch.Calendar].Calls())
}

func TestFillerOffersEveryIntent(t *testing.T) {
	h := newHarness(t)

	r := h.engine.HandleMessage(context.Background(), "u1", "please help me out")
	assert.Equal(t, intent.ClarificationNeeded, r.Intent)
	assert.Len(t, r.SuggestedReplies, len(intent.ActionTags))
	for _, d := range intent.DefaultRegistry().Actionable() {
		assert.Contains(t, r.SuggestedReplies, d.Example)
	}
}

func TestUnknownOffersMenu(t *testing.T) {
	h := newHarness(t)

	r := h.engine.HandleMessage(context.Background(), "u1", "?!")
	assert.Equal(t, OutcomeUnknown, r.Outcome)
	assert.Contains(t, r.Text, "Try one of these:")
	assert.Len(t, r.SuggestedReplies, len(intent.ActionTags))
}

func TestCollaboratorFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.fakes[dispatch.Mail].err = errors.New("mailbox locked")

	r := h.engine.HandleMessage(context.Background(), "u1", "check my mail")
	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Contains(t, r.Text, "mailbox locked")
	require.NotNil(t, r.Result)
	assert.False(t, r.Result.Success)
	assert.Equal(t, 1, h.stats.outcomes[OutcomeFailed])
}

func TestCancelPendingClarification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleMessage(ctx, "u1", "add a task")
	require.NoError(t, h.engine.CancelPending(ctx, "u1"))

	r := h.engine.HandleMessage(ctx, "u1", "meeting prep")
	assert.NotEqual(t, OutcomeDispatched, r.Outcome)
	assert.Empty(t, h.fakes[dispatch.Tasks].Calls())
}

func TestCancelWordMidDialogue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleMessage(ctx, "u1", "add a task")
	r := h.engine.HandleMessage(ctx, "u1", "never mind")
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.NotEmpty(t, r.Text)
}

// blocking holds every call until its context ends.
type blocking struct {
	started chan struct{}
}

func (b *blocking) Invoke(ctx context.Context, _ string, _ map[string]any) (map[string]any, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCancelWordAbortsInflightCall(t *testing.T) {
	b := &blocking{started: make(chan struct{})}
	reg := dispatch.NewRegistry()
	reg.Register(dispatch.Mail, b)

	c := intent.NewClassifier(intent.DefaultRegistry(), intent.WithClock(func() time.Time { return now }))
	m := dialogue.NewManager(dialogue.NewMemoryStore(), c, dialogue.DefaultPolicy())
	comp, err := compose.New(1)
	require.NoError(t, err)
	e := New(m, dispatch.NewDispatcher(reg, dispatch.WithTimeout(time.Minute)), comp)

	done := make(chan Reply, 1)
	go func() { done <- e.HandleMessage(context.Background(), "u1", "check my mail") }()

	<-b.started
	r := e.HandleMessage(context.Background(), "u1", "cancel")
	assert.Equal(t, OutcomeCancelled, r.Outcome)

	first := <-done
	assert.True(t, first.Silent)
	assert.Equal(t, OutcomeAborted, first.Outcome)
	assert.Empty(t, first.Text)
}

func TestInterruptAbortsWithoutQueueing(t *testing.T) {
	b := &blocking{started: make(chan struct{})}
	reg := dispatch.NewRegistry()
	reg.Register(dispatch.Mail, b)

	c := intent.NewClassifier(intent.DefaultRegistry(), intent.WithClock(func() time.Time { return now }))
	m := dialogue.NewManager(dialogue.NewMemoryStore(), c, dialogue.DefaultPolicy())
	comp, err := compose.New(1)
	require.NoError(t, err)
	e := New(m, dispatch.NewDispatcher(reg, dispatch.WithTimeout(time.Minute)), comp)

	done := make(chan Reply, 1)
	go func() { done <- e.HandleMessage(context.Background(), "u1", "check my mail") }()
	<-b.started

	assert.False(t, e.Interrupt("u1", "check my mail"), "only cancel words interrupt")
	assert.False(t, e.Interrupt("u2", "cancel"))
	assert.True(t, e.Interrupt("u1", "cancel"))
	assert.True(t, (<-done).Silent)

	r := e.HandleMessage(context.Background(), "u1", "cancel")
	assert.Equal(t, OutcomeCancelled, r.Outcome)
}

func waiters(k *keyedMutex, key string) int {
	s := k.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return len(l.waiters)
	}
	return 0
}

func TestKeyedMutexGrantsInArrivalOrder(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("u1")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release := k.Lock("u1")
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}(i)
		require.Eventually(t, func() bool { return waiters(&k, "u1") == i+1 }, time.Second, time.Millisecond)
	}

	free := k.Lock("u2")
	free()
	unlock()
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, k.size())
}

func TestUsersDoNotShareDialogues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleMessage(ctx, "alice", "add a task")
	r := h.engine.HandleMessage(ctx, "bob", "meeting prep")
	assert.NotEqual(t, OutcomeDispatched, r.Outcome)

	r = h.engine.HandleMessage(ctx, "alice", "meeting prep")
	assert.Equal(t, OutcomeDispatched, r.Outcome)
}

func TestConcurrentUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := string(rune('a' + i%8))
			h.engine.HandleMessage(ctx, user, "check my mail")
		}(i)
	}
	wg.Wait()

	assert.Len(t, h.fakes[dispatch.Mail].Calls(), 32)
	assert.Zero(t, h.engine.locks.size())
}

func TestSweepRemovesStaleDialogues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.HandleMessage(ctx, "u1", "add a task")
	h.engine.Sweep(ctx)
	assert.Equal(t, 1, h.stats.pending)

	h.clock.Advance(dialogue.DefaultIdleTimeout + time.Minute)
	h.engine.Sweep(ctx)
	assert.Equal(t, 0, h.stats.pending)
}

func TestRunStopsWithContext(t *testing.T) {
	h := newHarness(t, WithSweepInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- h.engine.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
