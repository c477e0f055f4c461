package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/assistant"
	"github.com/ziadkadry99/deskmate/internal/audit"
	"github.com/ziadkadry99/deskmate/internal/config"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
	"github.com/ziadkadry99/deskmate/internal/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "deskmate.db")
	cfg.Log.Level = "error"
	cfg.Compose.Seed = 1
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts appOptions) *app {
	t.Helper()
	a, err := newApp(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewAppDryRunDispatch(t *testing.T) {
	a := newTestApp(t, testConfig(t), appOptions{journal: true, metrics: true})
	ctx := context.Background()

	r := a.engine.HandleMessage(ctx, "u1", "check my mail")
	assert.Equal(t, assistant.OutcomeDispatched, r.Outcome)
	assert.NotEmpty(t, r.Text)

	calls := a.calls.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, dispatch.Mail, calls[0].Collaborator)

	sum, err := a.journal.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
}

func TestNewAppWithoutJournal(t *testing.T) {
	a := newTestApp(t, testConfig(t), appOptions{})
	assert.Nil(t, a.journal)
	assert.Nil(t, a.metrics)

	r := a.engine.HandleMessage(context.Background(), "u1", "show my tasks")
	assert.Equal(t, assistant.OutcomeDispatched, r.Outcome)
}

func TestNewAppRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Dialogue.Backend = config.BackendRedis
	cfg.Dialogue.RedisAddr = mr.Addr()

	a := newTestApp(t, cfg, appOptions{})
	ctx := context.Background()

	r := a.engine.HandleMessage(ctx, "u1", "add a task")
	require.Equal(t, assistant.OutcomeClarification, r.Outcome)

	n, err := a.engine.Dialogue().Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r = a.engine.HandleMessage(ctx, "u1", "meeting prep")
	assert.Equal(t, assistant.OutcomeDispatched, r.Outcome)
}

func TestNewAppRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Dialogue.Backend = config.BackendRedis
	cfg.Dialogue.RedisAddr = addr

	_, err = newApp(cfg, appOptions{})
	assert.ErrorContains(t, err, "connecting to redis")
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskmate.yml")
	require.NoError(t, os.WriteFile(path, []byte("dialogue:\n  accept_threshold: 2\n"), 0644))

	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })

	_, err := loadConfig()
	assert.ErrorContains(t, err, "accept_threshold")
}

func TestRegisterAllRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(t), appOptions{journal: true, metrics: true})
	srv := server.New(server.Config{Port: 0}, zap.NewNop())
	registerAllRoutes(srv, a)
	a.engine.HandleMessage(context.Background(), "u1", "check my mail")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/", "/api/dashboard/stats", "/api/dashboard/intents", "/api/audit", "/api/audit/summary", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "deskmate_")
}

func TestPruneJournalDisabled(t *testing.T) {
	assert.NoError(t, pruneJournal(context.Background(), nil, time.Hour, zap.NewNop()))

	a := newTestApp(t, testConfig(t), appOptions{journal: true})
	assert.NoError(t, pruneJournal(context.Background(), a.journal, 0, zap.NewNop()))
}

func TestPruneJournalDeletesOldEntries(t *testing.T) {
	a := newTestApp(t, testConfig(t), appOptions{journal: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.journal.Log(ctx, audit.Entry{UserID: "u1", Intent: "read-mail", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, a.journal.Log(ctx, audit.Entry{UserID: "u1", Intent: "read-mail"}))

	done := make(chan error, 1)
	go func() { done <- pruneJournal(ctx, a.journal, 24*time.Hour, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		sum, err := a.journal.Summarize(context.Background())
		return err == nil && sum.Total == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pruneJournal did not return after cancel")
	}
}
