package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ziadkadry99/deskmate/internal/assistant"
	"github.com/ziadkadry99/deskmate/internal/audit"
	"github.com/ziadkadry99/deskmate/internal/collaborator"
	"github.com/ziadkadry99/deskmate/internal/compose"
	"github.com/ziadkadry99/deskmate/internal/config"
	"github.com/ziadkadry99/deskmate/internal/db"
	"github.com/ziadkadry99/deskmate/internal/dialogue"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
	"github.com/ziadkadry99/deskmate/internal/intent"
	"github.com/ziadkadry99/deskmate/internal/logging"
	"github.com/ziadkadry99/deskmate/internal/metrics"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `deskmate init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app is everything a command needs to talk to the assistant.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *intent.Registry
	engine   *assistant.Engine
	metrics  *metrics.Metrics
	journal  *audit.Store
	calls    *collaborator.CallLog

	closers []func() error
}

type appOptions struct {
	// journal opens the database and records every dispatch.
	journal bool
	// metrics registers the Prometheus collectors.
	metrics bool
}

// newApp builds the assistant from cfg. Callers must Close the result.
func newApp(cfg *config.Config, opts appOptions) (a *app, err error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a = &app{cfg: cfg, logger: logger, registry: intent.DefaultRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	classifier := intent.NewClassifier(a.registry, intent.WithClock(func() time.Time {
		return time.Now().In(loc)
	}))

	store, err := a.dialogueStore()
	if err != nil {
		return nil, err
	}
	manager := dialogue.NewManager(store, classifier,
		dialogue.Policy{
			AcceptThreshold: cfg.Dialogue.AcceptThreshold,
			MaxReprompts:    cfg.Dialogue.MaxReprompts,
		},
		dialogue.WithIdleTimeout(cfg.Dialogue.IdleTimeout),
		dialogue.WithLogger(logger.Named("dialogue")),
	)

	var nc collaborator.Requester
	if cfg.UsesNATS() {
		conn, err := collaborator.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, drainer(conn))
		nc = conn
	}
	collaborators, calls, err := collaborator.Build(cfg, nc, logger.Named("collaborator"))
	if err != nil {
		return nil, err
	}
	a.calls = calls

	dispatchOpts := []dispatch.Option{
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithLogger(logger.Named("dispatch")),
	}
	engineOpts := []assistant.Option{
		assistant.WithLogger(logger.Named("assistant")),
		assistant.WithSweepInterval(cfg.Dialogue.SweepInterval),
	}

	if opts.metrics {
		if a.metrics, err = metrics.New(nil); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		dispatchOpts = append(dispatchOpts, dispatch.WithObserver(a.metrics))
		engineOpts = append(engineOpts, assistant.WithRecorder(a.metrics))
	}

	if opts.journal {
		database, err := db.Open(cfg.Server.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		a.journal = audit.NewStore(database)
		engineOpts = append(engineOpts, assistant.WithJournal(a.journal))
	}

	composer, err := compose.New(cfg.Compose.Seed)
	if err != nil {
		return nil, fmt.Errorf("loading phrases: %w", err)
	}

	a.engine = assistant.New(manager, dispatch.NewDispatcher(collaborators, dispatchOpts...), composer, engineOpts...)
	return a, nil
}

func (a *app) dialogueStore() (dialogue.Store, error) {
	d := a.cfg.Dialogue
	if d.Backend != config.BackendRedis {
		return dialogue.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: d.RedisAddr, DB: d.RedisDB})
	a.closers = append(a.closers, client.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", d.RedisAddr, err)
	}
	a.logger.Info("dialogue state in redis", zap.String("addr", d.RedisAddr))
	return dialogue.NewRedisStore(client, d.KeyPrefix, d.IdleTimeout), nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func drainer(nc *nats.Conn) func() error {
	return func() error { return nc.Drain() }
}
