package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/deskmate/internal/audit"
	"github.com/ziadkadry99/deskmate/internal/bots"
	"github.com/ziadkadry99/deskmate/internal/dashboard"
	"github.com/ziadkadry99/deskmate/internal/server"
)

const retentionInterval = time.Hour

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server with chat webhooks and the dashboard",
	Long: `Starts the deskmate HTTP server: Slack and Teams webhooks, the browser
chat dashboard, the action journal API and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		a, err := newApp(cfg, appOptions{journal: true, metrics: true})
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, a.logger.Named("http"))
		slack := registerAllRoutes(srv, a)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "deskmate server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.Server.DBPath)
		fmt.Fprintf(os.Stderr, "  Dialogue store: %s\n", cfg.Dialogue.Backend)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(ctx) })
		g.Go(func() error { return a.engine.Run(ctx) })
		g.Go(func() error { return pruneJournal(ctx, a.journal, cfg.Server.JournalRetention, a.logger) })

		err = g.Wait()
		slack.Wait()
		return err
	},
}

// registerAllRoutes mounts every feature on the server router.
func registerAllRoutes(srv *server.Server, a *app) *bots.SlackHandler {
	r := srv.Router()

	// Action journal
	audit.RegisterRoutes(r, a.journal)

	// Dashboard (browser chat)
	dash := dashboard.New(a.engine, a.registry,
		dashboard.WithPending(a.engine.Dialogue().Store()),
		dashboard.WithJournal(a.journal),
		dashboard.WithLogger(a.logger.Named("dashboard")),
		dashboard.WithAnyOrigin(a.cfg.Server.AllowAllOrigins),
	)
	dash.RegisterRoutes(r)

	// Bots (Slack & Teams)
	gateway := bots.NewGateway(bots.NewProcessor(a.engine))
	slackOpts := []bots.SlackOption{bots.WithSlackLogger(a.logger.Named("slack"))}
	if a.cfg.Server.SlackBotToken != "" {
		slackOpts = append(slackOpts, bots.WithSender(bots.NewSlackPoster(a.cfg.Server.SlackBotToken)))
	}
	slack := bots.NewSlackHandler(gateway, a.cfg.Server.SlackSigningSecret, slackOpts...)
	bots.RegisterRoutes(r, slack, bots.NewTeamsHandler(gateway, bots.WithTeamsLogger(a.logger.Named("teams"))))

	// Metrics
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}
	return slack
}

// pruneJournal deletes journal entries older than retention until ctx is done.
func pruneJournal(ctx context.Context, store *audit.Store, retention time.Duration, logger *zap.Logger) error {
	if store == nil || retention <= 0 {
		return nil
	}
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		n, err := store.DeleteBefore(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warn("pruning journal failed", zap.Error(err))
		case n > 0:
			logger.Info("pruned journal", zap.Int64("deleted", n))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
