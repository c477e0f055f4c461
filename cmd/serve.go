package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/deskmate/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the assistant as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol.
		cfg.Log.Format = "json"

		a, err := newApp(cfg, appOptions{journal: true})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go a.engine.Run(ctx)

		fmt.Fprintf(os.Stderr, "deskmate MCP server %s started on stdio (intents=%d)\n", Version, len(a.registry.Actionable()))

		srv := mcpserver.NewServer(a.engine, a.registry)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
