package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/deskmate/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "deskmate",
	Short: "Conversational front end for mail, tasks, documents and calendar",
	Long: `deskmate turns short chat messages into actions on your mail, task,
document, spreadsheet, calendar and note services. When a request is
ambiguous or incomplete it asks a follow-up question and offers
suggested replies instead of guessing.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
