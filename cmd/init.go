package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/deskmate/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize deskmate configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks a transport for each collaborator and generates a .deskmate.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		if cfgFile != config.DefaultPath {
			if err := cfg.Save(cfgFile); err != nil {
				return err
			}
			fmt.Printf("Configuration also saved to %s\n", cfgFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
