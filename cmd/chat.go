package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/deskmate/internal/bots"
	"github.com/ziadkadry99/deskmate/internal/config"
)

var (
	chatDryRun bool
	chatUser   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an interactive chat session. Type a request such as "check my mail"
or "add a task called review budget"; answer follow-up questions with a
number to pick a suggestion. Press Ctrl+D or type "exit" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if chatDryRun {
			cfg.Collaborators = config.DefaultCollaborators()
		}

		a, err := newApp(cfg, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runChat(ctx, a, chatUser)
	},
}

func runChat(ctx context.Context, a *app, userID string) error {
	fmt.Println("deskmate chat. Type \"exit\" to quit.")
	for {
		prompt := promptui.Prompt{Label: "you"}
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		}

		reply := a.engine.HandleMessage(ctx, userID, line)
		if reply.Silent {
			continue
		}
		fmt.Println(bots.Render(reply))
		if verbose {
			fmt.Printf("  [intent: %s, state: %s, outcome: %s]\n", reply.Intent, reply.State, reply.Outcome)
		}
	}
}

func init() {
	chatCmd.Flags().BoolVar(&chatDryRun, "dry-run", false, "answer every action locally instead of calling collaborators")
	chatCmd.Flags().StringVar(&chatUser, "user", "cli", "user id for the session")
	rootCmd.AddCommand(chatCmd)
}
