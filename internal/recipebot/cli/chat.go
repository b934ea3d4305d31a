package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/spf13/cobra"
)

// NewChatCmd creates the chat command, a terminal front end to the router.
func NewChatCmd() *cobra.Command {
	var (
		userID   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot from the terminal",
		Long: `Reads one message per line from stdin and prints the bot's replies.
Type /quit or send EOF to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := runContext(cmd)
			cfg := config.Load()
			logger, err := logx.NewDevelopment(logLevel)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, dim("Type /help for commands, /quit to leave."))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprintf(out, "%s ", userStyle(userID+">"))
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "/quit" || text == "/exit" {
					return nil
				}
				if text == "" {
					continue
				}

				replies := a.router.Handle(ctx, router.Message{
					UserID:    userID,
					Text:      text,
					IsCommand: strings.HasPrefix(text, "/"),
				})
				for _, reply := range replies {
					fmt.Fprintln(out, replyStyle(reply))
				}
			}
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "local", "user id the messages are sent as")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "log level for the session")
	return cmd
}
