package cli

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/adapters/driving/tui"
	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

var (
	chatPlain bool
	chatModel string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your ingested documents",
	Long: `Chat starts an interactive session. Each question is answered by the
configured model using only the most relevant ingested chunks as
context; the model is instructed not to answer beyond them.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-based session instead of the full-screen interface")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "chat model to use (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatModel != "" {
		cfg.LLM.Model = chatModel
	}
	if _, err := wireChat(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if chatPlain {
		return runPlainChat(ctx, cmd)
	}
	return tui.Run(ctx, chatService, cfg.LLM.Model)
}

// runPlainChat reads questions line by line. Used for terminals where the
// full-screen interface is unwanted, and for piping.
func runPlainChat(ctx context.Context, cmd *cobra.Command) error {
	cmd.Printf("Chatting with %s. Type a question, or 'exit' to quit.\n\n", cfg.LLM.Model)

	var conv domain.Conversation
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Printf("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, updated, err := chatService.Answer(ctx, conv, question)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			cmd.Printf("Error: %v\n\n", err)
			continue
		}
		conv = updated
		cmd.Printf("\n%s\n\n", answer)
	}
}
