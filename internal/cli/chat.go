package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/conversation"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the task assistant",
		Long:  "Send one message, or start an interactive session when no message is given. Pass -c to continue an earlier conversation.",
		Run:   runChat,
	}

	cmd.Flags().StringP("conversation", "c", "", "Conversation id to continue")

	RootCmd.AddCommand(cmd)
}

type chatFunc func(ctx context.Context, message, conversationID string) (*assistant.ChatResponse, error)

func (a *app) chatter(user string) chatFunc {
	if a.remote != nil {
		return func(ctx context.Context, message, conversationID string) (*assistant.ChatResponse, error) {
			return a.remote.Chat(ctx, user, message, conversationID)
		}
	}
	asst := assistant.New(
		a.gateway,
		conversation.NewService(a.local, a.logger),
		assistant.NewRuleInterpreter(a.search),
		a.cfg.Chat.HistoryBudget,
		a.logger,
	)
	return func(ctx context.Context, message, conversationID string) (*assistant.ChatResponse, error) {
		return asst.Chat(ctx, assistant.ChatRequest{UserID: user, Message: message, ConversationID: conversationID})
	}
}

func runChat(cmd *cobra.Command, args []string) {
	convID, _ := cmd.Flags().GetString("conversation")

	a := openApp()
	defer a.Close()

	chat := a.chatter(a.whoami(cmd))
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		resp, err := chat(cmd.Context(), strings.Join(args, " "), convID)
		if err != nil {
			exitErr("chat", err)
		}
		if textMode() {
			fmt.Fprintln(out, resp.Response)
			fmt.Fprintf(cmd.ErrOrStderr(), "conversation: %s\n", resp.ConversationID)
			return
		}
		printJSON(out, resp)
		return
	}

	fmt.Fprintln(out, `Type a message, "help" for examples, or "exit" to quit.`)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		resp, err := chat(cmd.Context(), line, convID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		convID = resp.ConversationID
		fmt.Fprintln(out, resp.Response)
	}
	if convID != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "conversation: %s\n", convID)
	}
}
