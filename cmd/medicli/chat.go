package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
	chatservice "github.com/zhouzirui/medicare/backend/internal/service/chat"
	"github.com/zhouzirui/medicare/backend/internal/service/remote"
	"github.com/zhouzirui/medicare/backend/internal/service/triage"
	"github.com/zhouzirui/medicare/backend/pkg/log"
)

const quitCommand = "/quit"

func newChatCmd() *cobra.Command {
	var backend, user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session. Each line you type is one message;
type /quit or send EOF to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend == "" {
				backend = strings.TrimRight(strings.TrimSpace(os.Getenv("CHAT_BACKEND_URL")), "/")
			}
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), newDispatcher(backend), user, timeout)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Chat backend base URL (default: CHAT_BACKEND_URL, else offline rules)")
	cmd.Flags().StringVar(&user, "user", "", "User id sent with every message")
	return cmd
}

func newDispatcher(backend string) chatservice.Dispatcher {
	if backend != "" {
		return remote.NewClient(backend, timeout, log.L())
	}
	return triage.NewService(nil, hospital.NewMemoryStore(hospital.Seed()), log.L())
}

// runChat reads one message per line and prints each reply once the turn settles.
func runChat(ctx context.Context, in io.Reader, out io.Writer, dispatcher chatservice.Dispatcher, user string, turnTimeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	session := chatservice.NewSession(chat.Session{UserID: user}, dispatcher, chatservice.Options{
		Timeout: turnTimeout,
		Logger:  log.L(),
	})
	defer session.Close()

	fmt.Fprintln(out, "Medi Care - describe your symptoms (/quit to exit)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == quitCommand {
			return nil
		}

		seen := len(session.Messages())
		if !session.Submit(line) {
			continue
		}
		if err := session.Wait(ctx); err != nil {
			return err
		}

		messages := session.Messages()
		for _, msg := range messages[seen:] {
			if msg.Author == chat.AuthorBot {
				printReply(out, msg)
			}
		}
	}
}

func printReply(out io.Writer, msg chat.Message) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, msg.Text)
	if msg.SeverityScore != nil {
		fmt.Fprintln(out, severity.Classify(*msg.SeverityScore).Display())
	}
	for _, h := range msg.Hospitals {
		status := "closed"
		if h.IsOpen {
			status = "open"
		}
		fmt.Fprintf(out, "  * %s (%s, %s) %s\n", h.Name, h.Distance, status, h.Phone)
	}
	fmt.Fprintln(out)
}
