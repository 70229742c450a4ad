package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"echelon-backend/internal/assistant"
	"echelon-backend/internal/services"
)

var chatMode string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long: `Start an interactive conversation. Lines starting with / are commands:

  /new          start a new conversation
  /list         list conversations
  /switch <n>   switch to conversation n from /list
  /delete       delete the active conversation
  /mode <m>     switch persona (coach, planner, analyst)
  /prompts      show quick prompts; /prompts <n> sends one
  /quit         leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctrl := assistant.NewController(c, c, c, cliLogger())
		ctrl.SetMode(chatMode)

		ctx := cmd.Context()
		ctrl.Load(ctx)
		if ctrl.Snapshot().Principal == nil {
			return fmt.Errorf("not signed in: pass --token or set ECHELON_TOKEN")
		}
		return runChat(ctx, ctrl, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", services.DefaultMode, "assistant persona: "+strings.Join(services.Modes(), ", "))
	rootCmd.AddCommand(chatCmd)
}

type chatLoop struct {
	ctrl *assistant.Controller
	out  io.Writer
}

func runChat(ctx context.Context, ctrl *assistant.Controller, in io.Reader, out io.Writer) error {
	loop := &chatLoop{ctrl: ctrl, out: out}
	if ctrl.Snapshot().Active() == nil {
		ctrl.CreateConversation(ctx)
	}
	loop.printActive()

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if quit := loop.handle(ctx, scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// handle runs one input line and reports whether the loop should stop.
func (l *chatLoop) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		l.send(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "exit":
		return true
	case "new":
		l.ctrl.CreateConversation(ctx)
		l.printActive()
	case "list":
		l.printList()
	case "switch":
		conv, ok := l.pick(arg)
		if !ok {
			return false
		}
		l.ctrl.SelectConversation(conv)
		l.printActive()
	case "delete":
		active := l.ctrl.Snapshot().Active()
		if active == nil {
			fmt.Fprintln(l.out, "No active conversation.")
			return false
		}
		l.ctrl.DeleteConversation(ctx, active.ID)
		fmt.Fprintf(l.out, "Deleted %q.\n", active.Title)
		l.printActive()
	case "mode":
		l.ctrl.SetMode(arg)
		fmt.Fprintf(l.out, "Mode: %s\n", l.ctrl.Snapshot().Mode)
	case "prompts":
		prompts := assistant.QuickPrompts()
		if arg == "" {
			for i, p := range prompts {
				fmt.Fprintf(l.out, "  %d. %s\n", i+1, p)
			}
			return false
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(prompts) {
			fmt.Fprintln(l.out, "Unknown prompt.")
			return false
		}
		l.send(ctx, prompts[n-1])
	default:
		fmt.Fprintf(l.out, "Unknown command /%s\n", name)
	}
	return false
}

func (l *chatLoop) send(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if l.ctrl.Snapshot().Active() == nil {
		fmt.Fprintln(l.out, "No active conversation. Use /new to start one.")
		return
	}

	before := len(l.ctrl.Snapshot().Messages)
	l.ctrl.SendMessage(ctx, text)

	msgs := l.ctrl.Snapshot().Messages
	if len(msgs) > before {
		last := msgs[len(msgs)-1]
		fmt.Fprintf(l.out, "assistant: %s\n", last.Content)
	}
}

func (l *chatLoop) pick(arg string) (uuid.UUID, bool) {
	s := l.ctrl.Snapshot()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.Conversations) {
		fmt.Fprintln(l.out, "Unknown conversation. Use /list to see numbers.")
		return uuid.Nil, false
	}
	return s.Conversations[n-1].ID, true
}

func (l *chatLoop) printList() {
	s := l.ctrl.Snapshot()
	if len(s.Conversations) == 0 {
		fmt.Fprintln(l.out, "No conversations.")
		return
	}
	for i, c := range s.Conversations {
		marker := " "
		if c.ID == s.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(l.out, "%s %d. %s (%d messages)\n", marker, i+1, c.Title, len(c.Messages))
	}
}

func (l *chatLoop) printActive() {
	s := l.ctrl.Snapshot()
	active := s.Active()
	if active == nil {
		fmt.Fprintln(l.out, "No active conversation. Use /new to start one.")
		return
	}
	fmt.Fprintf(l.out, "── %s [%s] ──\n", active.Title, s.Mode)
	for _, m := range s.Messages {
		fmt.Fprintf(l.out, "%s: %s\n", m.Role, m.Content)
	}
}
