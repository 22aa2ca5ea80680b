package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/harunnryd/hibiki/internal/concurrency"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"
)

const consoleSessionID = "local"

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// ConsoleAdapter reads typed commands from an input stream. Lines that start
// with "/" become command events, everything else a user message. It doubles
// as the output adapter for the local session.
type ConsoleAdapter struct {
	in           io.Reader
	out          io.Writer
	eventHandler EventHandler
	quit         chan struct{}
}

func NewConsoleAdapter(eventHandler EventHandler) *ConsoleAdapter {
	return &ConsoleAdapter{
		in:           os.Stdin,
		out:          os.Stdout,
		eventHandler: eventHandler,
		quit:         make(chan struct{}),
	}
}

func (c *ConsoleAdapter) Name() string {
	return "console"
}

func (c *ConsoleAdapter) Start(ctx context.Context) error {
	fmt.Fprintln(c.out, bannerStyle.Render("Hibiki — type a command, or /help"))

	concurrency.SafeGo(func() {
		c.readLoop(ctx)
	}, nil)
	return nil
}

func (c *ConsoleAdapter) readLoop(ctx context.Context) {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case <-c.quit:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		eventType := "user_message"
		if strings.HasPrefix(line, "/") {
			eventType = "command"
		}
		if c.eventHandler != nil {
			if err := c.eventHandler(ctx, "console", eventType, consoleSessionID, line, nil); err != nil {
				slog.Error("Failed to handle console input", "error", err)
			}
		}
	}
}

func (c *ConsoleAdapter) Stop(ctx context.Context) error {
	close(c.quit)
	return nil
}

func (c *ConsoleAdapter) Health(ctx context.Context) error {
	return nil
}

// Send prints an assistant reply to the terminal.
func (c *ConsoleAdapter) Send(ctx context.Context, sessionID string, content string) error {
	fmt.Fprintln(c.out, promptStyle.Render("hibiki ›")+" "+replyStyle.Render(content))
	return nil
}

// Notice prints an out-of-band line, such as a fired reminder.
func (c *ConsoleAdapter) Notice(content string) {
	fmt.Fprintln(c.out, noticeStyle.Render("◉ "+content))
}

// ParseSlashCommand splits a "/command arg arg" line into its name and
// arguments. Quoted arguments survive intact.
func ParseSlashCommand(line string) (string, []string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", nil, false
	}
	fields, err := shlex.Split(strings.TrimPrefix(line, "/"))
	if err != nil || len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
