package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muratoffalex/emotebot/internal/markdown"
	"github.com/muratoffalex/emotebot/internal/queue"
)

const maxStackLength = 1500

// Report describes one handler failure.
type Report struct {
	Source    queue.Kind
	Name      string
	ID        string
	GuildID   string
	ChannelID string
	UserID    string
	Err       error
	At        time.Time
}

// FormatReport renders r as Discord-safe text. Every value that comes from
// users or errors is escaped.
func FormatReport(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s failed**: %s\n", titleCase(string(r.Source)), markdown.Escape(r.Name))
	field(&b, "ID", r.ID)
	field(&b, "Guild", r.GuildID)
	field(&b, "Channel", r.ChannelID)
	field(&b, "User", r.UserID)
	if !r.At.IsZero() {
		field(&b, "At", r.At.UTC().Format(time.RFC3339))
	}

	if r.Err == nil {
		return strings.TrimRight(b.String(), "\n")
	}

	field(&b, "Error", r.Err.Error())

	if chain := ErrorChain(r.Err); len(chain) > 1 {
		b.WriteString("**Trace**:\n")
		for i, msg := range chain {
			fmt.Fprintf(&b, "%d. %s\n", i+1, markdown.Escape(msg))
		}
	}

	var panicErr *queue.PanicError
	if errors.As(r.Err, &panicErr) && len(panicErr.Stack) > 0 {
		stack := string(panicErr.Stack)
		if len(stack) > maxStackLength {
			stack = stack[:maxStackLength] + "\n..."
		}
		b.WriteString("**Stack**:\n")
		b.WriteString(markdown.Escape(stack))
	}

	return strings.TrimRight(b.String(), "\n")
}

// ErrorChain lists the messages of err and everything it wraps, outermost
// first. Joined errors contribute each of their members.
func ErrorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				chain = append(chain, ErrorChain(e)...)
			}
			break
		}
		err = errors.Unwrap(err)
	}
	return chain
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s**: %s\n", name, markdown.Escape(value))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
