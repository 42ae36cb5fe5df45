package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/events"
)

type Kind string

const (
	KindCommand Kind = "command"
	KindEvent   Kind = "event"
	KindLog     Kind = "log"
)

type LogLevel string

const (
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogItem is a pre-formatted report headed for the central error log.
type LogItem struct {
	Level  LogLevel
	Source string
	Report string
	At     time.Time
}

type (
	CommandHandler func(ctx context.Context, req commands.Request) error
	EventHandler   func(ctx context.Context, ev events.Event) error
	LogHandler     func(ctx context.Context, item LogItem) error
)

type Config struct {
	CommandCapacity int
	EventCapacity   int
	LogCapacity     int
}

// PanicError carries a recovered panic value and the stack at the point of
// the panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
