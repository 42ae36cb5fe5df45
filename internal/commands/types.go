package commands

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muratoffalex/emotebot/internal/platform"
)

// Request is one user invocation of a prefix command. It is handled exactly
// once and then dropped.
type Request struct {
	ID         uuid.UUID
	Name       string
	Args       []string
	Message    platform.MessageRef
	ReceivedAt time.Time
}

func NewRequest(name string, args []string, msg platform.MessageRef) Request {
	return Request{
		ID:         uuid.New(),
		Name:       strings.ToLower(name),
		Args:       append([]string(nil), args...),
		Message:    msg,
		ReceivedAt: time.Now(),
	}
}

// ArgString joins the arguments back into the text the user typed after the
// command name.
func (r Request) ArgString() string {
	return strings.Join(r.Args, " ")
}

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Execute(ctx context.Context, req Request) error
}
