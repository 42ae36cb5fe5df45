package ping

import (
	"context"
	"time"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
)

const CommandName = "ping"

type latencySource interface {
	Latency() time.Duration
}

type Command struct {
	*base.Command
	latency latencySource
}

func New(di *di.Container) *Command {
	cmd := &Command{}
	if di.Discord != nil {
		cmd.latency = di.Discord
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	var latency time.Duration
	if c.latency != nil {
		latency = c.latency.Latency()
	}
	return c.Reply(ctx, req, c.L("ping.pong", map[string]any{
		"Latency": latency.Round(time.Millisecond).String(),
	}))
}
