package help

import (
	"context"
	"fmt"
	"strings"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
)

const CommandName = "help"

type lister interface {
	Commands() []commands.Command
}

type Command struct {
	*base.Command
	lister lister
}

func New(di *di.Container, lister lister) *Command {
	cmd := &Command{lister: lister}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"h", "commands"}
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	prefix := c.Prefix()

	var b strings.Builder
	b.WriteString(c.L("help.header", map[string]any{"Prefix": prefix}))
	for _, cmd := range c.lister.Commands() {
		b.WriteString("\n")
		fmt.Fprintf(&b, "`%s%s`", prefix, cmd.Name())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(aliases, ", "))
		}
		if desc := cmd.Description(); desc != "" {
			b.WriteString(": " + desc)
		}
	}
	return c.Reply(ctx, req, b.String())
}
