package imagine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muratoffalex/emotebot/internal/ai"
	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
	"github.com/muratoffalex/emotebot/internal/markdown"
	"github.com/muratoffalex/emotebot/internal/service/cancel"
)

const CommandName = "imagine"

type imager interface {
	Image(ctx context.Context, prompt string) (ai.ImageResult, error)
}

type Command struct {
	*base.Command
	ai     imager
	cancel *cancel.Manager
}

func New(di *di.Container) *Command {
	cmd := &Command{cancel: di.Cancel}
	if di.AI != nil {
		cmd.ai = di.AI
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"img", "draw"}
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	prompt := strings.TrimSpace(req.ArgString())
	if prompt == "" {
		return c.Reply(ctx, req, c.L("imagine.emptyPrompt", map[string]any{"Prefix": c.Prefix()}))
	}

	msg := req.Message
	ctx, done := c.cancel.Register(ctx, msg.ChannelID, msg.MessageID, msg.AuthorID, CommandName)
	defer done()

	c.cancel.UpdateProgress(msg.ChannelID, msg.MessageID, "generating image")
	result, err := c.ai.Image(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.Reply(context.WithoutCancel(ctx), req, c.L("cancelled", nil))
		}
		return fmt.Errorf("image generation failed: %w", err)
	}

	text := result.URL
	if result.RevisedPrompt != "" {
		text = "> " + markdown.Escape(result.RevisedPrompt) + "\n" + result.URL
	}
	return c.Reply(ctx, req, text)
}
