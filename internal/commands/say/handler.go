package say

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/service/cancel"
)

const (
	CommandName = "say"
	// Speech input limit of the TTS endpoint.
	maxTextLength = 4096
)

type speaker interface {
	Speech(ctx context.Context, text string) ([]byte, error)
}

type Command struct {
	*base.Command
	ai     speaker
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
	return []string{"tts"}
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	text := strings.TrimSpace(req.ArgString())
	if text == "" {
		return c.Reply(ctx, req, c.L("say.emptyText", map[string]any{"Prefix": c.Prefix()}))
	}
	if runes := []rune(text); len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}

	msg := req.Message
	ctx, done := c.cancel.Register(ctx, msg.ChannelID, msg.MessageID, msg.AuthorID, CommandName)
	defer done()

	c.cancel.UpdateProgress(msg.ChannelID, msg.MessageID, "synthesizing speech")
	audio, err := c.ai.Speech(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.Reply(context.WithoutCancel(ctx), req, c.L("cancelled", nil))
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	return c.Responder.SendFile(ctx, msg, "", platform.File{
		Name:        "speech.mp3",
		ContentType: "audio/mpeg",
		Reader:      bytes.NewReader(audio),
	})
}
