package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muratoffalex/emotebot/internal/ai"
	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/fetcher"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/service"
	"github.com/muratoffalex/emotebot/internal/service/cancel"
)

const CommandName = "ask"

const (
	progressFetching  = "fetching links"
	progressAnswering = "waiting for AI"
)

type chatter interface {
	Chat(ctx context.Context, messages []ai.Message, user string) (ai.ChatResult, error)
}

type history interface {
	History(channelID string) []service.Turn
	Record(channelID string, turn service.Turn)
}

type linkFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetcher.Response, error)
}

type Command struct {
	*base.Command
	ai      chatter
	history history
	links   linkFetcher
	cmdCfg  config.AskCommandConfig
	cancel  *cancel.Manager
	now     func() time.Time
}

func New(di *di.Container) *Command {
	cmd := &Command{
		cmdCfg: di.Cfg.GetAskCommandConfig(),
		cancel: di.Cancel,
		now:    time.Now,
	}
	if di.Fetcher != nil {
		cmd.links = di.Fetcher
	}
	if di.AI != nil {
		cmd.ai = di.AI
	}
	if di.Conversations != nil {
		cmd.history = di.Conversations
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"ai", "a"}
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	prompt := strings.TrimSpace(req.ArgString())
	if prompt == "" {
		return c.Reply(ctx, req, c.L("ask.emptyPrompt", map[string]any{"Prefix": c.Prefix()}))
	}

	msg := req.Message
	ctx, done := c.cancel.Register(ctx, msg.ChannelID, msg.MessageID, msg.AuthorID, CommandName)
	defer done()

	c.cancel.UpdateProgress(msg.ChannelID, msg.MessageID, progressFetching)
	pages := c.fetchLinks(ctx, prompt)
	messages := buildMessages(c.turns(msg.ChannelID), pages, msg.AuthorName, prompt)
	c.Logger.WithFields(logger.Fields{
		"channel_id": msg.ChannelID,
		"history":    len(messages) - len(pages) - 1,
		"links":      len(pages),
	}).Debug("Asking AI")
	c.cancel.UpdateProgress(msg.ChannelID, msg.MessageID, progressAnswering)

	result, err := c.ai.Chat(ctx, messages, msg.AuthorID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.Reply(context.WithoutCancel(ctx), req, c.L("cancelled", nil))
		}
		return fmt.Errorf("ai chat failed: %w", err)
	}

	c.record(msg.ChannelID, service.Turn{
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    prompt,
		At:         req.ReceivedAt,
	})
	c.record(msg.ChannelID, service.Turn{
		Content: result.Content,
		FromBot: true,
		At:      c.now(),
	})

	c.Logger.WithFields(logger.Fields{
		"finish_reason": result.FinishReason,
		"total_tokens":  result.Usage.TotalTokens,
	}).Debug("AI answered")

	return c.Reply(ctx, req, result.Content)
}

func (c *Command) turns(channelID string) []service.Turn {
	if c.history == nil {
		return nil
	}
	return c.history.History(channelID)
}

func (c *Command) record(channelID string, turn service.Turn) {
	if c.history != nil {
		c.history.Record(channelID, turn)
	}
}
