// Package settings holds the commands that bind guild channels to bot
// features.
package settings

import (
	"context"
	"fmt"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
	"github.com/muratoffalex/emotebot/internal/logger"
)

const (
	BotChannelName  = "botchannel"
	ChatChannelName = "chatchannel"
)

type channelStore interface {
	SetFeedbackChannel(ctx context.Context, guildID, channelID string) error
	SetChatChannel(ctx context.Context, guildID, channelID string) error
}

// BotChannel makes the invoking channel the guild's feedback channel: command
// errors raised there are answered with a reply instead of a reaction.
type BotChannel struct {
	*base.Command
	store channelStore
}

func NewBotChannel(di *di.Container) *BotChannel {
	cmd := &BotChannel{store: di.Settings}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *BotChannel) Name() string {
	return BotChannelName
}

func (c *BotChannel) Execute(ctx context.Context, req commands.Request) error {
	ok, err := c.RequireManager(ctx, req)
	if !ok || err != nil {
		return err
	}

	msg := req.Message
	if err := c.store.SetFeedbackChannel(ctx, msg.GuildID, msg.ChannelID); err != nil {
		return fmt.Errorf("failed to set feedback channel: %w", err)
	}
	c.Logger.WithFields(logger.Fields{
		"guild_id":   msg.GuildID,
		"channel_id": msg.ChannelID,
	}).Info("Feedback channel updated")

	return c.Reply(ctx, req, c.L("settings.feedbackSet", map[string]any{"Channel": msg.ChannelID}))
}

// ChatChannel makes the invoking channel the one whose messages feed the
// conversation history.
type ChatChannel struct {
	*base.Command
	store channelStore
}

func NewChatChannel(di *di.Container) *ChatChannel {
	cmd := &ChatChannel{store: di.Settings}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *ChatChannel) Name() string {
	return ChatChannelName
}

func (c *ChatChannel) Execute(ctx context.Context, req commands.Request) error {
	ok, err := c.RequireManager(ctx, req)
	if !ok || err != nil {
		return err
	}

	msg := req.Message
	if err := c.store.SetChatChannel(ctx, msg.GuildID, msg.ChannelID); err != nil {
		return fmt.Errorf("failed to set chat channel: %w", err)
	}
	c.Logger.WithFields(logger.Fields{
		"guild_id":   msg.GuildID,
		"channel_id": msg.ChannelID,
	}).Info("Chat channel updated")

	return c.Reply(ctx, req, c.L("settings.chatSet", map[string]any{"Channel": msg.ChannelID}))
}
