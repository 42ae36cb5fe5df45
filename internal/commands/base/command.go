package base

import (
	"context"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/service"
)

// Command carries the dependencies every command needs. Concrete commands
// embed it and override Name, Aliases and Execute.
type Command struct {
	command   commands.Command
	Responder platform.Responder
	Logger    logger.Logger
	Cfg       *config.Config
	Localizer *service.Localizer
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:   cmd,
		Responder: di.Responder,
		Logger:    di.Logger.WithField("command", cmd.Name()),
		Cfg:       di.Cfg,
		Localizer: di.Localizer,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) Description() string {
	return c.L("commands."+c.command.Name(), nil)
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	return nil
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

func (c *Command) Prefix() string {
	return c.Cfg.Discord().Prefix
}

func (c *Command) Reply(ctx context.Context, req commands.Request, text string) error {
	return c.Responder.Reply(ctx, req.Message, text)
}

// RequireManager replies with the reason and returns false unless the
// request comes from a guild member allowed to change bot settings.
func (c *Command) RequireManager(ctx context.Context, req commands.Request) (bool, error) {
	if !req.Message.InGuild() {
		return false, c.Reply(ctx, req, c.L("settings.guildOnly", nil))
	}

	allowed, err := c.Responder.CanManageGuild(ctx, req.Message)
	if err != nil {
		return false, err
	}
	if !allowed {
		c.Logger.WithFields(logger.Fields{
			"user_id":  req.Message.AuthorID,
			"guild_id": req.Message.GuildID,
		}).Warn("Unauthorized settings change attempt")
		return false, c.Reply(ctx, req, c.L("settings.forbidden", nil))
	}
	return true, nil
}
