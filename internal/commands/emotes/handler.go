package emotes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/commands/base"
	"github.com/muratoffalex/emotebot/internal/database"
)

const (
	CommandName = "emotes"
	defaultDays = 7
	maxDays     = 365
	topLimit    = 10
)

type statsSource interface {
	TopEmotes(ctx context.Context, guildID string, since time.Time, limit int) ([]database.EmoteStat, error)
}

type Command struct {
	*base.Command
	stats statsSource
	now   func() time.Time
}

func New(di *di.Container) *Command {
	cmd := &Command{now: time.Now}
	if di.DB != nil {
		cmd.stats = di.DB
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"top", "e"}
}

func (c *Command) Execute(ctx context.Context, req commands.Request) error {
	if !req.Message.InGuild() {
		return c.Reply(ctx, req, c.L("settings.guildOnly", nil))
	}

	days := defaultDays
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil || n < 1 || n > maxDays {
			return c.Reply(ctx, req, c.L("emotes.invalidDays", map[string]any{"Max": maxDays}))
		}
		days = n
	}

	since := c.now().AddDate(0, 0, -days)
	stats, err := c.stats.TopEmotes(ctx, req.Message.GuildID, since, topLimit)
	if err != nil {
		return fmt.Errorf("failed to load emote stats: %w", err)
	}

	if len(stats) == 0 {
		return c.Reply(ctx, req, c.L("emotes.empty", map[string]any{"Days": days}))
	}

	lines := []string{c.L("emotes.header", map[string]any{"Days": days})}
	for i, s := range stats {
		lines = append(lines, c.L("emotes.line", map[string]any{
			"Rank":      i + 1,
			"Emote":     render(s),
			"Total":     s.Total(),
			"Messages":  s.Messages,
			"Reactions": s.Reactions,
		}))
	}
	return c.Reply(ctx, req, strings.Join(lines, "\n"))
}

func render(s database.EmoteStat) string {
	if s.Animated {
		return fmt.Sprintf("<a:%s:%s>", s.Name, s.EmoteID)
	}
	return fmt.Sprintf("<:%s:%s>", s.Name, s.EmoteID)
}
