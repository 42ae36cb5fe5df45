package emote

import (
	"context"
	"regexp"
	"time"

	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

var emotePattern = regexp.MustCompile(`<(a?):(\w{2,32}):(\d{15,21})>`)

// ParseEmotes returns the distinct custom emotes in content in order of first
// appearance, with their occurrence counts.
func ParseEmotes(content string) []Usage {
	matches := emotePattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	var usages []Usage
	index := make(map[string]int, len(matches))
	for _, m := range matches {
		id := m[3]
		if i, ok := index[id]; ok {
			usages[i].Count++
			continue
		}
		index[id] = len(usages)
		usages = append(usages, Usage{
			Emoji: platform.Emoji{ID: id, Name: m[2], Animated: m[1] == "a"},
			Count: 1,
		})
	}
	return usages
}

type executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// Tracker turns platform events into emote commands.
type Tracker struct {
	executor executor
	logger   logger.Logger
	now      func() time.Time
}

func NewTracker(exec executor, log logger.Logger) *Tracker {
	return &Tracker{
		executor: exec,
		logger:   log.WithComponent("emote_tracker"),
		now:      time.Now,
	}
}

// Kinds lists the event kinds Handle understands.
func (t *Tracker) Kinds() []events.Kind {
	return []events.Kind{
		events.KindMessageCreated,
		events.KindMessageUpdated,
		events.KindMessageDeleted,
		events.KindReactionAdded,
		events.KindReactionRemoved,
	}
}

func (t *Tracker) Handle(ctx context.Context, ev events.Event) error {
	if ev.Guild() == "" {
		return nil
	}

	cmd := t.command(ev)
	if cmd == nil {
		return nil
	}

	t.logger.WithFields(logger.Fields{
		"command":    cmd.Name(),
		"guild_id":   ev.Guild(),
		"channel_id": ev.Channel(),
	}).Trace("Tracking emotes")

	return t.executor.Execute(ctx, cmd)
}

func (t *Tracker) command(ev events.Event) Command {
	switch e := ev.(type) {
	case events.MessageCreated:
		if e.Message.AuthorBot {
			return nil
		}
		usages := ParseEmotes(e.Message.Content)
		if len(usages) == 0 {
			return nil
		}
		return CreateMessage{Payload: t.messagePayload(e.Message, usages)}
	case events.MessageUpdated:
		if e.Message.AuthorBot {
			return nil
		}
		return UpdateMessage{Payload: t.messagePayload(e.Message, ParseEmotes(e.Message.Content))}
	case events.MessageDeleted:
		return DeleteMessage{Payload: MessagePayload{
			GuildID:   e.GuildID,
			ChannelID: e.ChannelID,
			MessageID: e.MessageID,
			At:        t.now(),
		}}
	case events.ReactionAdded:
		if !e.Emoji.IsCustom() {
			return nil
		}
		return CreateReaction{Payload: t.reactionPayload(e.GuildID, e.ChannelID, e.MessageID, e.UserID, e.Emoji)}
	case events.ReactionRemoved:
		if !e.Emoji.IsCustom() {
			return nil
		}
		return DeleteReaction{Payload: t.reactionPayload(e.GuildID, e.ChannelID, e.MessageID, e.UserID, e.Emoji)}
	default:
		return nil
	}
}

func (t *Tracker) messagePayload(msg platform.MessageRef, usages []Usage) MessagePayload {
	return MessagePayload{
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.MessageID,
		AuthorID:  msg.AuthorID,
		Emotes:    usages,
		At:        t.now(),
	}
}

func (t *Tracker) reactionPayload(guildID, channelID, messageID, userID string, emoji platform.Emoji) ReactionPayload {
	return ReactionPayload{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		At:        t.now(),
	}
}
