package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/platform"
)

// ParseCommand splits "<prefix>name arg1 arg2" into its parts. ok is false
// when content does not start with prefix or names no command.
func ParseCommand(prefix, content string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func messageRef(m *discordgo.Message) platform.MessageRef {
	ref := platform.MessageRef{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	if m.Author != nil {
		ref.AuthorID = m.Author.ID
		ref.AuthorName = m.Author.Username
		if m.Author.GlobalName != "" {
			ref.AuthorName = m.Author.GlobalName
		}
		ref.AuthorBot = m.Author.Bot
	}
	if m.Member != nil && m.Member.Nick != "" {
		ref.AuthorName = m.Member.Nick
	}
	return ref
}

func emoji(e discordgo.Emoji) platform.Emoji {
	return platform.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated}
}

func reactionAdded(r *discordgo.MessageReaction) events.ReactionAdded {
	return events.ReactionAdded{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     emoji(r.Emoji),
	}
}

func reactionRemoved(r *discordgo.MessageReaction) events.ReactionRemoved {
	return events.ReactionRemoved{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     emoji(r.Emoji),
	}
}

// emojiAPIName renders emoji the way the reactions endpoint expects it:
// unicode as is, custom emoji as "name:id".
func emojiAPIName(e string) string {
	e = strings.TrimSpace(e)
	if strings.HasPrefix(e, "<") && strings.HasSuffix(e, ">") {
		e = strings.TrimPrefix(strings.Trim(e, "<>"), "a:")
		e = strings.TrimPrefix(e, ":")
	}
	return e
}
