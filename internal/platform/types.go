// Package platform holds the chat-platform types shared by the pipeline and
// the capability the pipeline needs to talk back to the platform.
package platform

import (
	"context"
	"io"
)

type MessageRef struct {
	GuildID    string
	ChannelID  string
	MessageID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
}

// InGuild reports whether the message was posted in a guild rather than a DM.
func (m MessageRef) InGuild() bool {
	return m.GuildID != ""
}

type Emoji struct {
	// ID is empty for unicode emoji.
	ID       string
	Name     string
	Animated bool
}

func (e Emoji) IsCustom() bool {
	return e.ID != ""
}

type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Responder performs outbound platform calls on behalf of handlers.
type Responder interface {
	Send(ctx context.Context, channelID, content string) error
	Reply(ctx context.Context, msg MessageRef, content string) error
	React(ctx context.Context, msg MessageRef, emoji string) error
	SendFile(ctx context.Context, msg MessageRef, content string, file File) error
	// CanManageGuild reports whether the author of msg may change the guild's
	// bot settings.
	CanManageGuild(ctx context.Context, msg MessageRef) (bool, error)
}
