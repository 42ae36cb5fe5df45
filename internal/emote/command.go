// Package emote tracks custom emote usage. Mutations are expressed as
// commands and applied to a Receiver by the Executor.
package emote

import (
	"context"
	"time"

	"github.com/muratoffalex/emotebot/internal/platform"
)

// Usage is one distinct emote in a message and how often it appears.
type Usage struct {
	Emoji platform.Emoji
	Count int
}

type MessagePayload struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Emotes    []Usage
	At        time.Time
}

type ReactionPayload struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     platform.Emoji
	At        time.Time
}

// Command is a closed set: only the types in this package implement it.
type Command interface {
	Name() string
	command()
}

type (
	CreateMessage  struct{ Payload MessagePayload }
	UpdateMessage  struct{ Payload MessagePayload }
	DeleteMessage  struct{ Payload MessagePayload }
	CreateReaction struct{ Payload ReactionPayload }
	DeleteReaction struct{ Payload ReactionPayload }
)

func (CreateMessage) Name() string  { return "create_message" }
func (UpdateMessage) Name() string  { return "update_message" }
func (DeleteMessage) Name() string  { return "delete_message" }
func (CreateReaction) Name() string { return "create_reaction" }
func (DeleteReaction) Name() string { return "delete_reaction" }

func (CreateMessage) command()  {}
func (UpdateMessage) command()  {}
func (DeleteMessage) command()  {}
func (CreateReaction) command() {}
func (DeleteReaction) command() {}

// Receiver applies emote mutations. A false result with a nil error is a
// soft failure that may succeed on retry; a non-nil error is final.
type Receiver interface {
	CreateMessage(ctx context.Context, p MessagePayload) (bool, error)
	UpdateMessage(ctx context.Context, p MessagePayload) (bool, error)
	DeleteMessage(ctx context.Context, p MessagePayload) (bool, error)
	CreateReaction(ctx context.Context, p ReactionPayload) (bool, error)
	DeleteReaction(ctx context.Context, p ReactionPayload) (bool, error)
}
