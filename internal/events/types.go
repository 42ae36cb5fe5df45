// Package events defines the passive platform occurrences fanned out to
// event handlers.
package events

import "github.com/muratoffalex/emotebot/internal/platform"

type Kind string

const (
	KindMessageCreated  Kind = "message_created"
	KindMessageUpdated  Kind = "message_updated"
	KindMessageDeleted  Kind = "message_deleted"
	KindReactionAdded   Kind = "reaction_added"
	KindReactionRemoved Kind = "reaction_removed"
)

// Event is a closed set: only the types in this package implement it.
type Event interface {
	Kind() Kind
	Guild() string
	Channel() string
	sealed()
}

type MessageCreated struct {
	Message platform.MessageRef
}

type MessageUpdated struct {
	Message platform.MessageRef
}

type MessageDeleted struct {
	GuildID   string
	ChannelID string
	MessageID string
}

type ReactionAdded struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     platform.Emoji
}

type ReactionRemoved struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     platform.Emoji
}

func (MessageCreated) Kind() Kind  { return KindMessageCreated }
func (MessageUpdated) Kind() Kind  { return KindMessageUpdated }
func (MessageDeleted) Kind() Kind  { return KindMessageDeleted }
func (ReactionAdded) Kind() Kind   { return KindReactionAdded }
func (ReactionRemoved) Kind() Kind { return KindReactionRemoved }

func (e MessageCreated) Guild() string  { return e.Message.GuildID }
func (e MessageUpdated) Guild() string  { return e.Message.GuildID }
func (e MessageDeleted) Guild() string  { return e.GuildID }
func (e ReactionAdded) Guild() string   { return e.GuildID }
func (e ReactionRemoved) Guild() string { return e.GuildID }

func (e MessageCreated) Channel() string  { return e.Message.ChannelID }
func (e MessageUpdated) Channel() string  { return e.Message.ChannelID }
func (e MessageDeleted) Channel() string  { return e.ChannelID }
func (e ReactionAdded) Channel() string   { return e.ChannelID }
func (e ReactionRemoved) Channel() string { return e.ChannelID }

func (MessageCreated) sealed()  {}
func (MessageUpdated) sealed()  {}
func (MessageDeleted) sealed()  {}
func (ReactionAdded) sealed()   {}
func (ReactionRemoved) sealed() {}

var (
	_ Event = MessageCreated{}
	_ Event = MessageUpdated{}
	_ Event = MessageDeleted{}
	_ Event = ReactionAdded{}
	_ Event = ReactionRemoved{}
)
