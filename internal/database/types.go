package database

import (
	"context"
	"database/sql"
	"time"
)

type Database interface {
	GetDB() *sql.DB
	Close() error
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)

	SettingsRepository
	EmoteRepository
}

type SettingsRepository interface {
	// GetGuildSettings returns zero settings for a guild that never saved any.
	GetGuildSettings(ctx context.Context, guildID string) (GuildSettings, error)
	SaveFeedbackChannel(ctx context.Context, guildID, channelID string) error
	SaveChatChannel(ctx context.Context, guildID, channelID string) error
}

type EmoteRepository interface {
	// ReplaceMessageEmotes makes emotes the complete usage set of messageID.
	// An empty set removes the message's rows.
	ReplaceMessageEmotes(ctx context.Context, messageID string, emotes []MessageEmote) error
	DeleteMessageEmotes(ctx context.Context, messageID string) error
	AddReactionEmote(ctx context.Context, reaction ReactionEmote) error
	RemoveReactionEmote(ctx context.Context, messageID, emoteID, userID string) error
	TopEmotes(ctx context.Context, guildID string, since time.Time, limit int) ([]EmoteStat, error)
}

type GuildSettings struct {
	GuildID           string
	FeedbackChannelID string
	ChatChannelID     string
	UpdatedAt         time.Time
}

type MessageEmote struct {
	MessageID string
	EmoteID   string
	GuildID   string
	ChannelID string
	AuthorID  string
	Name      string
	Animated  bool
	Uses      int
	At        time.Time
}

type ReactionEmote struct {
	MessageID string
	EmoteID   string
	UserID    string
	GuildID   string
	ChannelID string
	Name      string
	Animated  bool
	At        time.Time
}

type EmoteStat struct {
	EmoteID   string
	Name      string
	Animated  bool
	Messages  int
	Reactions int
}

func (s EmoteStat) Total() int {
	return s.Messages + s.Reactions
}
