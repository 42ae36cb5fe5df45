package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
)

func newTestDB(t *testing.T) Database {
	t.Helper()
	cfg := config.FromMap(map[string]any{
		config.DATABASE_DSN: filepath.Join(t.TempDir(), "test.db"),
	})
	db, err := NewSQLiteDB(cfg, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGuildSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	settings, err := db.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, GuildSettings{GuildID: "g1"}, settings)

	require.NoError(t, db.SaveFeedbackChannel(ctx, "g1", "feedback"))
	require.NoError(t, db.SaveChatChannel(ctx, "g1", "chat"))
	require.NoError(t, db.SaveFeedbackChannel(ctx, "g1", "feedback2"))

	settings, err = db.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "feedback2", settings.FeedbackChannelID)
	assert.Equal(t, "chat", settings.ChatChannelID)
	assert.False(t, settings.UpdatedAt.IsZero())

	other, err := db.GetGuildSettings(ctx, "g2")
	require.NoError(t, err)
	assert.Empty(t, other.FeedbackChannelID)
}

func messageEmote(messageID, emoteID string, uses int, at time.Time) MessageEmote {
	return MessageEmote{
		MessageID: messageID,
		EmoteID:   emoteID,
		GuildID:   "g1",
		ChannelID: "c1",
		AuthorID:  "u1",
		Name:      "emote" + emoteID,
		Uses:      uses,
		At:        at,
	}
}

func TestEmoteUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.ReplaceMessageEmotes(ctx, "m1", []MessageEmote{
		messageEmote("m1", "1", 2, now),
		messageEmote("m1", "2", 1, now),
	}))
	require.NoError(t, db.ReplaceMessageEmotes(ctx, "m2", []MessageEmote{
		messageEmote("m2", "2", 1, now),
	}))
	require.NoError(t, db.AddReactionEmote(ctx, ReactionEmote{
		MessageID: "m1", EmoteID: "2", UserID: "u2", GuildID: "g1", ChannelID: "c1", Name: "emote2", At: now,
	}))
	// Same user reacting twice counts once.
	require.NoError(t, db.AddReactionEmote(ctx, ReactionEmote{
		MessageID: "m1", EmoteID: "2", UserID: "u2", GuildID: "g1", ChannelID: "c1", Name: "emote2", At: now,
	}))

	stats, err := db.TopEmotes(ctx, "g1", now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2", stats[0].EmoteID)
	assert.Equal(t, 2, stats[0].Messages)
	assert.Equal(t, 1, stats[0].Reactions)
	assert.Equal(t, 3, stats[0].Total())
	assert.Equal(t, "1", stats[1].EmoteID)
	assert.Equal(t, 2, stats[1].Messages)

	t.Run("edit replaces the usage set", func(t *testing.T) {
		require.NoError(t, db.ReplaceMessageEmotes(ctx, "m1", []MessageEmote{
			messageEmote("m1", "3", 1, now.Add(time.Minute)),
		}))

		stats, err := db.TopEmotes(ctx, "g1", now.Add(-time.Hour), 10)
		require.NoError(t, err)
		ids := make([]string, 0, len(stats))
		for _, s := range stats {
			ids = append(ids, s.EmoteID)
		}
		assert.ElementsMatch(t, []string{"2", "3"}, ids)
	})

	t.Run("reaction removal", func(t *testing.T) {
		require.NoError(t, db.RemoveReactionEmote(ctx, "m1", "2", "u2"))

		stats, err := db.TopEmotes(ctx, "g1", now.Add(-time.Hour), 1)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, 0, stats[0].Reactions)
	})

	t.Run("delete removes message rows", func(t *testing.T) {
		require.NoError(t, db.DeleteMessageEmotes(ctx, "m1"))
		require.NoError(t, db.DeleteMessageEmotes(ctx, "m2"))

		stats, err := db.TopEmotes(ctx, "g1", now.Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestTopEmotes_TimeWindowAndGuild(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.ReplaceMessageEmotes(ctx, "old", []MessageEmote{
		messageEmote("old", "1", 5, now.Add(-48*time.Hour)),
	}))
	require.NoError(t, db.ReplaceMessageEmotes(ctx, "new", []MessageEmote{
		messageEmote("new", "2", 1, now),
	}))
	other := messageEmote("elsewhere", "3", 1, now)
	other.GuildID = "g2"
	require.NoError(t, db.ReplaceMessageEmotes(ctx, "elsewhere", []MessageEmote{other}))

	stats, err := db.TopEmotes(ctx, "g1", now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2", stats[0].EmoteID)

	stats, err = db.TopEmotes(ctx, "g1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.False(t, IsBusy(errors.New("no such table")))
	assert.True(t, IsBusy(fmt.Errorf("exec: %w", errors.New("database is locked (5) (SQLITE_BUSY)"))))
}
