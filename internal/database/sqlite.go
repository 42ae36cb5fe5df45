package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
)

const execRetryAttempts = 3

type sqliteDB struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteDB(cfg *config.Config, log logger.Logger) (Database, error) {
	log = log.WithComponent("database")

	db, err := sql.Open("sqlite", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN": cfg.GetDatabaseDSN(),
	}).Debug("Database opened")

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logger.Fields{
		"DSN": cfg.GetDatabaseDSN(),
	}).Debug("Database alive")

	if err := RunMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteDB{db: db, logger: log}, nil
}

// IsBusy reports whether err means the database was locked by another
// writer. Such failures are transient and worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return strings.Contains(err.Error(), "database is locked")
}

func (s *sqliteDB) GetDB() *sql.DB {
	return s.db
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}

func (s *sqliteDB) ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	var err error
	for i := range execRetryAttempts {
		res, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !IsBusy(err) {
			return res, err
		}
		s.logger.WithFields(logger.Fields{
			"attempt": i + 1,
			"query":   query,
			"error":   err.Error(),
		}).Warn("Database locked, retrying...")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond * time.Duration(i+1)):
		}
	}
	return res, err
}

func (s *sqliteDB) GetGuildSettings(ctx context.Context, guildID string) (GuildSettings, error) {
	settings := GuildSettings{GuildID: guildID}
	err := s.db.QueryRowContext(ctx, `
		SELECT feedback_channel_id, chat_channel_id, updated_at
		FROM guild_settings WHERE guild_id = ?
	`, guildID).Scan(&settings.FeedbackChannelID, &settings.ChatChannelID, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return settings, nil
}

func (s *sqliteDB) SaveFeedbackChannel(ctx context.Context, guildID, channelID string) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO guild_settings (guild_id, feedback_channel_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			feedback_channel_id = excluded.feedback_channel_id,
			updated_at = excluded.updated_at
	`, guildID, channelID, time.Now().UTC())
	return err
}

func (s *sqliteDB) SaveChatChannel(ctx context.Context, guildID, channelID string) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO guild_settings (guild_id, chat_channel_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			chat_channel_id = excluded.chat_channel_id,
			updated_at = excluded.updated_at
	`, guildID, channelID, time.Now().UTC())
	return err
}

func (s *sqliteDB) ReplaceMessageEmotes(ctx context.Context, messageID string, emotes []MessageEmote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// created_at survives edits so an edited message keeps its place in
	// time-windowed stats.
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM emote_messages WHERE message_id = ? ORDER BY created_at LIMIT 1", messageID,
	).Scan(&createdAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read message emotes: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM emote_messages WHERE message_id = ?", messageID); err != nil {
		return fmt.Errorf("failed to clear message emotes: %w", err)
	}

	for _, e := range emotes {
		at := e.At.UTC()
		created := at
		if !createdAt.IsZero() {
			created = createdAt.UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO emote_messages
				(message_id, emote_id, guild_id, channel_id, author_id, emote_name, animated, uses, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, messageID, e.EmoteID, e.GuildID, e.ChannelID, e.AuthorID, e.Name, e.Animated, max(e.Uses, 1), created, at)
		if err != nil {
			return fmt.Errorf("failed to insert message emote %s: %w", e.EmoteID, err)
		}
	}

	return tx.Commit()
}

func (s *sqliteDB) DeleteMessageEmotes(ctx context.Context, messageID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM emote_messages WHERE message_id = ?", messageID); err != nil {
		return fmt.Errorf("failed to delete message emotes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM emote_reactions WHERE message_id = ?", messageID); err != nil {
		return fmt.Errorf("failed to delete message reactions: %w", err)
	}

	return tx.Commit()
}

func (s *sqliteDB) AddReactionEmote(ctx context.Context, r ReactionEmote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emote_reactions
			(message_id, emote_id, user_id, guild_id, channel_id, emote_name, animated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id, emote_id, user_id) DO NOTHING
	`, r.MessageID, r.EmoteID, r.UserID, r.GuildID, r.ChannelID, r.Name, r.Animated, r.At.UTC())
	return err
}

func (s *sqliteDB) RemoveReactionEmote(ctx context.Context, messageID, emoteID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM emote_reactions WHERE message_id = ? AND emote_id = ? AND user_id = ?",
		messageID, emoteID, userID,
	)
	return err
}

func (s *sqliteDB) TopEmotes(ctx context.Context, guildID string, since time.Time, limit int) ([]EmoteStat, error) {
	if limit <= 0 {
		limit = 10
	}
	sinceUTC := since.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT emote_id, MAX(emote_name), MAX(animated), SUM(msg_uses), SUM(reactions)
		FROM (
			SELECT emote_id, emote_name, animated, uses AS msg_uses, 0 AS reactions
			FROM emote_messages WHERE guild_id = ? AND created_at >= ?
			UNION ALL
			SELECT emote_id, emote_name, animated, 0, 1
			FROM emote_reactions WHERE guild_id = ? AND created_at >= ?
		)
		GROUP BY emote_id
		ORDER BY SUM(msg_uses) + SUM(reactions) DESC, emote_id
		LIMIT ?
	`, guildID, sinceUTC, guildID, sinceUTC, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top emotes: %w", err)
	}
	defer rows.Close()

	var stats []EmoteStat
	for rows.Next() {
		var stat EmoteStat
		if err := rows.Scan(&stat.EmoteID, &stat.Name, &stat.Animated, &stat.Messages, &stat.Reactions); err != nil {
			return nil, fmt.Errorf("failed to scan emote stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}
