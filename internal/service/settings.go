package service

import (
	"context"
	"fmt"
	"time"

	"github.com/muratoffalex/emotebot/internal/cache"
	"github.com/muratoffalex/emotebot/internal/database"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// Settings serves per-guild settings from a cache in front of the
// repository. Writes go to the repository and drop the cached entry.
type Settings struct {
	repo   database.SettingsRepository
	cache  cache.Cache[database.GuildSettings]
	ttl    time.Duration
	logger logger.Logger
}

func NewSettings(repo database.SettingsRepository, c cache.Cache[database.GuildSettings], ttl time.Duration, log logger.Logger) *Settings {
	return &Settings{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: log.WithComponent("settings"),
	}
}

func (s *Settings) Get(ctx context.Context, guildID string) (database.GuildSettings, error) {
	return s.cache.GetOrLoad(ctx, guildID, s.ttl, func(ctx context.Context) (database.GuildSettings, error) {
		s.logger.WithField("guild_id", guildID).Trace("Loading guild settings")
		return s.repo.GetGuildSettings(ctx, guildID)
	})
}

func (s *Settings) FeedbackChannel(ctx context.Context, guildID string) (string, error) {
	settings, err := s.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	return settings.FeedbackChannelID, nil
}

func (s *Settings) ChatChannel(ctx context.Context, guildID string) (string, error) {
	settings, err := s.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	return settings.ChatChannelID, nil
}

func (s *Settings) SetFeedbackChannel(ctx context.Context, guildID, channelID string) error {
	if err := s.repo.SaveFeedbackChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("failed to save feedback channel: %w", err)
	}
	s.cache.Flush(guildID)
	return nil
}

func (s *Settings) SetChatChannel(ctx context.Context, guildID, channelID string) error {
	if err := s.repo.SaveChatChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("failed to save chat channel: %w", err)
	}
	s.cache.Flush(guildID)
	return nil
}
