package emote

import (
	"context"

	"github.com/muratoffalex/emotebot/internal/database"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// Store is the Receiver backed by the usage tables. A locked database is
// reported as a soft failure so the executor retries it.
type Store struct {
	repo   database.EmoteRepository
	logger logger.Logger
}

func NewStore(repo database.EmoteRepository, log logger.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: log.WithComponent("emote_store"),
	}
}

func (s *Store) CreateMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return s.result("create_message", s.repo.ReplaceMessageEmotes(ctx, p.MessageID, messageRows(p)))
}

func (s *Store) UpdateMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return s.result("update_message", s.repo.ReplaceMessageEmotes(ctx, p.MessageID, messageRows(p)))
}

func (s *Store) DeleteMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return s.result("delete_message", s.repo.DeleteMessageEmotes(ctx, p.MessageID))
}

func (s *Store) CreateReaction(ctx context.Context, p ReactionPayload) (bool, error) {
	return s.result("create_reaction", s.repo.AddReactionEmote(ctx, database.ReactionEmote{
		MessageID: p.MessageID,
		EmoteID:   p.Emoji.ID,
		UserID:    p.UserID,
		GuildID:   p.GuildID,
		ChannelID: p.ChannelID,
		Name:      p.Emoji.Name,
		Animated:  p.Emoji.Animated,
		At:        p.At,
	}))
}

func (s *Store) DeleteReaction(ctx context.Context, p ReactionPayload) (bool, error) {
	return s.result("delete_reaction", s.repo.RemoveReactionEmote(ctx, p.MessageID, p.Emoji.ID, p.UserID))
}

func (s *Store) result(op string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if database.IsBusy(err) {
		s.logger.WithError(err).WithField("op", op).Debug("Database busy")
		return false, nil
	}
	return false, err
}

func messageRows(p MessagePayload) []database.MessageEmote {
	rows := make([]database.MessageEmote, 0, len(p.Emotes))
	for _, u := range p.Emotes {
		rows = append(rows, database.MessageEmote{
			MessageID: p.MessageID,
			EmoteID:   u.Emoji.ID,
			GuildID:   p.GuildID,
			ChannelID: p.ChannelID,
			AuthorID:  p.AuthorID,
			Name:      u.Emoji.Name,
			Animated:  u.Emoji.Animated,
			Uses:      u.Count,
			At:        p.At,
		})
	}
	return rows
}

var _ Receiver = (*Store)(nil)
