package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/muratoffalex/emotebot/internal/cache"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// Turn is one message of a channel conversation.
type Turn struct {
	AuthorID   string
	AuthorName string
	Content    string
	FromBot    bool
	At         time.Time
}

type chatChannels interface {
	ChatChannel(ctx context.Context, guildID string) (string, error)
}

// Conversations keeps a short rolling window of recent messages per channel.
// A channel's window is dropped after it sees no activity for the idle TTL.
type Conversations struct {
	mu       sync.Mutex
	channels cache.Cache[*cache.Queue[Turn]]
	settings chatChannels
	cfg      config.ConversationConfig
	prefix   string
	opts     []cache.Option
	logger   logger.Logger
}

func NewConversations(channels cache.Cache[*cache.Queue[Turn]], settings chatChannels, cfg config.ConversationConfig, prefix string, log logger.Logger, opts ...cache.Option) *Conversations {
	return &Conversations{
		channels: channels,
		settings: settings,
		cfg:      cfg,
		prefix:   prefix,
		opts:     opts,
		logger:   log.WithComponent("conversations"),
	}
}

// NewConversationCache builds the per-channel window store. Windows carry no
// absolute expiry; Record keeps them alive for the idle TTL after each use.
func NewConversationCache(cfg config.ConversationConfig, opts ...cache.Option) *cache.Memory[*cache.Queue[Turn]] {
	return cache.NewMemory[*cache.Queue[Turn]](cfg.MaxChannels, cfg.IdleTTL, opts...)
}

func (c *Conversations) Record(channelID string, turn Turn) {
	if strings.TrimSpace(turn.Content) == "" {
		return
	}

	c.mu.Lock()
	window, ok := c.channels.Get(channelID)
	if !ok {
		window = cache.NewQueue[Turn](c.cfg.MaxMessages, c.cfg.MaxAge, c.opts...)
		c.channels.SetSliding(channelID, window, 0, c.cfg.IdleTTL)
	}
	c.mu.Unlock()

	window.Enqueue(turn)
}

// History returns the channel's window, oldest first.
func (c *Conversations) History(channelID string) []Turn {
	window, ok := c.channels.Get(channelID)
	if !ok {
		return nil
	}
	return window.GetAll()
}

func (c *Conversations) Reset(channelID string) {
	c.channels.Flush(channelID)
}

// Handle records messages posted in the guild's chat channel. Commands are
// skipped; the command itself records what it exchanged.
func (c *Conversations) Handle(ctx context.Context, ev events.Event) error {
	created, ok := ev.(events.MessageCreated)
	if !ok || !created.Message.InGuild() || created.Message.AuthorBot {
		return nil
	}
	if c.prefix != "" && strings.HasPrefix(created.Message.Content, c.prefix) {
		return nil
	}

	chatChannel, err := c.settings.ChatChannel(ctx, created.Message.GuildID)
	if err != nil {
		return err
	}
	if chatChannel == "" || chatChannel != created.Message.ChannelID {
		return nil
	}

	c.Record(created.Message.ChannelID, Turn{
		AuthorID:   created.Message.AuthorID,
		AuthorName: created.Message.AuthorName,
		Content:    created.Message.Content,
		At:         time.Now(),
	})
	return nil
}
