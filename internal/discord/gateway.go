package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// Enqueuer is the producer side of the dispatcher.
type Enqueuer interface {
	EnqueueCommand(ctx context.Context, req commands.Request) error
	EnqueueEvent(ctx context.Context, ev events.Event) error
}

// Gateway turns discordgo callbacks into queued commands and events.
// discordgo invokes handlers on their own goroutines, so a full queue
// blocks only the callback that hit it.
type Gateway struct {
	ctx    context.Context
	queue  Enqueuer
	prefix string
	selfID func() string
	logger logger.Logger
}

// NewGateway returns a gateway that enqueues with ctx. Once ctx is
// cancelled incoming traffic is dropped.
func NewGateway(ctx context.Context, queue Enqueuer, prefix string, selfID func() string, log logger.Logger) *Gateway {
	return &Gateway{
		ctx:    ctx,
		queue:  queue,
		prefix: prefix,
		selfID: selfID,
		logger: log.WithComponent("gateway"),
	}
}

// Attach registers the gateway callbacks on session.
func (g *Gateway) Attach(session *discordgo.Session) {
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { g.onMessageCreate(m.Message) })
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) { g.onMessageUpdate(m.Message) })
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) { g.onMessageDelete(m.Message) })
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) { g.onReactionAdd(r.MessageReaction) })
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) { g.onReactionRemove(r.MessageReaction) })
}

func (g *Gateway) onMessageCreate(m *discordgo.Message) {
	if m == nil || m.Author == nil || g.isSelf(m.Author.ID) {
		return
	}
	msg := messageRef(m)

	g.enqueueEvent(events.MessageCreated{Message: msg})

	if msg.AuthorBot {
		return
	}
	if name, args, ok := ParseCommand(g.prefix, msg.Content); ok {
		req := commands.NewRequest(name, args, msg)
		req.ReceivedAt = timestampOr(m.Timestamp, req.ReceivedAt)
		if err := g.queue.EnqueueCommand(g.ctx, req); err != nil {
			g.logger.WithError(err).WithField("command", name).Warn("Failed to enqueue command")
		}
	}
}

// Partial updates (embeds resolving, pins) arrive without an author and
// carry nothing worth re-parsing.
func (g *Gateway) onMessageUpdate(m *discordgo.Message) {
	if m == nil || m.Author == nil || g.isSelf(m.Author.ID) {
		return
	}
	g.enqueueEvent(events.MessageUpdated{Message: messageRef(m)})
}

func (g *Gateway) onMessageDelete(m *discordgo.Message) {
	if m == nil {
		return
	}
	g.enqueueEvent(events.MessageDeleted{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
	})
}

func (g *Gateway) onReactionAdd(r *discordgo.MessageReaction) {
	if r == nil || g.isSelf(r.UserID) {
		return
	}
	g.enqueueEvent(reactionAdded(r))
}

func (g *Gateway) onReactionRemove(r *discordgo.MessageReaction) {
	if r == nil || g.isSelf(r.UserID) {
		return
	}
	g.enqueueEvent(reactionRemoved(r))
}

func (g *Gateway) enqueueEvent(ev events.Event) {
	if err := g.queue.EnqueueEvent(g.ctx, ev); err != nil {
		g.logger.WithError(err).WithField("event", ev.Kind()).Warn("Failed to enqueue event")
	}
}

func (g *Gateway) isSelf(userID string) bool {
	if g.selfID == nil {
		return false
	}
	self := g.selfID()
	return self != "" && self == userID
}

func timestampOr(ts, fallback time.Time) time.Time {
	if ts.IsZero() {
		return fallback
	}
	return ts
}
