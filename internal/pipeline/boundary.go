// Package pipeline wraps handler invocation with failure reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/markdown"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/queue"
)

const (
	DefaultFailureEmoji = "❌"
	maxReplyErrorLength = 1500
)

type SettingsProvider interface {
	// FeedbackChannel returns the guild's configured feedback channel, or ""
	// when none is set.
	FeedbackChannel(ctx context.Context, guildID string) (string, error)
}

type LogSink interface {
	Report(ctx context.Context, item queue.LogItem) error
}

type Boundary struct {
	settings     SettingsProvider
	responder    platform.Responder
	sink         LogSink
	failureEmoji string
	logger       logger.Logger
	now          func() time.Time
}

func NewBoundary(settings SettingsProvider, responder platform.Responder, sink LogSink, failureEmoji string, log logger.Logger) *Boundary {
	if failureEmoji == "" {
		failureEmoji = DefaultFailureEmoji
	}
	return &Boundary{
		settings:     settings,
		responder:    responder,
		sink:         sink,
		failureEmoji: failureEmoji,
		logger:       log.WithComponent("boundary"),
		now:          time.Now,
	}
}

// Command runs next and absorbs its failure. The user is told in the
// guild's feedback channel by reply, anywhere else by a reaction on the
// invoking message. The failure is always reported to the log sink.
func (b *Boundary) Command(ctx context.Context, req commands.Request, next queue.CommandHandler) error {
	err := queue.Recover(func() error { return next(ctx, req) })
	if err == nil {
		return nil
	}

	b.notify(ctx, req, err)
	b.report(ctx, Report{
		Source:    queue.KindCommand,
		Name:      req.Name,
		ID:        req.ID.String(),
		GuildID:   req.Message.GuildID,
		ChannelID: req.Message.ChannelID,
		UserID:    req.Message.AuthorID,
		Err:       err,
		At:        b.now(),
	})
	return nil
}

// Event runs next, reports a failure and returns it to the caller.
func (b *Boundary) Event(ctx context.Context, name string, ev events.Event, next queue.EventHandler) error {
	err := queue.Recover(func() error { return next(ctx, ev) })
	if err == nil {
		return nil
	}

	b.report(ctx, Report{
		Source:    queue.KindEvent,
		Name:      fmt.Sprintf("%s (%s)", name, ev.Kind()),
		ID:        uuid.NewString(),
		GuildID:   ev.Guild(),
		ChannelID: ev.Channel(),
		Err:       err,
		At:        b.now(),
	})
	return err
}

func (b *Boundary) WrapCommand(next queue.CommandHandler) queue.CommandHandler {
	return func(ctx context.Context, req commands.Request) error {
		return b.Command(ctx, req, next)
	}
}

func (b *Boundary) WrapEvent(name string, next queue.EventHandler) queue.EventHandler {
	return func(ctx context.Context, ev events.Event) error {
		return b.Event(ctx, name, ev, next)
	}
}

func (b *Boundary) notify(ctx context.Context, req commands.Request, cmdErr error) {
	log := b.logger.WithFields(logger.Fields{
		"command":    req.Name,
		"request_id": req.ID.String(),
		"guild_id":   req.Message.GuildID,
		"channel_id": req.Message.ChannelID,
	})

	var feedback string
	if req.Message.InGuild() && b.settings != nil {
		channelID, err := b.settings.FeedbackChannel(ctx, req.Message.GuildID)
		if err != nil {
			log.WithError(err).Warn("Failed to look up feedback channel")
		}
		feedback = channelID
	}

	if feedback != "" && feedback == req.Message.ChannelID {
		if err := b.responder.Reply(ctx, req.Message, userMessage(cmdErr)); err != nil {
			log.WithError(err).Warn("Failed to reply with command error")
		}
		return
	}

	if err := b.responder.React(ctx, req.Message, b.failureEmoji); err != nil {
		log.WithError(err).Warn("Failed to react to failed command")
	}
}

func (b *Boundary) report(ctx context.Context, r Report) {
	fields := logger.Fields{
		"source":     r.Source,
		"name":       r.Name,
		"id":         r.ID,
		"guild_id":   r.GuildID,
		"channel_id": r.ChannelID,
	}
	if r.UserID != "" {
		fields["user_id"] = r.UserID
	}
	var panicErr *queue.PanicError
	if errors.As(r.Err, &panicErr) {
		fields["stack"] = string(panicErr.Stack)
	}
	b.logger.WithFields(fields).WithError(r.Err).Error("Handler failed")

	if b.sink == nil {
		return
	}
	item := queue.LogItem{
		Level:  queue.LogLevelError,
		Source: string(r.Source),
		Report: FormatReport(r),
		At:     r.At,
	}
	if err := b.sink.Report(ctx, item); err != nil {
		b.logger.WithError(err).Warn("Failed to submit failure report")
	}
}

func userMessage(err error) string {
	msg := err.Error()
	var panicErr *queue.PanicError
	if errors.As(err, &panicErr) {
		msg = "internal error"
	}
	if len(msg) > maxReplyErrorLength {
		msg = strings.ToValidUTF8(msg[:maxReplyErrorLength], "") + "..."
	}
	return "⚠️ " + markdown.CodeBlock("", msg)
}
