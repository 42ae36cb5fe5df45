package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/discord"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/pipeline"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/queue"
)

type fakeSession struct {
	attached bool
	opened   chan struct{}
	closed   bool
	openErr  error
}

func (s *fakeSession) Attach(*discord.Gateway) { s.attached = true }
func (s *fakeSession) SelfID() string          { return "self" }
func (s *fakeSession) Close() error            { s.closed = true; return nil }

func (s *fakeSession) Open() error {
	if s.openErr == nil {
		close(s.opened)
	}
	return s.openErr
}

type noFeedback struct{}

func (noFeedback) FeedbackChannel(context.Context, string) (string, error) { return "", nil }

type stubCommand struct {
	name    string
	aliases []string
	run     func(ctx context.Context, req commands.Request) error
}

func (c stubCommand) Name() string        { return c.name }
func (c stubCommand) Aliases() []string   { return c.aliases }
func (c stubCommand) Description() string { return "" }

func (c stubCommand) Execute(ctx context.Context, req commands.Request) error {
	if c.run == nil {
		return nil
	}
	return c.run(ctx, req)
}

type harness struct {
	bot        *Bot
	dispatcher *queue.Dispatcher
	responder  *platform.TestResponder
	session    *fakeSession
	log        *logger.TestLogger
}

func newHarness() *harness {
	log := logger.NewTestLogger()
	responder := platform.NewTestResponder()
	registry := queue.NewRegistry()
	dispatcher := queue.New(queue.Config{CommandCapacity: 8, EventCapacity: 8, LogCapacity: 8}, registry, log)
	boundary := pipeline.NewBoundary(noFeedback{}, responder, pipeline.NewQueueSink(dispatcher), "", log)
	session := &fakeSession{opened: make(chan struct{})}

	bot := NewBot(registry, dispatcher, boundary, session, config.FromMap(map[string]any{
		config.DISCORD_OPS_CHANNEL: "ops",
	}), log)
	bot.SetLogHandler(pipeline.NewOpsReporter(responder, "ops", 0, 1, log).Handle)

	return &harness{bot: bot, dispatcher: dispatcher, responder: responder, session: session, log: log}
}

func TestBot_RegisterCommand(t *testing.T) {
	h := newHarness()

	h.bot.RegisterCommand(stubCommand{name: "zeta"})
	h.bot.RegisterCommand(stubCommand{name: "alpha", aliases: []string{"a"}})
	h.bot.RegisterCommand(stubCommand{name: "beta", aliases: []string{"a"}})
	h.bot.RegisterCommand(stubCommand{name: ""})
	h.bot.RegisterCommand(nil)

	var names []string
	for _, cmd := range h.bot.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"alpha", "zeta"}, names)
	assert.True(t, h.log.HasEntry("error", "Failed to register command"))
	assert.True(t, h.log.HasEntry("error", "Attempting to register command with empty name"))
	assert.True(t, h.log.HasEntry("error", "Attempting to register nil command"))
}

func TestBot_StartRunsPipelineUntilCancelled(t *testing.T) {
	h := newHarness()

	ran := make(chan string, 2)
	h.bot.RegisterCommand(stubCommand{name: "ok", run: func(context.Context, commands.Request) error {
		ran <- "ok"
		return nil
	}})
	h.bot.RegisterCommand(stubCommand{name: "fail", run: func(context.Context, commands.Request) error {
		ran <- "fail"
		return errors.New("backend unavailable")
	}})
	h.bot.RegisterEventHandler("watcher", func(context.Context, events.Event) error {
		ran <- "event"
		return nil
	}, events.KindMessageCreated)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.bot.Start(ctx) }()

	select {
	case <-h.session.opened:
	case <-time.After(time.Second):
		t.Fatal("session was not opened")
	}
	assert.True(t, h.session.attached)

	msg := platform.MessageRef{GuildID: "g1", ChannelID: "c1", MessageID: "m1", AuthorID: "u1"}
	require.NoError(t, h.dispatcher.EnqueueCommand(ctx, commands.NewRequest("fail", nil, msg)))
	require.NoError(t, h.dispatcher.EnqueueCommand(ctx, commands.NewRequest("ok", nil, msg)))
	require.NoError(t, h.dispatcher.EnqueueEvent(ctx, events.MessageCreated{Message: msg}))

	received := map[string]bool{}
	for range 3 {
		select {
		case name := <-ran:
			received[name] = true
		case <-time.After(time.Second):
			t.Fatal("handlers did not run")
		}
	}
	assert.Equal(t, map[string]bool{"ok": true, "fail": true, "event": true}, received)

	require.Eventually(t, func() bool {
		return len(h.responder.Reactions()) == 1 && len(h.responder.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, pipeline.DefaultFailureEmoji, h.responder.Reactions()[0].Emoji)
	assert.Equal(t, "ops", h.responder.Messages()[0].ChannelID)
	assert.Contains(t, h.responder.Messages()[0].Content, "backend unavailable")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.True(t, h.session.closed)
}

func TestBot_StartOpenError(t *testing.T) {
	h := newHarness()
	h.session.openErr = errors.New("invalid token")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.ErrorIs(t, h.bot.Start(ctx), h.session.openErr)
}
