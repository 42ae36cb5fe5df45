package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/cache"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

type fixedChatChannel string

func (f fixedChatChannel) ChatChannel(context.Context, string) (string, error) {
	return string(f), nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestConversations(clock *testClock, chat string) *Conversations {
	cfg := config.ConversationConfig{
		MaxMessages: 3,
		MaxAge:      10 * time.Minute,
		IdleTTL:     time.Hour,
		MaxChannels: 4,
	}
	return NewConversations(NewConversationCache(cfg, cache.WithClock(clock.Now)), fixedChatChannel(chat), cfg, "!", logger.NewTestLogger(), cache.WithClock(clock.Now))
}

func contents(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Content)
	}
	return out
}

func TestConversations_RollingWindow(t *testing.T) {
	clock := &testClock{now: time.Now()}
	conv := newTestConversations(clock, "chat")

	for _, msg := range []string{"one", "two", "three", "four", "  "} {
		conv.Record("chat", Turn{Content: msg})
	}

	assert.Equal(t, []string{"two", "three", "four"}, contents(conv.History("chat")))
	assert.Nil(t, conv.History("other"))
}

func TestConversations_MessagesAgeOut(t *testing.T) {
	clock := &testClock{now: time.Now()}
	conv := newTestConversations(clock, "chat")

	conv.Record("chat", Turn{Content: "old"})
	clock.Advance(6 * time.Minute)
	conv.Record("chat", Turn{Content: "new"})
	clock.Advance(5 * time.Minute)

	assert.Equal(t, []string{"new"}, contents(conv.History("chat")))
}

func TestConversations_IdleChannelIsDropped(t *testing.T) {
	clock := &testClock{now: time.Now()}
	conv := newTestConversations(clock, "chat")

	conv.Record("chat", Turn{Content: "hi"})
	clock.Advance(9 * time.Minute)
	require.Len(t, conv.History("chat"), 1, "read keeps the window alive")
	clock.Advance(59 * time.Minute)
	require.Empty(t, conv.History("chat"), "turns aged out")
	clock.Advance(61 * time.Minute)

	assert.Nil(t, conv.History("chat"))
}

func TestConversations_ActiveChannelOutlivesIdleTTL(t *testing.T) {
	clock := &testClock{now: time.Now()}
	cfg := config.ConversationConfig{
		MaxMessages: 20,
		MaxAge:      30 * time.Minute,
		IdleTTL:     time.Hour,
		MaxChannels: 256,
	}
	conv := NewConversations(NewConversationCache(cfg, cache.WithClock(clock.Now)), fixedChatChannel("chat"), cfg, "!", logger.NewTestLogger(), cache.WithClock(clock.Now))

	for _, msg := range []string{"t0", "t20", "t40"} {
		conv.Record("chat", Turn{Content: msg})
		clock.Advance(20 * time.Minute)
	}
	conv.Record("chat", Turn{Content: "latest-a"})
	clock.Advance(time.Minute)
	conv.Record("chat", Turn{Content: "latest-b"})

	assert.Equal(t, []string{"t40", "latest-a", "latest-b"}, contents(conv.History("chat")))
}

func TestConversations_Reset(t *testing.T) {
	clock := &testClock{now: time.Now()}
	conv := newTestConversations(clock, "chat")

	conv.Record("chat", Turn{Content: "hi"})
	conv.Reset("chat")

	assert.Nil(t, conv.History("chat"))
}

func TestConversations_Handle(t *testing.T) {
	clock := &testClock{now: time.Now()}
	conv := newTestConversations(clock, "chat")
	ctx := context.Background()

	msg := func(channel, content string, bot bool) events.Event {
		return events.MessageCreated{Message: platform.MessageRef{
			GuildID:    "g1",
			ChannelID:  channel,
			AuthorID:   "u1",
			AuthorName: "alice",
			AuthorBot:  bot,
			Content:    content,
		}}
	}

	require.NoError(t, conv.Handle(ctx, msg("chat", "hello", false)))
	require.NoError(t, conv.Handle(ctx, msg("chat", "!ask hi", false)))
	require.NoError(t, conv.Handle(ctx, msg("chat", "beep", true)))
	require.NoError(t, conv.Handle(ctx, msg("general", "elsewhere", false)))
	require.NoError(t, conv.Handle(ctx, events.MessageDeleted{GuildID: "g1", ChannelID: "chat"}))

	history := conv.History("chat")
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "alice", history[0].AuthorName)
	assert.Nil(t, conv.History("general"))
}
