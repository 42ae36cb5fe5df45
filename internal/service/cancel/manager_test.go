package cancel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

func TestManager_RegisterAndUnregister(t *testing.T) {
	m := NewManager(logger.NewTestLogger())

	ctx, unregister := m.Register(context.Background(), "c1", "m1", "u1", "ask")
	require.NotNil(t, ctx)

	info := m.GetActiveRequest("c1", "m1")
	require.NotNil(t, info)
	assert.Equal(t, "c1", info.ChannelID)
	assert.Equal(t, "m1", info.MessageID)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, "ask", info.Command)

	unregister()

	assert.Nil(t, m.GetActiveRequest("c1", "m1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager(logger.NewTestLogger())

	ctx, unregister := m.Register(context.Background(), "c1", "m1", "u1", "ask")
	defer unregister()

	assert.False(t, m.Cancel("c1", "m1", "u2"), "only the author can cancel")
	assert.NoError(t, ctx.Err())

	assert.True(t, m.Cancel("c1", "m1", "u1"))
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestManager_Cancel_NotFound(t *testing.T) {
	m := NewManager(logger.NewTestLogger())
	assert.False(t, m.Cancel("c1", "missing", "u1"))
}

func TestManager_ParentCancellation(t *testing.T) {
	m := NewManager(logger.NewTestLogger())
	parent, cancel := context.WithCancel(context.Background())

	ctx, unregister := m.Register(parent, "c1", "m1", "u1", "ask")
	defer unregister()

	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestManager_UpdateProgress(t *testing.T) {
	m := NewManager(logger.NewTestLogger())

	_, unregister := m.Register(context.Background(), "c1", "m1", "u1", "ask")
	defer unregister()

	m.UpdateProgress("c1", "m1", "thinking")
	assert.Equal(t, "thinking", m.GetActiveRequest("c1", "m1").Progress)

	m.UpdateProgress("c1", "other", "ignored")
	assert.Nil(t, m.GetActiveRequest("c1", "other"))
}

func TestManager_Handle(t *testing.T) {
	log := logger.NewTestLogger()
	m := NewManager(log)
	ctx, unregister := m.Register(context.Background(), "c1", "m1", "u1", "ask")
	defer unregister()

	stop := events.ReactionAdded{ChannelID: "c1", MessageID: "m1", UserID: "u1", Emoji: platform.Emoji{Name: StopEmoji}}

	require.NoError(t, m.Handle(context.Background(), events.ReactionAdded{
		ChannelID: "c1", MessageID: "m1", UserID: "u1", Emoji: platform.Emoji{Name: "👍"},
	}))
	assert.NoError(t, ctx.Err(), "other reactions are ignored")

	require.NoError(t, m.Handle(context.Background(), events.ReactionRemoved(stop)))
	assert.NoError(t, ctx.Err(), "removals are ignored")

	require.NoError(t, m.Handle(context.Background(), stop))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, log.HasEntry("info", "Request cancelled by author"))
}

func TestManager_Handle_IgnoresOtherUsers(t *testing.T) {
	log := logger.NewTestLogger()
	m := NewManager(log)
	ctx, unregister := m.Register(context.Background(), "c1", "m1", "u1", "ask")
	defer unregister()
	m.UpdateProgress("c1", "m1", "waiting for AI")

	require.NoError(t, m.Handle(context.Background(), events.ReactionAdded{
		ChannelID: "c1", MessageID: "m1", UserID: "u2", Emoji: platform.Emoji{Name: StopEmoji},
	}))

	assert.NoError(t, ctx.Err())
	assert.True(t, log.HasEntry("debug", "Ignoring stop reaction from another user"))
	assert.Equal(t, "waiting for AI", m.GetActiveRequest("c1", "m1").Progress)
}
