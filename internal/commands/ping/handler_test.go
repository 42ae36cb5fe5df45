package ping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

type fixedLatency time.Duration

func (l fixedLatency) Latency() time.Duration { return time.Duration(l) }

func TestCommand_Execute(t *testing.T) {
	responder := platform.NewTestResponder()
	cmd := New(di.NewTestContainer(responder, logger.NewTestLogger(), nil))
	cmd.latency = fixedLatency(42 * time.Millisecond)

	req := commands.NewRequest("ping", nil, platform.MessageRef{ChannelID: "c1", MessageID: "m1"})
	require.NoError(t, cmd.Execute(context.Background(), req))

	replies := responder.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "m1", replies[0].ReplyTo)
	assert.Equal(t, "Pong! Gateway latency: 42ms", replies[0].Content)
}

func TestCommand_Metadata(t *testing.T) {
	cmd := New(di.NewTestContainer(platform.NewTestResponder(), logger.NewTestLogger(), nil))

	assert.Equal(t, CommandName, cmd.Name())
	assert.Empty(t, cmd.Aliases())
	assert.Equal(t, "Check that the bot is alive", cmd.Description())
}
