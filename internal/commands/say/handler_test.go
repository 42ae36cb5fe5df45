package say

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

type fakeSpeaker struct {
	audio []byte
	err   error
	text  string
}

func (f *fakeSpeaker) Speech(_ context.Context, text string) ([]byte, error) {
	f.text = text
	return f.audio, f.err
}

func newCommand(speaker *fakeSpeaker) (*Command, *platform.TestResponder) {
	responder := platform.NewTestResponder()
	cmd := New(di.NewTestContainer(responder, logger.NewTestLogger(), nil))
	cmd.ai = speaker
	return cmd, responder
}

func request(args ...string) commands.Request {
	return commands.NewRequest(CommandName, args, platform.MessageRef{ChannelID: "c1", MessageID: "m1", AuthorID: "u1"})
}

func TestCommand_Execute(t *testing.T) {
	speaker := &fakeSpeaker{audio: []byte("ID3")}
	cmd, responder := newCommand(speaker)

	require.NoError(t, cmd.Execute(context.Background(), request("hello", "there")))

	assert.Equal(t, "hello there", speaker.text)
	files := responder.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "speech.mp3", files[0].Name)
	assert.Equal(t, []byte("ID3"), files[0].Data)
	assert.Equal(t, "c1", files[0].ChannelID)
}

func TestCommand_TruncatesLongText(t *testing.T) {
	speaker := &fakeSpeaker{audio: []byte("ID3")}
	cmd, _ := newCommand(speaker)

	require.NoError(t, cmd.Execute(context.Background(), request(strings.Repeat("я", maxTextLength+10))))

	assert.Equal(t, maxTextLength, len([]rune(speaker.text)))
}

func TestCommand_EmptyText(t *testing.T) {
	speaker := &fakeSpeaker{}
	cmd, responder := newCommand(speaker)

	require.NoError(t, cmd.Execute(context.Background(), request()))

	assert.Empty(t, responder.Files())
	require.Len(t, responder.Replies(), 1)
	assert.Equal(t, "Give me something to say, for example `!say hello`", responder.Replies()[0].Content)
}

func TestCommand_Cancelled(t *testing.T) {
	speaker := &fakeSpeaker{err: context.Canceled}
	cmd, responder := newCommand(speaker)

	require.NoError(t, cmd.Execute(context.Background(), request("hi")))

	assert.Empty(t, responder.Files())
	require.Len(t, responder.Replies(), 1)
	assert.Equal(t, "Cancelled.", responder.Replies()[0].Content)
}

func TestCommand_Error(t *testing.T) {
	boom := errors.New("quota exceeded")
	cmd, _ := newCommand(&fakeSpeaker{err: boom})

	assert.ErrorIs(t, cmd.Execute(context.Background(), request("hi")), boom)
}
