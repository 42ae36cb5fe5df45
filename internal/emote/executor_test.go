package emote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
)

var testPayload = MessagePayload{
	GuildID:   "g1",
	ChannelID: "c1",
	MessageID: "m1",
	AuthorID:  "u1",
	Emotes:    []Usage{{Emoji: platform.Emoji{ID: "123456789012345678", Name: "pog"}, Count: 1}},
}

func newTestExecutor(t *testing.T, receiver Receiver) (*Executor, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	return NewExecutor(receiver, RetryPolicy{Attempts: 3, Delay: 10 * time.Millisecond}, log), log
}

func TestExecutor_RetriesSoftFailures(t *testing.T) {
	receiver := NewMockReceiver(t)
	receiver.EXPECT().CreateMessage(mock.Anything, testPayload).Return(false, nil).Times(2)
	receiver.EXPECT().CreateMessage(mock.Anything, testPayload).Return(true, nil).Once()
	executor, _ := newTestExecutor(t, receiver)

	start := time.Now()
	err := executor.Execute(context.Background(), CreateMessage{Payload: testPayload})

	require.NoError(t, err)
	receiver.AssertNumberOfCalls(t, "CreateMessage", 3)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestExecutor_StopsOnFirstSuccess(t *testing.T) {
	receiver := NewMockReceiver(t)
	receiver.EXPECT().UpdateMessage(mock.Anything, testPayload).Return(true, nil).Once()
	executor, _ := newTestExecutor(t, receiver)

	require.NoError(t, executor.Execute(context.Background(), UpdateMessage{Payload: testPayload}))
	receiver.AssertNumberOfCalls(t, "UpdateMessage", 1)
}

func TestExecutor_ExhaustedAttemptsAreSilent(t *testing.T) {
	receiver := NewMockReceiver(t)
	receiver.EXPECT().DeleteMessage(mock.Anything, testPayload).Return(false, nil).Times(3)
	executor, log := newTestExecutor(t, receiver)

	err := executor.Execute(context.Background(), DeleteMessage{Payload: testPayload})

	assert.NoError(t, err)
	receiver.AssertNumberOfCalls(t, "DeleteMessage", 3)
	assert.True(t, log.HasEntry("debug", "Emote command dropped after retries"))
	assert.Empty(t, log.EntriesWithLevel("error"))
}

func TestExecutor_HardFailureIsNotRetried(t *testing.T) {
	boom := errors.New("constraint failed")
	receiver := NewMockReceiver(t)
	receiver.EXPECT().CreateMessage(mock.Anything, testPayload).Return(false, boom).Once()
	executor, _ := newTestExecutor(t, receiver)

	err := executor.Execute(context.Background(), CreateMessage{Payload: testPayload})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "create_message")
	receiver.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestExecutor_DispatchesEachVariant(t *testing.T) {
	reaction := ReactionPayload{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: "m1",
		UserID:    "u2",
		Emoji:     platform.Emoji{ID: "123456789012345678", Name: "pog"},
	}

	tests := []struct {
		name   string
		cmd    Command
		method string
		arg    any
	}{
		{"create message", CreateMessage{Payload: testPayload}, "CreateMessage", testPayload},
		{"update message", UpdateMessage{Payload: testPayload}, "UpdateMessage", testPayload},
		{"delete message", DeleteMessage{Payload: testPayload}, "DeleteMessage", testPayload},
		{"create reaction", CreateReaction{Payload: reaction}, "CreateReaction", reaction},
		{"delete reaction", DeleteReaction{Payload: reaction}, "DeleteReaction", reaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receiver := NewMockReceiver(t)
			receiver.On(tt.method, mock.Anything, tt.arg).Return(true, nil).Once()
			executor, _ := newTestExecutor(t, receiver)

			require.NoError(t, executor.Execute(context.Background(), tt.cmd))
			receiver.AssertNumberOfCalls(t, tt.method, 1)
		})
	}
}

func TestExecutor_UnknownCommand(t *testing.T) {
	executor, _ := newTestExecutor(t, NewMockReceiver(t))

	err := executor.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestExecutor_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	receiver := NewMockReceiver(t)
	receiver.EXPECT().CreateMessage(mock.Anything, testPayload).
		Run(func(args mock.Arguments) { cancel() }).
		Return(false, nil).Once()

	executor := NewExecutor(receiver, RetryPolicy{Attempts: 3, Delay: time.Hour}, logger.NewTestLogger())

	err := executor.Execute(ctx, CreateMessage{Payload: testPayload})
	assert.ErrorIs(t, err, context.Canceled)
	receiver.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestNewExecutor_NormalizesPolicy(t *testing.T) {
	executor := NewExecutor(NewMockReceiver(t), RetryPolicy{Attempts: 0, Delay: -time.Second}, logger.NewTestLogger())

	assert.Equal(t, DefaultRetryPolicy().Attempts, executor.policy.Attempts)
	assert.Zero(t, executor.policy.Delay)
}
