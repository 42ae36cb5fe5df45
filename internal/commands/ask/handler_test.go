package ask

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/emotebot/internal/ai"
	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/fetcher"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/service"
)

type memoryHistory struct {
	turns map[string][]service.Turn
}

func (h *memoryHistory) History(channelID string) []service.Turn {
	return h.turns[channelID]
}

func (h *memoryHistory) Record(channelID string, turn service.Turn) {
	h.turns[channelID] = append(h.turns[channelID], turn)
}

func newCommand(t *testing.T) (*Command, *MockChatter, *memoryHistory, *platform.TestResponder) {
	responder := platform.NewTestResponder()
	cmd := New(di.NewTestContainer(responder, logger.NewTestLogger(), nil))
	chatter := NewMockChatter(t)
	hist := &memoryHistory{turns: map[string][]service.Turn{}}
	cmd.ai = chatter
	cmd.history = hist
	cmd.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return cmd, chatter, hist, responder
}

func askRequest(args ...string) commands.Request {
	return commands.NewRequest(CommandName, args, platform.MessageRef{
		GuildID: "g1", ChannelID: "c1", MessageID: "m1", AuthorID: "u1", AuthorName: "Alice B",
	})
}

func TestCommand_Execute(t *testing.T) {
	cmd, chatter, hist, responder := newCommand(t)
	hist.Record("c1", service.Turn{AuthorID: "u2", AuthorName: "bob", Content: "emotes are great"})

	want := []ai.Message{
		{Role: ai.RoleUser, Content: "emotes are great", Name: "bob"},
		{Role: ai.RoleUser, Content: "what is pog?", Name: "Alice_B"},
	}
	chatter.EXPECT().Chat(mock.Anything, want, "u1").
		Return(ai.ChatResult{Content: "A hype emote.", FinishReason: "stop"}, nil).Once()

	require.NoError(t, cmd.Execute(context.Background(), askRequest("what", "is", "pog?")))

	replies := responder.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "A hype emote.", replies[0].Content)

	turns := hist.History("c1")
	require.Len(t, turns, 3)
	assert.Equal(t, "what is pog?", turns[1].Content)
	assert.False(t, turns[1].FromBot)
	assert.Equal(t, "A hype emote.", turns[2].Content)
	assert.True(t, turns[2].FromBot)

	assert.Nil(t, cmd.cancel.GetActiveRequest("c1", "m1"), "request is unregistered when done")
}

func TestCommand_EmptyPrompt(t *testing.T) {
	cmd, _, hist, responder := newCommand(t)

	require.NoError(t, cmd.Execute(context.Background(), askRequest()))

	require.Len(t, responder.Replies(), 1)
	assert.Equal(t, "Tell me what to ask, for example `!ask what is an emote?`", responder.Replies()[0].Content)
	assert.Empty(t, hist.turns)
}

func TestCommand_AIError(t *testing.T) {
	cmd, chatter, hist, responder := newCommand(t)
	apiErr := &ai.APIError{StatusCode: 429, Message: "rate limited"}
	chatter.EXPECT().Chat(mock.Anything, mock.Anything, "u1").Return(ai.ChatResult{}, apiErr).Once()

	err := cmd.Execute(context.Background(), askRequest("hello"))

	var target *ai.APIError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 429, target.StatusCode)
	assert.Empty(t, responder.Replies(), "the error boundary reports failures")
	assert.Empty(t, hist.turns)
}

func TestCommand_CancelledByAuthor(t *testing.T) {
	cmd, chatter, _, responder := newCommand(t)

	chatter.EXPECT().Chat(mock.Anything, mock.Anything, "u1").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			info := cmd.cancel.GetActiveRequest("c1", "m1")
			require.NotNil(t, info)
			assert.Equal(t, progressAnswering, info.Progress)
			require.True(t, cmd.cancel.Cancel("c1", "m1", "u1"))
			<-ctx.Done()
		}).
		Return(ai.ChatResult{}, context.Canceled).Once()

	require.NoError(t, cmd.Execute(context.Background(), askRequest("long", "question")))

	require.Len(t, responder.Replies(), 1)
	assert.Equal(t, "Cancelled.", responder.Replies()[0].Content)
	assert.Nil(t, cmd.cancel.GetActiveRequest("c1", "m1"))
}

func TestBuildMessages(t *testing.T) {
	turns := []service.Turn{
		{AuthorName: "ünïcode name!", Content: "hi"},
		{Content: "hello", FromBot: true},
	}

	messages := buildMessages(turns, nil, "carol", "how are you")

	require.Len(t, messages, 3)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "hi", Name: "_n_code_name_"}, messages[0])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "hello"}, messages[1])
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "how are you", Name: "carol"}, messages[2])
}

func TestParticipantName_Truncates(t *testing.T) {
	assert.Len(t, participantName(strings.Repeat("a", 100)), 64)
}

type fakeLinks struct {
	pages   map[string]fetcher.Response
	fetched []string
}

func (f *fakeLinks) Fetch(_ context.Context, rawURL string) (fetcher.Response, error) {
	f.fetched = append(f.fetched, rawURL)
	page, ok := f.pages[rawURL]
	if !ok {
		return fetcher.Response{}, errors.New("404")
	}
	return page, nil
}

func TestCommand_FetchesLinks(t *testing.T) {
	cmd, chatter, _, responder := newCommand(t)
	links := &fakeLinks{pages: map[string]fetcher.Response{
		"https://docs.example.com/emotes": {URL: "https://docs.example.com/emotes", Title: "Emotes", Text: "How emotes work"},
	}}
	cmd.links = links
	cmd.cmdCfg.Fetcher.Blacklist = []string{"blocked.io"}
	cmd.cmdCfg.Fetcher.MaxLinks = 2

	want := []ai.Message{
		{Role: ai.RoleSystem, Content: "Content of https://docs.example.com/emotes (Emotes):\nHow emotes work"},
		{Role: ai.RoleUser, Content: "summarize https://blocked.io/x https://missing.example.com https://docs.example.com/emotes https://late.example.com", Name: "Alice_B"},
	}
	chatter.EXPECT().Chat(mock.Anything, want, "u1").Return(ai.ChatResult{Content: "Summary."}, nil).Once()

	require.NoError(t, cmd.Execute(context.Background(), askRequest(
		"summarize", "https://blocked.io/x", "https://missing.example.com", "https://docs.example.com/emotes", "https://late.example.com",
	)))

	assert.Equal(t, []string{"https://missing.example.com", "https://docs.example.com/emotes", "https://late.example.com"}, links.fetched)
	require.Len(t, responder.Replies(), 1)
}

func TestCommand_FetcherDisabled(t *testing.T) {
	cmd, chatter, _, _ := newCommand(t)
	links := &fakeLinks{}
	cmd.links = links
	cmd.cmdCfg.Fetcher.Enabled = false

	chatter.EXPECT().Chat(mock.Anything, mock.Anything, "u1").Return(ai.ChatResult{Content: "ok"}, nil).Once()

	require.NoError(t, cmd.Execute(context.Background(), askRequest("read", "https://example.com")))
	assert.Empty(t, links.fetched)
}

func TestAllowedLink(t *testing.T) {
	assert.True(t, allowedLink("https://example.com/a", nil, nil))
	assert.False(t, allowedLink("https://sub.example.com/a", nil, []string{"example.com"}))
	assert.True(t, allowedLink("https://notexample.com", nil, []string{"example.com"}))
	assert.True(t, allowedLink("https://wiki.example.org", []string{".example.org"}, nil))
	assert.False(t, allowedLink("https://other.org", []string{"example.org"}, nil))
	assert.False(t, allowedLink("https://example.org", []string{"example.org"}, []string{"example.org"}))
}
