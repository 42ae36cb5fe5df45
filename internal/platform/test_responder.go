package platform

import (
	"context"
	"io"
	"sync"
)

type SentMessage struct {
	ChannelID string
	ReplyTo   string
	Content   string
}

type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

type SentFile struct {
	ChannelID string
	Content   string
	Name      string
	Data      []byte
}

// TestResponder records outbound calls for assertions.
type TestResponder struct {
	mu        sync.Mutex
	messages  []SentMessage
	reactions []Reaction
	files     []SentFile

	// Err is returned from every call when set.
	Err error
	// Managers lists user ids for which CanManageGuild reports true.
	Managers map[string]bool
}

func NewTestResponder() *TestResponder {
	return &TestResponder{Managers: make(map[string]bool)}
}

func (r *TestResponder) Send(_ context.Context, channelID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, SentMessage{ChannelID: channelID, Content: content})
	return r.Err
}

func (r *TestResponder) Reply(_ context.Context, msg MessageRef, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, SentMessage{ChannelID: msg.ChannelID, ReplyTo: msg.MessageID, Content: content})
	return r.Err
}

func (r *TestResponder) React(_ context.Context, msg MessageRef, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions, Reaction{ChannelID: msg.ChannelID, MessageID: msg.MessageID, Emoji: emoji})
	return r.Err
}

func (r *TestResponder) SendFile(_ context.Context, msg MessageRef, content string, file File) error {
	var data []byte
	if file.Reader != nil {
		var err error
		if data, err = io.ReadAll(file.Reader); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, SentFile{ChannelID: msg.ChannelID, Content: content, Name: file.Name, Data: data})
	return r.Err
}

func (r *TestResponder) CanManageGuild(_ context.Context, msg MessageRef) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Managers[msg.AuthorID], r.Err
}

func (r *TestResponder) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.messages...)
}

func (r *TestResponder) Replies() []SentMessage {
	var replies []SentMessage
	for _, m := range r.Messages() {
		if m.ReplyTo != "" {
			replies = append(replies, m)
		}
	}
	return replies
}

func (r *TestResponder) Reactions() []Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reaction(nil), r.reactions...)
}

func (r *TestResponder) Files() []SentFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentFile(nil), r.files...)
}

var _ Responder = (*TestResponder)(nil)
