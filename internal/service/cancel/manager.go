// Package cancel tracks long-running commands so their author can stop them
// by reacting to the invoking message.
package cancel

import (
	"context"
	"sync"

	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// StopEmoji is the reaction that cancels a running request.
const StopEmoji = "🛑"

type Manager struct {
	requests map[string]*activeRequest
	mu       sync.RWMutex
	logger   logger.Logger
}

type activeRequest struct {
	cancel    context.CancelFunc
	channelID string
	messageID string
	userID    string
	command   string
	progress  string
}

type ActiveRequestInfo struct {
	ChannelID string
	MessageID string
	UserID    string
	Command   string
	Progress  string
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		requests: make(map[string]*activeRequest),
		logger:   log.WithComponent("cancel"),
	}
}

func (m *Manager) makeKey(channelID, messageID string) string {
	return channelID + ":" + messageID
}

// Register derives a cancellable context from parent for the request started
// by messageID. The returned func cancels the context and forgets the request.
func (m *Manager) Register(parent context.Context, channelID, messageID, userID, command string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[m.makeKey(channelID, messageID)] = &activeRequest{
		cancel:    cancel,
		channelID: channelID,
		messageID: messageID,
		userID:    userID,
		command:   command,
	}

	unregister := func() {
		cancel()
		m.Unregister(channelID, messageID)
	}

	return ctx, unregister
}

func (m *Manager) Unregister(channelID, messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.requests, m.makeKey(channelID, messageID))
}

// Cancel stops the request if userID started it.
func (m *Manager) Cancel(channelID, messageID, userID string) bool {
	m.mu.RLock()
	req, exists := m.requests[m.makeKey(channelID, messageID)]
	m.mu.RUnlock()

	if !exists || req.userID != userID {
		return false
	}

	req.cancel()
	return true
}

func (m *Manager) GetActiveRequest(channelID, messageID string) *ActiveRequestInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, exists := m.requests[m.makeKey(channelID, messageID)]
	if !exists {
		return nil
	}

	return &ActiveRequestInfo{
		ChannelID: req.channelID,
		MessageID: req.messageID,
		UserID:    req.userID,
		Command:   req.command,
		Progress:  req.progress,
	}
}

// UpdateProgress records the stage a running request has reached.
func (m *Manager) UpdateProgress(channelID, messageID, progress string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req, exists := m.requests[m.makeKey(channelID, messageID)]; exists {
		req.progress = progress
	}
}

// Handle cancels a running request when its author reacts with StopEmoji.
func (m *Manager) Handle(_ context.Context, ev events.Event) error {
	reaction, ok := ev.(events.ReactionAdded)
	if !ok || reaction.Emoji.IsCustom() || reaction.Emoji.Name != StopEmoji {
		return nil
	}

	info := m.GetActiveRequest(reaction.ChannelID, reaction.MessageID)
	if info == nil {
		return nil
	}

	log := m.logger.WithFields(logger.Fields{
		"command":    info.Command,
		"channel_id": info.ChannelID,
		"message_id": info.MessageID,
		"user_id":    reaction.UserID,
		"progress":   info.Progress,
	})
	if !m.Cancel(reaction.ChannelID, reaction.MessageID, reaction.UserID) {
		log.Debug("Ignoring stop reaction from another user")
		return nil
	}
	log.Info("Request cancelled by author")
	return nil
}
