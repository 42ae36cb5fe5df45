package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/discord"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/pipeline"
	"github.com/muratoffalex/emotebot/internal/queue"
)

type session interface {
	Attach(g *discord.Gateway)
	Open() error
	Close() error
	SelfID() string
}

type Bot struct {
	commands   map[string]commands.Command
	registry   *queue.Registry
	dispatcher *queue.Dispatcher
	boundary   *pipeline.Boundary
	session    session
	cfg        *config.Config
	logger     logger.Logger
}

func NewBot(
	registry *queue.Registry,
	dispatcher *queue.Dispatcher,
	boundary *pipeline.Boundary,
	session session,
	cfg *config.Config,
	logger logger.Logger,
) *Bot {
	return &Bot{
		commands:   make(map[string]commands.Command),
		registry:   registry,
		dispatcher: dispatcher,
		boundary:   boundary,
		session:    session,
		cfg:        cfg,
		logger:     logger.WithComponent("bot"),
	}
}

// Start runs the dispatcher and the Discord session until ctx is cancelled,
// then closes the session and waits for the in-flight items to finish.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.dispatcher.Start(ctx); err != nil {
		return err
	}

	gateway := discord.NewGateway(ctx, b.dispatcher, b.cfg.Discord().Prefix, b.session.SelfID, b.logger)
	b.session.Attach(gateway)
	if err := b.session.Open(); err != nil {
		return err
	}

	b.logger.WithField("commands", b.registry.Commands()).Info("Bot started")

	<-ctx.Done()

	b.logger.Info("Shutting down")
	if err := b.session.Close(); err != nil {
		b.logger.WithError(err).Warn("Failed to close Discord session")
	}
	b.dispatcher.Wait()

	return nil
}

func (b *Bot) RegisterCommand(cmd commands.Command) {
	if cmd == nil {
		b.logger.Error("Attempting to register nil command")
		return
	}

	name := cmd.Name()
	if name == "" {
		b.logger.Error("Attempting to register command with empty name")
		return
	}

	if err := b.registry.RegisterCommand(name, cmd.Aliases(), b.boundary.WrapCommand(cmd.Execute)); err != nil {
		b.logger.WithError(err).WithField("command", name).Error("Failed to register command")
		return
	}

	b.logger.WithFields(logger.Fields{
		"command": name,
		"aliases": strings.Join(cmd.Aliases(), ","),
	}).Debug("Registering command")

	b.commands[name] = cmd
}

// RegisterEventHandler subscribes handler to every kind. Failures are
// reported under name.
func (b *Bot) RegisterEventHandler(name string, handler queue.EventHandler, kinds ...events.Kind) {
	wrapped := b.boundary.WrapEvent(name, handler)
	for _, kind := range kinds {
		b.registry.RegisterEvent(name, kind, wrapped)
	}
	b.logger.WithFields(logger.Fields{
		"handler": name,
		"kinds":   fmt.Sprint(kinds),
	}).Debug("Registering event handler")
}

func (b *Bot) SetLogHandler(handler queue.LogHandler) {
	b.registry.SetLogHandler(handler)
}

// Commands returns the registered commands sorted by name.
func (b *Bot) Commands() []commands.Command {
	list := make([]commands.Command, 0, len(b.commands))
	for _, cmd := range b.commands {
		list = append(list, cmd)
	}
	slices.SortFunc(list, func(a, c commands.Command) int {
		return strings.Compare(a.Name(), c.Name())
	})
	return list
}
