package app

import (
	"context"
	"flag"

	"github.com/muratoffalex/emotebot/internal/app/di"
	"github.com/muratoffalex/emotebot/internal/commands/ask"
	"github.com/muratoffalex/emotebot/internal/commands/emotes"
	"github.com/muratoffalex/emotebot/internal/commands/help"
	"github.com/muratoffalex/emotebot/internal/commands/imagine"
	"github.com/muratoffalex/emotebot/internal/commands/ping"
	"github.com/muratoffalex/emotebot/internal/commands/say"
	"github.com/muratoffalex/emotebot/internal/commands/settings"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/core"
	"github.com/muratoffalex/emotebot/internal/emote"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/pipeline"
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	bot    *core.Bot
	di     *di.Container
}

func New() (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	di, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	di.Logger.Info("DI Container created")

	discordCfg := cfg.Discord()
	boundary := pipeline.NewBoundary(
		di.Settings,
		di.Responder,
		pipeline.NewQueueSink(di.Dispatcher),
		discordCfg.FailureEmoji,
		di.Logger,
	)
	botInstance := core.NewBot(di.Registry, di.Dispatcher, boundary, di.Discord, cfg, di.Logger)
	di.Logger.Info("Bot instance created")

	app := &Application{
		cfg:    cfg,
		bot:    botInstance,
		di:     di,
		Logger: di.Logger,
	}

	app.registerCommands()
	app.registerEventHandlers()
	botInstance.SetLogHandler(pipeline.NewOpsReporter(
		di.Responder,
		discordCfg.OpsChannelID,
		discordCfg.OpsRate,
		discordCfg.OpsBurst,
		di.Logger,
	).Handle)

	return app, nil
}

// Start blocks until ctx is cancelled and the pipeline has drained the
// items it already took.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Info("Starting application")
	defer func() {
		if err := a.di.DB.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close database")
		}
		a.Logger.Info("Application stopped")
	}()
	return a.bot.Start(ctx)
}

func (a *Application) registerCommands() {
	if a.cfg.GetCommandConfig(ping.CommandName).Enabled {
		a.bot.RegisterCommand(ping.New(a.di))
	}
	if a.cfg.GetCommandConfig(help.CommandName).Enabled {
		a.bot.RegisterCommand(help.New(a.di, a.bot))
	}
	if a.cfg.GetCommandConfig(emotes.CommandName).Enabled {
		a.bot.RegisterCommand(emotes.New(a.di))
	}
	if a.cfg.GetCommandConfig(settings.BotChannelName).Enabled {
		a.bot.RegisterCommand(settings.NewBotChannel(a.di))
	}
	if a.cfg.GetCommandConfig(settings.ChatChannelName).Enabled {
		a.bot.RegisterCommand(settings.NewChatChannel(a.di))
	}
	if a.cfg.GetCommandConfig(ask.CommandName).Enabled {
		a.bot.RegisterCommand(ask.New(a.di))
	}
	if a.cfg.GetCommandConfig(imagine.CommandName).Enabled {
		a.bot.RegisterCommand(imagine.New(a.di))
	}
	if a.cfg.GetCommandConfig(say.CommandName).Enabled {
		a.bot.RegisterCommand(say.New(a.di))
	}
}

func (a *Application) registerEventHandlers() {
	emoteCfg := a.cfg.Emote()
	executor := emote.NewExecutor(
		emote.NewStore(a.di.DB, a.di.Logger),
		emote.RetryPolicy{Attempts: emoteCfg.RetryAttempts, Delay: emoteCfg.RetryDelay},
		a.di.Logger,
	)
	tracker := emote.NewTracker(executor, a.di.Logger)
	a.bot.RegisterEventHandler("emote_tracker", tracker.Handle, tracker.Kinds()...)

	a.bot.RegisterEventHandler("conversations", a.di.Conversations.Handle, events.KindMessageCreated)
	a.bot.RegisterEventHandler("stop_reaction", a.di.Cancel.Handle, events.KindReactionAdded)
}
