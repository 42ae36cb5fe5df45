package di

import (
	"fmt"
	"net/http"

	"github.com/muratoffalex/emotebot/internal/ai"
	"github.com/muratoffalex/emotebot/internal/cache"
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/database"
	"github.com/muratoffalex/emotebot/internal/discord"
	"github.com/muratoffalex/emotebot/internal/fetcher"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/network"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/queue"
	"github.com/muratoffalex/emotebot/internal/service"
	"github.com/muratoffalex/emotebot/internal/service/cancel"
)

type Container struct {
	Logger        logger.Logger
	Cfg           *config.Config
	DB            database.Database
	Discord       *discord.Client
	Responder     platform.Responder
	Registry      *queue.Registry
	Dispatcher    *queue.Dispatcher
	Settings      *service.Settings
	Conversations *service.Conversations
	Localizer     *service.Localizer
	Cancel        *cancel.Manager
	AI            *ai.Client
	Fetcher       *fetcher.Manager
	HttpClient    *http.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	l := logger.NewLogrusLogger(cfg.Log())

	db, err := database.NewSQLiteDB(cfg, l)
	if err != nil {
		return nil, err
	}

	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		l.WithError(err).Fatal("Error create localizer")
	}

	container := &Container{
		Logger:    l,
		Cfg:       cfg,
		DB:        db,
		Localizer: localizer,
		Cancel:    cancel.NewManager(l),
	}

	httpCfg := network.NewDefaultHTTPClientConfig(cfg.HTTP())
	container.HttpClient, err = network.SetupHTTPClient(httpCfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to set up HTTP client: %w", err)
	}

	aiHTTPClient, err := network.SetupHTTPClient(network.NewAIHTTPClientConfig(cfg.HTTP(), cfg.AI().Timeout), l)
	if err != nil {
		return nil, fmt.Errorf("failed to set up AI HTTP client: %w", err)
	}
	if cfg.AI().GetAPIKey() == "" {
		l.Warn("AI API key is not set, AI commands will fail")
	}
	container.AI = ai.NewClient(cfg.AI(), aiHTTPClient, l)

	fetcherHTTPClient, err := network.SetupHTTPClient(network.NewHTTPClientConfigForFetcher(cfg.HTTP()), l)
	if err != nil {
		return nil, fmt.Errorf("failed to set up fetcher HTTP client: %w", err)
	}
	pageFetcher, err := fetcher.NewPageFetcher(l, fetcherHTTPClient, cfg.GetAskCommandConfig().Fetcher.MaxLength)
	if err != nil {
		return nil, err
	}
	container.Fetcher = fetcher.NewManager(l)
	container.Fetcher.SetDefaultFetcher(pageFetcher)

	discordClient, err := discord.NewClient(cfg.Discord(), httpCfg, container.HttpClient, l)
	if err != nil {
		return nil, err
	}
	l.Info("Discord client initialized")
	container.Discord = discordClient
	container.Responder = discordClient

	cacheCfg := cfg.Cache()
	container.Settings = service.NewSettings(
		db,
		cache.NewMemory[database.GuildSettings](cacheCfg.MaxEntries, cacheCfg.SettingsTTL),
		cacheCfg.SettingsTTL,
		l,
	)

	convCfg := cfg.Conversation()
	container.Conversations = service.NewConversations(
		service.NewConversationCache(convCfg),
		container.Settings,
		convCfg,
		cfg.Discord().Prefix,
		l,
	)

	container.Registry = queue.NewRegistry()
	queueCfg := cfg.Queue()
	container.Dispatcher = queue.New(queue.Config{
		CommandCapacity: queueCfg.CommandCapacity,
		EventCapacity:   queueCfg.EventCapacity,
		LogCapacity:     queueCfg.LogCapacity,
	}, container.Registry, l)

	return container, nil
}
