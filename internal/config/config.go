package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	GLOBAL_LANGUAGE                  = "global.interface_language"
	DISCORD_TOKEN                    = "discord.token"
	DISCORD_PREFIX                   = "discord.prefix"
	DISCORD_OPS_CHANNEL              = "discord.ops_channel_id"
	DISCORD_FAILURE_EMOJI            = "discord.failure_emoji"
	DISCORD_OPS_RATE                 = "discord.ops_rate"
	DISCORD_OPS_BURST                = "discord.ops_burst"
	QUEUE_COMMAND_CAPACITY           = "queue.command_capacity"
	QUEUE_EVENT_CAPACITY             = "queue.event_capacity"
	QUEUE_LOG_CAPACITY               = "queue.log_capacity"
	EMOTE_RETRY_ATTEMPTS             = "emote.retry.attempts"
	EMOTE_RETRY_DELAY                = "emote.retry.delay"
	CACHE_MAX_ENTRIES                = "cache.max_entries"
	CACHE_SETTINGS_TTL               = "cache.settings_ttl"
	CONVERSATION_MAX_MESSAGES        = "conversation.max_messages"
	CONVERSATION_MAX_AGE             = "conversation.max_age"
	CONVERSATION_IDLE_TTL            = "conversation.idle_ttl"
	CONVERSATION_MAX_CHANNELS        = "conversation.max_channels"
	AI_BASE_URL                      = "ai.base_url"
	AI_API_KEY                       = "ai.api_key"
	AI_CHAT_MODEL                    = "ai.chat_model"
	AI_IMAGE_MODEL                   = "ai.image_model"
	AI_SPEECH_MODEL                  = "ai.speech_model"
	AI_SPEECH_VOICE                  = "ai.speech_voice"
	AI_SYSTEM_PROMPT                 = "ai.system_prompt"
	AI_MAX_TOKENS                    = "ai.max_tokens"
	AI_TIMEOUT                       = "ai.timeout"
	HTTP_PROXY                       = "http.proxy"
	HTTP_NO_PROXY                    = "http.no_proxy"
	DATABASE_DSN                     = "database.dsn"
	LOGGING_LEVEL                    = "logging.level"
	LOGGING_FORMAT                   = "logging.format"
	LOGGING_WRITE_IN_FILE            = "logging.write_in_file"
	LOGGING_FILE_PATH                = "logging.file_path"
	ASK_FETCHER_ENABLED              = "commands.ask.fetcher.enabled"
	ASK_FETCHER_MAX_LENGTH           = "commands.ask.fetcher.max_length"
	ASK_FETCHER_MAX_LINKS            = "commands.ask.fetcher.max_links"
	ASK_FETCHER_WHITELIST            = "commands.ask.fetcher.whitelist"
	ASK_FETCHER_BLACKLIST            = "commands.ask.fetcher.blacklist"
	envPrefix                        = "EMOTEBOT_"
	defaultCommandEnabledKeyTemplate = "commands.%s.enabled"
)

var defaultSQLiteParams = map[string]string{
	"_txlock":      "immediate",
	"_time_format": "sqlite",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func defaults() map[string]any {
	return map[string]any{
		GLOBAL_LANGUAGE:           "en",
		DISCORD_TOKEN:             "",
		DISCORD_PREFIX:            "!",
		DISCORD_OPS_CHANNEL:       "",
		DISCORD_FAILURE_EMOJI:     "❌",
		DISCORD_OPS_RATE:          1.0,
		DISCORD_OPS_BURST:         5,
		QUEUE_COMMAND_CAPACITY:    1024,
		QUEUE_EVENT_CAPACITY:      1024,
		QUEUE_LOG_CAPACITY:        1024,
		EMOTE_RETRY_ATTEMPTS:      3,
		EMOTE_RETRY_DELAY:         10 * time.Millisecond,
		CACHE_MAX_ENTRIES:         1024,
		CACHE_SETTINGS_TTL:        10 * time.Minute,
		CONVERSATION_MAX_MESSAGES: 20,
		CONVERSATION_MAX_AGE:      30 * time.Minute,
		CONVERSATION_IDLE_TTL:     time.Hour,
		CONVERSATION_MAX_CHANNELS: 256,
		AI_BASE_URL:               "https://api.openai.com/v1",
		AI_CHAT_MODEL:             "gpt-4o-mini",
		AI_IMAGE_MODEL:            "dall-e-3",
		AI_SPEECH_MODEL:           "tts-1",
		AI_SPEECH_VOICE:           "alloy",
		AI_SYSTEM_PROMPT:          "You are a friendly Discord bot. Keep answers short.",
		AI_MAX_TOKENS:             600,
		AI_TIMEOUT:                2 * time.Minute,
		HTTP_PROXY:                nil,
		DATABASE_DSN:              "emotebot.db",
		LOGGING_LEVEL:             "info",
		LOGGING_FORMAT:            "text",
		LOGGING_WRITE_IN_FILE:     false,
		LOGGING_FILE_PATH:         "emotebot.log",
		"commands.ping.enabled":        true,
		"commands.help.enabled":        true,
		"commands.emotes.enabled":      true,
		"commands.botchannel.enabled":  true,
		"commands.chatchannel.enabled": true,
		"commands.ask.enabled":         true,
		ASK_FETCHER_ENABLED:            true,
		ASK_FETCHER_MAX_LENGTH:         4000,
		ASK_FETCHER_MAX_LINKS:          2,
		"commands.imagine.enabled":     false,
		"commands.say.enabled":         false,
	}
}

func Load() (*Config, error) {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaults(), "."), nil)

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		}
	}

	k.Load(env.Provider(envPrefix, ".", envKey), nil)

	if k.String(DISCORD_TOKEN) == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	return &Config{k: k}, nil
}

// FromMap builds a Config from defaults overlaid with values, without touching
// files or the environment.
func FromMap(values map[string]any) *Config {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaults(), "."), nil)
	if len(values) > 0 {
		k.Load(confmap.Provider(values, "."), nil)
	}
	return &Config{k: k}
}

// EMOTEBOT_DISCORD_TOKEN -> discord.token. Only the first underscore after a
// section separates levels, so EMOTEBOT_AI_API_KEY maps to ai.api_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

func (c *Config) GetCommandConfig(name string) CommandConfig {
	return CommandConfig{
		Enabled: c.k.Bool(fmt.Sprintf(defaultCommandEnabledKeyTemplate, name)),
	}
}

func (c *Config) GetAskCommandConfig() AskCommandConfig {
	return AskCommandConfig{
		CommandConfig: c.GetCommandConfig("ask"),
		Fetcher: AskFetcherOptions{
			Enabled:   c.k.Bool(ASK_FETCHER_ENABLED),
			MaxLength: c.k.Int(ASK_FETCHER_MAX_LENGTH),
			MaxLinks:  positive(c.k.Int(ASK_FETCHER_MAX_LINKS), 2),
			Whitelist: c.k.Strings(ASK_FETCHER_WHITELIST),
			Blacklist: c.k.Strings(ASK_FETCHER_BLACKLIST),
		},
	}
}

func (c *Config) Discord() DiscordConfig {
	prefix := c.k.String(DISCORD_PREFIX)
	if prefix == "" {
		prefix = "!"
	}
	return DiscordConfig{
		Token:        c.k.String(DISCORD_TOKEN),
		Prefix:       prefix,
		OpsChannelID: c.k.String(DISCORD_OPS_CHANNEL),
		FailureEmoji: c.k.String(DISCORD_FAILURE_EMOJI),
		OpsRate:      c.k.Float64(DISCORD_OPS_RATE),
		OpsBurst:     c.k.Int(DISCORD_OPS_BURST),
	}
}

func (c *Config) Queue() QueueConfig {
	return QueueConfig{
		CommandCapacity: positive(c.k.Int(QUEUE_COMMAND_CAPACITY), 1024),
		EventCapacity:   positive(c.k.Int(QUEUE_EVENT_CAPACITY), 1024),
		LogCapacity:     positive(c.k.Int(QUEUE_LOG_CAPACITY), 1024),
	}
}

func (c *Config) Emote() EmoteConfig {
	return EmoteConfig{
		RetryAttempts: positive(c.k.Int(EMOTE_RETRY_ATTEMPTS), 3),
		RetryDelay:    c.k.Duration(EMOTE_RETRY_DELAY),
	}
}

func (c *Config) Cache() CacheConfig {
	ttl := c.k.Duration(CACHE_SETTINGS_TTL)
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return CacheConfig{
		MaxEntries:  positive(c.k.Int(CACHE_MAX_ENTRIES), 1024),
		SettingsTTL: ttl,
	}
}

func (c *Config) Conversation() ConversationConfig {
	return ConversationConfig{
		MaxMessages: positive(c.k.Int(CONVERSATION_MAX_MESSAGES), 20),
		MaxAge:      c.k.Duration(CONVERSATION_MAX_AGE),
		IdleTTL:     c.k.Duration(CONVERSATION_IDLE_TTL),
		MaxChannels: positive(c.k.Int(CONVERSATION_MAX_CHANNELS), 256),
	}
}

func (c *Config) AI() AIConfig {
	return AIConfig{
		BaseURL:      c.k.String(AI_BASE_URL),
		APIKey:       c.k.String(AI_API_KEY),
		ChatModel:    c.k.String(AI_CHAT_MODEL),
		ImageModel:   c.k.String(AI_IMAGE_MODEL),
		SpeechModel:  c.k.String(AI_SPEECH_MODEL),
		SpeechVoice:  c.k.String(AI_SPEECH_VOICE),
		SystemPrompt: c.k.String(AI_SYSTEM_PROMPT),
		MaxTokens:    c.k.Int(AI_MAX_TOKENS),
		Timeout:      c.k.Duration(AI_TIMEOUT),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		Format:      c.k.String(LOGGING_FORMAT),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) Global() GlobalConfig {
	return GlobalConfig{
		InterfaceLanguage: c.k.String(GLOBAL_LANGUAGE),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue, ok := c.k.Get(HTTP_PROXY).(string); ok {
		proxy = proxyValue
	}

	return HTTPConfig{
		proxy:   &proxy,
		noProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func (c *Config) GetDatabaseDSN() string {
	dsn := c.k.String(DATABASE_DSN)
	parts := strings.Split(dsn, "?")
	path := parts[0]

	params := make(map[string]string)
	if len(parts) > 1 {
		for param := range strings.SplitSeq(parts[1], "&") {
			if kv := strings.Split(param, "="); len(kv) == 2 {
				params[kv[0]] = kv[1]
			}
		}
	}

	for k, v := range defaultSQLiteParams {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}

	var queryParams []string
	for k, v := range params {
		queryParams = append(queryParams, k+"="+v)
	}
	sort.Strings(queryParams)

	if len(queryParams) > 0 {
		return path + "?" + strings.Join(queryParams, "&")
	}
	return path
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"emotebot.toml",
		"config.toml",
		filepath.Join(xdgConfig, "emotebot", "config.toml"),
		"/etc/emotebot/config.toml",
	}
}
