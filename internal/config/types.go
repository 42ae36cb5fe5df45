package config

import (
	"os"
	"strings"
	"time"
)

type GlobalConfig struct {
	InterfaceLanguage string `koanf:"interface_language"`
}

type CommandConfig struct {
	Enabled bool `koanf:"enabled"`
}

type AskFetcherOptions struct {
	Enabled   bool     `koanf:"enabled"`
	MaxLength int      `koanf:"max_length"`
	MaxLinks  int      `koanf:"max_links"`
	Whitelist []string `koanf:"whitelist"`
	Blacklist []string `koanf:"blacklist"`
}

type AskCommandConfig struct {
	CommandConfig CommandConfig
	Fetcher       AskFetcherOptions `koanf:"fetcher"`
}

type DiscordConfig struct {
	Token  string `koanf:"token"`
	Prefix string `koanf:"prefix"`
	// Channel that receives failure reports from every guild.
	OpsChannelID string  `koanf:"ops_channel_id"`
	FailureEmoji string  `koanf:"failure_emoji"`
	OpsRate      float64 `koanf:"ops_rate"`
	OpsBurst     int     `koanf:"ops_burst"`
}

type QueueConfig struct {
	CommandCapacity int `koanf:"command_capacity"`
	EventCapacity   int `koanf:"event_capacity"`
	LogCapacity     int `koanf:"log_capacity"`
}

type EmoteConfig struct {
	RetryAttempts int           `koanf:"attempts"`
	RetryDelay    time.Duration `koanf:"delay"`
}

type CacheConfig struct {
	MaxEntries  int           `koanf:"max_entries"`
	SettingsTTL time.Duration `koanf:"settings_ttl"`
}

type ConversationConfig struct {
	MaxMessages int           `koanf:"max_messages"`
	MaxAge      time.Duration `koanf:"max_age"`
	IdleTTL     time.Duration `koanf:"idle_ttl"`
	MaxChannels int           `koanf:"max_channels"`
}

type AIConfig struct {
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	ChatModel    string        `koanf:"chat_model"`
	ImageModel   string        `koanf:"image_model"`
	SpeechModel  string        `koanf:"speech_model"`
	SpeechVoice  string        `koanf:"speech_voice"`
	SystemPrompt string        `koanf:"system_prompt"`
	MaxTokens    int           `koanf:"max_tokens"`
	Timeout      time.Duration `koanf:"timeout"`
}

// GetAPIKey falls back to OPENAI_API_KEY when the key is not configured.
func (c AIConfig) GetAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

type HTTPConfig struct {
	proxy   *string
	noProxy []string
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	for _, name := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(name); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	for _, name := range []string{"NO_PROXY", "no_proxy"} {
		if value := os.Getenv(name); value != "" {
			var hosts []string
			for host := range strings.SplitSeq(value, ",") {
				if host = strings.TrimSpace(host); host != "" {
					hosts = append(hosts, host)
				}
			}
			return hosts
		}
	}
	return nil
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	Format      string `koanf:"format"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

func (c LoggingConfig) IsJSON() bool {
	return strings.EqualFold(c.Format, "json")
}
