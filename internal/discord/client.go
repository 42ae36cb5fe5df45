// Package discord adapts a discordgo session to the bot: outbound calls go
// through Client, inbound gateway events are translated by Gateway.
package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/markdown"
	"github.com/muratoffalex/emotebot/internal/network"
	"github.com/muratoffalex/emotebot/internal/platform"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type Client struct {
	session *discordgo.Session
	logger  logger.Logger
}

func NewClient(cfg config.DiscordConfig, httpCfg network.HTTPClientConfig, httpClient *http.Client, log logger.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session.Identify.Intents = intents
	session.StateEnabled = true
	if httpClient != nil {
		session.Client = httpClient
	}
	if proxy := network.ProxyFunc(httpCfg); proxy != nil && session.Dialer != nil {
		dialer := *session.Dialer
		dialer.Proxy = proxy
		session.Dialer = &dialer
	}

	return &Client{
		session: session,
		logger:  log.WithComponent("discord"),
	}, nil
}

func (c *Client) Session() *discordgo.Session {
	return c.session
}

func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	if c.session.State != nil && c.session.State.User != nil {
		c.logger.WithFields(logger.Fields{
			"user":   c.session.State.User.Username,
			"guilds": len(c.session.State.Guilds),
		}).Info("Discord session opened")
	}
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) Latency() time.Duration {
	return c.session.HeartbeatLatency()
}

// SelfID returns the bot's user id once the session is ready.
func (c *Client) SelfID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) Send(ctx context.Context, channelID, content string) error {
	for _, chunk := range markdown.Split(content, markdown.MaxMessageLength) {
		_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: noMentions(),
		}, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// Reply answers msg. Content longer than one message continues as plain
// messages in the same channel.
func (c *Client) Reply(ctx context.Context, msg platform.MessageRef, content string) error {
	for i, chunk := range markdown.Split(content, markdown.MaxMessageLength) {
		send := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: noMentions(),
		}
		if i == 0 {
			send.Reference = reference(msg)
		}
		if _, err := c.session.ChannelMessageSendComplex(msg.ChannelID, send, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("reply: %w", err)
		}
	}
	return nil
}

func (c *Client) React(ctx context.Context, msg platform.MessageRef, emoji string) error {
	if err := c.session.MessageReactionAdd(msg.ChannelID, msg.MessageID, emojiAPIName(emoji), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

func (c *Client) SendFile(ctx context.Context, msg platform.MessageRef, content string, file platform.File) error {
	_, err := c.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       reference(msg),
		AllowedMentions: noMentions(),
		Files: []*discordgo.File{{
			Name:        file.Name,
			ContentType: file.ContentType,
			Reader:      file.Reader,
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	return nil
}

func (c *Client) CanManageGuild(ctx context.Context, msg platform.MessageRef) (bool, error) {
	if !msg.InGuild() {
		return false, nil
	}
	perms, err := c.session.UserChannelPermissions(msg.AuthorID, msg.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("resolve permissions: %w", err)
	}
	return perms&(discordgo.PermissionAdministrator|discordgo.PermissionManageGuild) != 0, nil
}

func reference(msg platform.MessageRef) *discordgo.MessageReference {
	return &discordgo.MessageReference{
		MessageID: msg.MessageID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
}

func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}

var _ platform.Responder = (*Client)(nil)

// Attach registers g's callbacks on the underlying session. Call before Open.
func (c *Client) Attach(g *Gateway) {
	g.Attach(c.session)
}
