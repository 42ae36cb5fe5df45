// Package ai talks to an OpenAI-compatible HTTP API for chat, image and
// speech generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
)

const maxLoggedField = 1000

type Client struct {
	baseURL string
	apiKey  string
	cfg     config.AIConfig
	client  *http.Client
	logger  logger.Logger
}

func NewClient(cfg config.AIConfig, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.GetAPIKey(),
		cfg:     cfg,
		client:  httpClient,
		logger:  log.WithComponent("ai"),
	}
}

// Chat sends messages after the configured system prompt and returns the
// first choice.
func (c *Client) Chat(ctx context.Context, messages []Message, user string) (ChatResult, error) {
	all := make([]Message, 0, len(messages)+1)
	if c.cfg.SystemPrompt != "" {
		all = append(all, Message{Role: RoleSystem, Content: c.cfg.SystemPrompt})
	}
	all = append(all, messages...)

	var resp chatResponse
	err := c.postJSON(ctx, "chat/completions", chatRequest{
		Model:     c.cfg.ChatModel,
		Messages:  all,
		MaxTokens: c.cfg.MaxTokens,
		User:      user,
	}, &resp)
	if err != nil {
		return ChatResult{}, err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return ChatResult{}, fmt.Errorf("chat: %w", ErrEmptyResponse)
	}
	return ChatResult{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: resp.Choices[0].FinishReason,
		Usage:        resp.Usage,
	}, nil
}

func (c *Client) Image(ctx context.Context, prompt string) (ImageResult, error) {
	var resp imageResponse
	err := c.postJSON(ctx, "images/generations", imageRequest{
		Model:  c.cfg.ImageModel,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	}, &resp)
	if err != nil {
		return ImageResult{}, err
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return ImageResult{}, fmt.Errorf("image: %w", ErrEmptyResponse)
	}
	return ImageResult{URL: resp.Data[0].URL, RevisedPrompt: resp.Data[0].RevisedPrompt}, nil
}

// Speech returns mp3 audio for text.
func (c *Client) Speech(ctx context.Context, text string) ([]byte, error) {
	body, err := c.do(ctx, "audio/speech", speechRequest{
		Model:          c.cfg.SpeechModel,
		Input:          text,
		Voice:          c.cfg.SpeechVoice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("speech: %w", ErrEmptyResponse)
	}
	return body, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, request, response any) error {
	body, err := c.do(ctx, endpoint, request)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, response); err != nil {
		return &APIError{Err: err, Message: "failed to unmarshal response"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, request any) ([]byte, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logRequest(req, payload)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Err: err, Message: "network request failed"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Err: err, Message: "failed to read response body"}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := newStatusError(resp.StatusCode, body)
		c.logger.WithFields(logger.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"code":     apiErr.Code,
		}).Warn("Upstream request failed")
		return nil, apiErr
	}

	return body, nil
}

func (c *Client) logRequest(req *http.Request, body []byte) {
	var bodyData map[string]any
	if err := json.Unmarshal(body, &bodyData); err == nil {
		truncateLargeFields(bodyData)
	}

	c.logger.WithFields(logger.Fields{
		"url":    req.URL.String(),
		"method": req.Method,
		"body":   bodyData,
	}).Debug("HTTP request")
}

func truncateLargeFields(data map[string]any) {
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if len(val) > maxLoggedField {
				data[k] = val[:maxLoggedField] + "...[truncated]"
			}
		case map[string]any:
			truncateLargeFields(val)
		case []any:
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					truncateLargeFields(m)
				}
			}
		}
	}
}
