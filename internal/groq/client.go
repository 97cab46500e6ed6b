// Package groq is the secondary chat backend. It speaks the OpenAI chat
// completions protocol, so Groq, OpenRouter or any compatible endpoint works.
package groq

import (
	"context"
	"fmt"

	"wellness-backend/internal/models"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client wraps an OpenAI-compatible chat completions client.
type Client struct {
	client            *openai.Client
	modelName         string
	systemInstruction string
	logger            *zap.Logger
}

// Config for Groq client
type Config struct {
	APIKey            string
	BaseURL           string // Default: "https://api.groq.com/openai/v1"
	ModelName         string // Default: "llama-3.3-70b-versatile"
	SystemInstruction string
}

// NewClient creates a new Groq client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "llama-3.3-70b-versatile"
	}

	oaCfg := openai.DefaultConfig(cfg.APIKey)
	oaCfg.BaseURL = cfg.BaseURL

	logger.Info("Groq client initialized",
		zap.String("model", cfg.ModelName),
		zap.String("base_url", cfg.BaseURL))

	return &Client{
		client:            openai.NewClientWithConfig(oaCfg),
		modelName:         cfg.ModelName,
		systemInstruction: cfg.SystemInstruction,
		logger:            logger,
	}, nil
}

func (c *Client) Name() string { return "groq" }

// Available reports whether the client was constructed.
func (c *Client) Available() bool {
	return c != nil && c.client != nil
}

// Generate sends the conversation so far plus prompt and returns the reply.
func (c *Client) Generate(ctx context.Context, prompt string, history []models.HistoryTurn) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    buildMessages(c.systemInstruction, prompt, history),
		Temperature: 0.7,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}

	c.logger.Debug("Groq completion finished",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "groq",
		"model":    c.modelName,
	}
}

func buildMessages(system, prompt string, history []models.HistoryTurn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)*2+2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, turn := range history {
		if turn.UserMessage == "" || turn.BotReply == "" {
			continue
		}
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.UserMessage},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.BotReply},
		)
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}
