package gemini

import (
	"context"
	"fmt"
	"strings"

	"wellness-backend/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
}

// Config for Gemini client
type Config struct {
	APIKey            string
	ModelName         string // Default: "gemini-1.5-flash"
	SystemInstruction string
	// JSONMode asks the model for an application/json response body.
	JSONMode        bool
	Temperature     float32
	MaxOutputTokens int32
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-1.5-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 512
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	if cfg.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(cfg.SystemInstruction)},
		}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](cfg.Temperature),
		TopP:            genai.Ptr[float32](0.9),
		TopK:            genai.Ptr[int32](40),
		MaxOutputTokens: genai.Ptr[int32](cfg.MaxOutputTokens),
	}
	// Must follow the GenerationConfig assignment, which would reset it.
	if cfg.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	logger.Info("Gemini client initialized",
		zap.String("model", cfg.ModelName),
		zap.Bool("json_mode", cfg.JSONMode))

	return &Client{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Name() string { return "gemini" }

// Available reports whether the client was constructed with a model.
func (c *Client) Available() bool {
	return c != nil && c.model != nil
}

// Generate continues a chat seeded with history and returns the model's reply.
func (c *Client) Generate(ctx context.Context, prompt string, history []models.HistoryTurn) (string, error) {
	cs := c.model.StartChat()
	cs.History = buildHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return responseText(resp), nil
}

// Complete sends a single prompt with no chat context.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":  "gemini",
		"model":     c.modelName,
		"json_mode": c.model.ResponseMIMEType == "application/json",
	}
}

// buildHistory maps prior turns to alternating user/model contents, oldest first.
func buildHistory(history []models.HistoryTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)*2)
	for _, turn := range history {
		if turn.UserMessage == "" || turn.BotReply == "" {
			continue
		}
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.UserMessage)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.BotReply)}},
		)
	}
	return contents
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
