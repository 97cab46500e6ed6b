package telegram_bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wellness-backend/internal/llm"
	"wellness-backend/internal/models"
	"wellness-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UserIDPrefix namespaces Telegram chats among pipeline user ids.
const UserIDPrefix = "tg:"

// Chatter runs one chat turn.
type Chatter interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// Sender is the subset of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot relays Telegram text messages through the chat pipeline
type Bot struct {
	api    Sender
	chat   Chatter
	logger *zap.Logger

	updates tgbotapi.UpdatesChannel
	stop    func()
}

// NewBot creates a new Telegram bot instance. It returns nil, nil when disabled.
func NewBot(enabled bool, token string, chat Chatter, logger *zap.Logger) (*Bot, error) {
	if !enabled || token == "" {
		logger.Info("Telegram bot is disabled (telegram.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return &Bot{
		api:     botAPI,
		chat:    chat,
		logger:  logger,
		updates: botAPI.GetUpdatesChan(u),
		stop:    botAPI.StopReceivingUpdates,
	}, nil
}

// Start handles updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil // Bot is disabled
	}

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			if b.stop != nil {
				b.stop()
			}
			return nil
		case update, ok := <-b.updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStartCommand(message)
		case "help":
			b.handleHelpCommand(message)
		default:
			b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
		}
		return
	}

	if strings.TrimSpace(message.Text) == "" {
		return
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(message.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("Failed to send typing action", zap.Error(err))
	}

	resp, err := b.chat.Chat(ctx, models.ChatRequest{
		UserID:  UserIDPrefix + strconv.FormatInt(message.Chat.ID, 10),
		Message: message.Text,
		Lang:    "auto",
	})
	if err != nil {
		if !errors.Is(err, service.ErrValidation) {
			b.logger.Error("Chat pipeline failed", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		}
		b.sendMessage(message.Chat.ID, llm.UnavailableReply)
		return
	}

	b.sendMessage(message.Chat.ID, FormatReply(resp))
}

// FormatReply renders a reply with its habit suggestions as plain text.
func FormatReply(resp *models.ChatResponse) string {
	if resp.MoodAnalysis == nil || len(resp.MoodAnalysis.Habits) == 0 {
		return resp.Text
	}

	var sb strings.Builder
	sb.WriteString(resp.Text)
	sb.WriteString("\n\nSmall things that might help:")
	for _, h := range resp.MoodAnalysis.Habits {
		sb.WriteString("\n• ")
		sb.WriteString(h.Title)
		if h.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(h.Description)
		}
	}
	return sb.String()
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	name := "there"
	if message.From != nil && message.From.FirstName != "" {
		name = message.From.FirstName
	}
	welcomeText := fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"I'm a wellness companion. Tell me how you're feeling, in any language, and I'll listen.\n\n"+
			"Use /help for more information.",
		name,
	)
	b.sendMessage(message.Chat.ID, welcomeText)
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := "📚 Help:\n\n" +
		"/start - Welcome message\n" +
		"/help - This help\n\n" +
		"Any other message is a conversation with me. I am not a substitute for professional care; " +
		"if you are in danger, please contact your local emergency services."
	b.sendMessage(message.Chat.ID, helpText)
}

// sendMessage is a helper to send a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
