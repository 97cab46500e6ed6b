package telegram_bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellness-backend/internal/llm"
	"wellness-backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	actions  int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.messages...)
}

type fakeChatter struct {
	resp *models.ChatResponse
	err  error
	got  []models.ChatRequest
}

func (f *fakeChatter) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{FirstName: "Sam"},
		Text: text,
	}
}

func commandMessage(chatID int64, cmd string) *tgbotapi.Message {
	m := textMessage(chatID, "/"+cmd)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return m
}

func TestHandleMessage_RunsPipeline(t *testing.T) {
	sender := &fakeSender{}
	chatter := &fakeChatter{resp: &models.ChatResponse{Sender: "bot", Text: "Je t'écoute.", Role: "user"}}
	b := &Bot{api: sender, chat: chatter, logger: zap.NewNop()}

	b.handleMessage(context.Background(), textMessage(42, "je suis fatigué"))

	require.Len(t, chatter.got, 1)
	assert.Equal(t, "tg:42", chatter.got[0].UserID)
	assert.Equal(t, "auto", chatter.got[0].Lang)
	assert.Equal(t, 1, sender.actions)

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, "Je t'écoute.", sent[0].Text)
}

func TestHandleMessage_PipelineError(t *testing.T) {
	sender := &fakeSender{}
	b := &Bot{api: sender, chat: &fakeChatter{err: errors.New("boom")}, logger: zap.NewNop()}

	b.handleMessage(context.Background(), textMessage(7, "hello"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, llm.UnavailableReply, sent[0].Text)
}

func TestHandleMessage_Commands(t *testing.T) {
	sender := &fakeSender{}
	chatter := &fakeChatter{}
	b := &Bot{api: sender, chat: chatter, logger: zap.NewNop()}

	b.handleMessage(context.Background(), commandMessage(1, "start"))
	b.handleMessage(context.Background(), commandMessage(1, "help"))
	b.handleMessage(context.Background(), commandMessage(1, "nope"))

	assert.Empty(t, chatter.got)
	sent := sender.sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0].Text, "Sam")
	assert.Contains(t, sent[1].Text, "/help")
	assert.Contains(t, sent[2].Text, "Unknown command")
}

func TestFormatReply(t *testing.T) {
	plain := &models.ChatResponse{Text: "ok"}
	assert.Equal(t, "ok", FormatReply(plain))

	withHabits := &models.ChatResponse{
		Text: "That sounds hard.",
		MoodAnalysis: &models.MoodAnalysis{Mood: "tired", Habits: []models.Habit{
			{Title: "Wind down", Description: "No screens after ten."},
			{Title: "Nap"},
		}},
	}
	out := FormatReply(withHabits)
	assert.Contains(t, out, "That sounds hard.")
	assert.Contains(t, out, "• Wind down: No screens after ten.")
	assert.Contains(t, out, "• Nap")
}

func TestStart_StopsOnCancel(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	sender := &fakeSender{}
	stopped := false
	b := &Bot{
		api:     sender,
		chat:    &fakeChatter{resp: &models.ChatResponse{Text: "hi"}},
		logger:  zap.NewNop(),
		updates: updates,
		stop:    func() { stopped = true },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	updates <- tgbotapi.Update{Message: textMessage(3, "hello")}
	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return")
	}
	assert.True(t, stopped)

	var nilBot *Bot
	assert.NoError(t, nilBot.Start(context.Background()))
}
