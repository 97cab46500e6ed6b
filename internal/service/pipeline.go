package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellness-backend/internal/llm"
	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"
	"wellness-backend/internal/repository"
	"wellness-backend/internal/translate"

	"go.uber.org/zap"
)

var (
	ErrValidation = errors.New("userId and message are required")
	ErrPipeline   = errors.New("chat pipeline failed")
)

// LanguageBridge never fails: it falls back to "en" or the input text.
type LanguageBridge interface {
	Detect(ctx context.Context, text string) string
	Translate(ctx context.Context, text, source, target string) string
}

type ReplyGenerator interface {
	Generate(ctx context.Context, text string, history []models.HistoryTurn) llm.Result
}

type MoodAnalyzer interface {
	Analyze(ctx context.Context, text string) *models.MoodAnalysis
}

// Recorder accepts fire-and-forget persistence tasks.
type Recorder interface {
	RecordExchange(ex *models.ChatExchange)
	RecordTrainingCandidate(c *models.TrainingCandidate)
}

// Publisher pushes a reply to live channels of a user. Delivery is at most once.
type Publisher interface {
	Publish(userID string, resp *models.ChatResponse)
}

// Deps groups the collaborators of a Pipeline.
type Deps struct {
	Bridge       LanguageBridge
	Generator    ReplyGenerator
	Mood         MoodAnalyzer
	Recorder     Recorder
	Exchanges    repository.ExchangeRepository
	Users        repository.UserRepository
	Publisher    Publisher
	HistoryLimit int
}

// Pipeline turns one user message into one bot reply.
type Pipeline struct {
	deps   Deps
	logger *zap.Logger
}

func NewPipeline(deps Deps, logger *zap.Logger) *Pipeline {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 10
	}
	return &Pipeline{deps: deps, logger: logger}
}

// ApologyResponse is returned to callers when the pipeline itself failed.
func ApologyResponse() *models.ChatResponse {
	return &models.ChatResponse{
		Sender: "bot",
		Text:   llm.UnavailableReply,
		Role:   models.RoleUser,
	}
}

// Chat runs the full turn. The only errors are ErrValidation and ErrPipeline.
func (p *Pipeline) Chat(ctx context.Context, req models.ChatRequest) (resp *models.ChatResponse, err error) {
	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	if userID == "" || message == "" {
		return nil, ErrValidation
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Chat pipeline panicked", zap.String("user_id", userID), zap.Any("panic", r))
			resp, err = nil, fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()

	sourceLang := p.resolveLanguage(ctx, req.Lang, message)
	translated := sourceLang != models.CanonicalLanguage

	canonical := message
	if translated {
		canonical = p.deps.Bridge.Translate(ctx, message, sourceLang, models.CanonicalLanguage)
	}

	matches := KeywordMatches(canonical)
	preferGenerative := PreferGenerative(matches)

	result := p.deps.Generator.Generate(ctx, canonical, p.history(ctx, userID))
	metrics.ChatReplies.WithLabelValues(result.Source).Inc()

	// Mood analysis reads the untranslated message and overlaps with the
	// reply translation.
	moodCh := make(chan *models.MoodAnalysis, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Mood analysis panicked", zap.Any("panic", r))
				moodCh <- nil
			}
		}()
		moodCh <- p.analyzeMood(ctx, message)
	}()

	reply := result.Reply
	if translated {
		reply = p.deps.Bridge.Translate(ctx, reply, models.CanonicalLanguage, sourceLang)
	}

	p.record(userID, message, reply, sourceLang, result.Source, preferGenerative)

	resp = &models.ChatResponse{
		Sender:       "bot",
		Text:         reply,
		Role:         p.role(ctx, userID),
		MoodAnalysis: <-moodCh,
	}

	p.logger.Info("Chat turn completed",
		zap.String("user_id", userID),
		zap.String("language", sourceLang),
		zap.String("source", result.Source),
		zap.String("backend", result.Backend),
		zap.Int("keyword_matches", matches),
		zap.Bool("prefer_generative", preferGenerative),
		zap.Bool("mood", resp.MoodAnalysis != nil))

	if p.deps.Publisher != nil {
		p.deps.Publisher.Publish(userID, resp)
	}
	return resp, nil
}

func (p *Pipeline) resolveLanguage(ctx context.Context, lang, message string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "auto":
		return p.deps.Bridge.Detect(ctx, message)
	case "":
		return models.CanonicalLanguage
	default:
		return translate.NormalizeCode(lang)
	}
}

func (p *Pipeline) history(ctx context.Context, userID string) []models.HistoryTurn {
	if p.deps.Exchanges == nil {
		return nil
	}
	exchanges, err := p.deps.Exchanges.RecentExchanges(ctx, userID, p.deps.HistoryLimit)
	if err != nil {
		p.logger.Warn("Failed to load chat history, continuing without context",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	turns := make([]models.HistoryTurn, 0, len(exchanges))
	for _, ex := range exchanges {
		turns = append(turns, models.HistoryTurn{UserMessage: ex.UserMessage, BotReply: ex.BotReply})
	}
	return turns
}

func (p *Pipeline) record(userID, message, reply, lang, source string, preferGenerative bool) {
	if p.deps.Recorder == nil {
		return
	}

	p.deps.Recorder.RecordExchange(&models.ChatExchange{
		UserID:      userID,
		UserMessage: message,
		BotReply:    reply,
		Language:    lang,
		Source:      source,
	})

	generative := source == models.SourcePrimary || source == models.SourceSecondary
	if generative || preferGenerative {
		p.deps.Recorder.RecordTrainingCandidate(&models.TrainingCandidate{
			UserID:           userID,
			UserMessage:      message,
			BotReply:         reply,
			Language:         lang,
			Source:           source,
			PreferGenerative: preferGenerative,
		})
	}
}

func (p *Pipeline) analyzeMood(ctx context.Context, message string) *models.MoodAnalysis {
	if p.deps.Mood == nil {
		return nil
	}
	return p.deps.Mood.Analyze(ctx, message)
}

func (p *Pipeline) role(ctx context.Context, userID string) string {
	if p.deps.Users == nil {
		return models.RoleUser
	}
	role, err := p.deps.Users.GetRole(ctx, userID)
	if err != nil || role == "" {
		if err != nil {
			p.logger.Warn("Failed to get user role", zap.String("user_id", userID), zap.Error(err))
		}
		return models.RoleUser
	}
	return role
}
