package mood

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellness-backend/internal/jsonextract"
	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"

	"go.uber.org/zap"
)

var (
	ErrMissingFields = errors.New("payload has neither mood nor habits")
	ErrUnknownMood   = errors.New("mood is not a known label")
	ErrInvalidHabit  = errors.New("habit has no title")
)

// StructuredBackend returns raw model text for a single prompt.
type StructuredBackend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor classifies the emotional tone of a message and proposes habits.
type Extractor struct {
	backend StructuredBackend
	timeout time.Duration
	logger  *zap.Logger
}

// NewExtractor creates an extractor. A nil backend disables analysis.
func NewExtractor(backend StructuredBackend, timeout time.Duration, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Extractor{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Analyze returns a well-formed analysis of text, or nil.
func (e *Extractor) Analyze(ctx context.Context, text string) *models.MoodAnalysis {
	if e.backend == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	name := e.backend.Name() + "-mood"
	raw, err := e.backend.Complete(callCtx, BuildPrompt(text))
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.BackendCalls.WithLabelValues(name, outcome).Inc()
		e.logger.Warn("Mood extraction call failed", zap.String("outcome", outcome), zap.Error(err))
		return nil
	}

	analysis, err := Parse(raw)
	if err != nil {
		metrics.BackendCalls.WithLabelValues(name, metrics.OutcomeError).Inc()
		e.logger.Warn("Discarding malformed mood analysis",
			zap.Error(err),
			zap.String("original_response", raw))
		return nil
	}

	metrics.BackendCalls.WithLabelValues(name, metrics.OutcomeOK).Inc()
	return analysis
}

type payload struct {
	Mood   *string         `json:"mood"`
	Habits *[]models.Habit `json:"habits"`
}

// Parse recovers a MoodAnalysis from raw model output. Any deviation from
// the expected shape is an error; partial results are never returned.
func Parse(raw string) (*models.MoodAnalysis, error) {
	obj, err := jsonextract.FirstObject(raw)
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("failed to parse mood payload: %w", err)
	}
	if p.Mood == nil && p.Habits == nil {
		return nil, ErrMissingFields
	}

	analysis := &models.MoodAnalysis{
		Mood:   "neutral",
		Habits: []models.Habit{},
	}

	if p.Mood != nil {
		mood := strings.ToLower(strings.TrimSpace(*p.Mood))
		if !models.IsMoodLabel(mood) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMood, *p.Mood)
		}
		analysis.Mood = mood
	}

	if p.Habits != nil {
		for _, h := range *p.Habits {
			h.Title = strings.TrimSpace(h.Title)
			h.Description = strings.TrimSpace(h.Description)
			if h.Title == "" {
				return nil, ErrInvalidHabit
			}
			analysis.Habits = append(analysis.Habits, h)
		}
		if len(analysis.Habits) > models.MaxHabits {
			analysis.Habits = analysis.Habits[:models.MaxHabits]
		}
	}

	return analysis, nil
}
