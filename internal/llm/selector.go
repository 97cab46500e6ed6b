package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"

	"go.uber.org/zap"
)

const (
	// DefaultReply replaces an empty answer from a backend that otherwise succeeded.
	DefaultReply = "I'm here to listen. Could you tell me a bit more about how you're feeling?"
	// UnavailableReply is returned when no backend produced an answer.
	UnavailableReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

// Tier is one step of the fallback chain.
type Tier struct {
	Backend GenerativeBackend
	Source  string // source tag recorded for replies from this tier
}

// Result is the resolved outcome of a generation request. Reply is never empty.
type Result struct {
	Reply   string
	Source  string
	Backend string
}

// Selector walks an ordered chain of generative backends.
// Each backend is tried at most once per request, bounded by timeout.
type Selector struct {
	tiers   []Tier
	timeout time.Duration
	logger  *zap.Logger
}

// NewSelector creates a selector. Tiers with a nil backend are skipped, so
// callers can pass unconfigured providers straight through.
func NewSelector(timeout time.Duration, logger *zap.Logger, tiers ...Tier) *Selector {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}

	active := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Backend == nil {
			continue
		}
		active = append(active, t)
		logger.Info("Generative backend registered",
			zap.String("backend", t.Backend.Name()),
			zap.String("source", t.Source),
			zap.Int("position", len(active)),
			zap.Any("model", t.Backend.GetModelInfo()))
	}

	return &Selector{
		tiers:   active,
		timeout: timeout,
		logger:  logger,
	}
}

// Backends describes the registered tiers in fallback order.
func (s *Selector) Backends() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(s.tiers))
	for _, t := range s.tiers {
		info := t.Backend.GetModelInfo()
		info["source"] = t.Source
		out = append(out, info)
	}
	return out
}

// Generate produces a reply for text with history as conversational context.
func (s *Selector) Generate(ctx context.Context, text string, history []models.HistoryTurn) Result {
	for i, tier := range s.tiers {
		name := tier.Backend.Name()
		if !tier.Backend.Available() {
			metrics.BackendCalls.WithLabelValues(name, metrics.OutcomeSkipped).Inc()
			s.logger.Debug("Backend unavailable, skipping",
				zap.String("backend", name),
				zap.Int("position", i+1))
			continue
		}

		reply, err := s.attempt(ctx, tier.Backend, text, history)
		if err != nil {
			outcome := metrics.OutcomeError
			if errors.Is(err, context.DeadlineExceeded) {
				outcome = metrics.OutcomeTimeout
			}
			metrics.BackendCalls.WithLabelValues(name, outcome).Inc()
			s.logger.Warn("Backend failed, falling back",
				zap.String("backend", name),
				zap.String("outcome", outcome),
				zap.Error(err))
			continue
		}

		metrics.BackendCalls.WithLabelValues(name, metrics.OutcomeOK).Inc()
		if strings.TrimSpace(reply) == "" {
			return Result{Reply: DefaultReply, Source: models.SourceDefault, Backend: name}
		}
		return Result{Reply: strings.TrimSpace(reply), Source: tier.Source, Backend: name}
	}

	s.logger.Error("No generative backend produced a reply")
	return Result{Reply: UnavailableReply, Source: models.SourceError}
}

func (s *Selector) attempt(ctx context.Context, backend GenerativeBackend, text string, history []models.HistoryTurn) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.BackendLatency.WithLabelValues(backend.Name()).Observe(time.Since(start).Seconds())
	}()

	type outcome struct {
		reply string
		err   error
	}
	// A backend that ignores its context must not hold the request past the deadline.
	done := make(chan outcome, 1)
	go func() {
		reply, err := backend.Generate(callCtx, text, history)
		done <- outcome{reply, err}
	}()

	select {
	case o := <-done:
		return o.reply, o.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}
