package llm

import (
	"context"

	"wellness-backend/internal/models"

	"golang.org/x/time/rate"
)

// GenerativeBackend is a text generation provider.
type GenerativeBackend interface {
	Name() string
	// Available reports whether the backend may be called for this request.
	Available() bool
	Generate(ctx context.Context, prompt string, history []models.HistoryTurn) (string, error)
	GetModelInfo() map[string]interface{}
}

// RateLimitedBackend gives a backend a per-minute request budget.
// An exhausted budget makes the backend unavailable instead of waiting,
// so the selector moves on to the next tier without adding latency.
type RateLimitedBackend struct {
	backend GenerativeBackend
	limiter *rate.Limiter
}

// NewRateLimitedBackend wraps backend. requestsPerMinute <= 0 disables the limit.
func NewRateLimitedBackend(backend GenerativeBackend, requestsPerMinute int) GenerativeBackend {
	if requestsPerMinute <= 0 {
		return backend
	}
	limit := rate.Limit(float64(requestsPerMinute) / 60.0)
	return &RateLimitedBackend{
		backend: backend,
		limiter: rate.NewLimiter(limit, requestsPerMinute),
	}
}

func (b *RateLimitedBackend) Name() string { return b.backend.Name() }

// Available consumes a token from the budget when the wrapped backend is up.
func (b *RateLimitedBackend) Available() bool {
	return b.backend.Available() && b.limiter.Allow()
}

func (b *RateLimitedBackend) GetModelInfo() map[string]interface{} {
	info := b.backend.GetModelInfo()
	info["requests_per_minute"] = b.limiter.Burst()
	return info
}

func (b *RateLimitedBackend) Generate(ctx context.Context, prompt string, history []models.HistoryTurn) (string, error) {
	return b.backend.Generate(ctx, prompt, history)
}
