package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"wellness-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBackend struct {
	name      string
	available bool
	reply     string
	err       error
	delay     time.Duration
	calls     atomic.Int32
	history   []models.HistoryTurn
}

func (s *stubBackend) Name() string    { return s.name }
func (s *stubBackend) Available() bool { return s.available }

func (s *stubBackend) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"provider": s.name, "model": s.name + "-test"}
}

func (s *stubBackend) Generate(ctx context.Context, prompt string, history []models.HistoryTurn) (string, error) {
	s.calls.Add(1)
	s.history = history
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func TestSelector_PrimarySuccess(t *testing.T) {
	primary := &stubBackend{name: "gemini", available: true, reply: "  Take a slow breath.  "}
	secondary := &stubBackend{name: "groq", available: true, reply: "unused"}
	s := NewSelector(time.Second, zap.NewNop(),
		Tier{Backend: primary, Source: models.SourcePrimary},
		Tier{Backend: secondary, Source: models.SourceSecondary})

	history := []models.HistoryTurn{{UserMessage: "hi", BotReply: "hello"}}
	res := s.Generate(context.Background(), "I can't sleep", history)

	assert.Equal(t, "Take a slow breath.", res.Reply)
	assert.Equal(t, models.SourcePrimary, res.Source)
	assert.Equal(t, "gemini", res.Backend)
	assert.Equal(t, history, primary.history)
	assert.Zero(t, secondary.calls.Load())
}

func TestSelector_FallsBackToSecondary(t *testing.T) {
	primary := &stubBackend{name: "gemini", available: true, err: errors.New("500 internal")}
	secondary := &stubBackend{name: "groq", available: true, reply: "I hear you."}
	s := NewSelector(time.Second, zap.NewNop(),
		Tier{Backend: primary, Source: models.SourcePrimary},
		Tier{Backend: secondary, Source: models.SourceSecondary})

	res := s.Generate(context.Background(), "hello", nil)

	assert.Equal(t, "I hear you.", res.Reply)
	assert.Equal(t, models.SourceSecondary, res.Source)
	assert.EqualValues(t, 1, primary.calls.Load(), "failed backend must not be retried")
}

func TestSelector_TimeoutNeverLeavesEmptyReply(t *testing.T) {
	primary := &stubBackend{name: "gemini", available: true, reply: "too late", delay: time.Second}
	s := NewSelector(30*time.Millisecond, zap.NewNop(), Tier{Backend: primary, Source: models.SourcePrimary})

	start := time.Now()
	res := s.Generate(context.Background(), "hello", nil)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, UnavailableReply, res.Reply)
	assert.Equal(t, models.SourceError, res.Source)
	assert.EqualValues(t, 1, primary.calls.Load())
}

func TestSelector_Unconfigured(t *testing.T) {
	s := NewSelector(time.Second, zap.NewNop(), Tier{Backend: nil, Source: models.SourcePrimary})

	res := s.Generate(context.Background(), "hello", nil)
	assert.Equal(t, UnavailableReply, res.Reply)
	assert.Equal(t, models.SourceError, res.Source)
	assert.Empty(t, res.Backend)
}

func TestSelector_UnavailableBackendIsNotCalled(t *testing.T) {
	primary := &stubBackend{name: "gemini", available: false, reply: "nope"}
	s := NewSelector(time.Second, zap.NewNop(), Tier{Backend: primary, Source: models.SourcePrimary})

	res := s.Generate(context.Background(), "hello", nil)
	assert.Equal(t, models.SourceError, res.Source)
	assert.Zero(t, primary.calls.Load())
}

func TestSelector_EmptyReplyBecomesDefault(t *testing.T) {
	primary := &stubBackend{name: "gemini", available: true, reply: "   "}
	secondary := &stubBackend{name: "groq", available: true, reply: "unused"}
	s := NewSelector(time.Second, zap.NewNop(),
		Tier{Backend: primary, Source: models.SourcePrimary},
		Tier{Backend: secondary, Source: models.SourceSecondary})

	res := s.Generate(context.Background(), "hello", nil)
	assert.Equal(t, DefaultReply, res.Reply)
	assert.Equal(t, models.SourceDefault, res.Source)
	assert.Zero(t, secondary.calls.Load())
}

func TestRateLimitedBackend(t *testing.T) {
	inner := &stubBackend{name: "gemini", available: true, reply: "ok"}
	limited := NewRateLimitedBackend(inner, 2)

	assert.True(t, limited.Available())
	assert.True(t, limited.Available())
	assert.False(t, limited.Available(), "budget of 2 is exhausted")
	assert.Equal(t, "gemini", limited.Name())

	unlimited := NewRateLimitedBackend(inner, 0)
	assert.Same(t, GenerativeBackend(inner), unlimited)
}

func TestSelector_Backends(t *testing.T) {
	primary := NewRateLimitedBackend(&stubBackend{name: "gemini", available: true}, 30)
	secondary := &stubBackend{name: "groq", available: true}
	s := NewSelector(time.Second, zap.NewNop(),
		Tier{Backend: primary, Source: models.SourcePrimary},
		Tier{Backend: nil, Source: "unused"},
		Tier{Backend: secondary, Source: models.SourceSecondary},
	)

	backends := s.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, "gemini-test", backends[0]["model"])
	assert.Equal(t, models.SourcePrimary, backends[0]["source"])
	assert.Equal(t, 30, backends[0]["requests_per_minute"])
	assert.Equal(t, "groq", backends[1]["provider"])
	assert.Equal(t, models.SourceSecondary, backends[1]["source"])

	assert.Empty(t, NewSelector(time.Second, zap.NewNop()).Backends())
}
