package mood

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness-backend/internal/jsonextract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStructured struct {
	raw    string
	err    error
	delay  time.Duration
	prompt string
}

func (s *stubStructured) Name() string { return "stub" }

func (s *stubStructured) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.raw, s.err
}

func TestParse(t *testing.T) {
	raw := `Here you go:
{"mood": "Stressed", "habits": [
  {"title": "Box breathing", "description": "Breathe in for four counts, hold, out for four."},
  {"title": "Short walk", "description": "Ten minutes outside after lunch."}
]}`

	a, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "stressed", a.Mood)
	require.Len(t, a.Habits, 2)
	assert.Equal(t, "Box breathing", a.Habits[0].Title)
}

func TestParse_TruncatesHabits(t *testing.T) {
	a, err := Parse(`{"mood":"tired","habits":[{"title":"a"},{"title":"b"},{"title":"c"},{"title":"d"}]}`)
	require.NoError(t, err)
	require.Len(t, a.Habits, 3)
	assert.Equal(t, "c", a.Habits[2].Title)
}

func TestParse_PartialFields(t *testing.T) {
	a, err := Parse(`{"mood":"hopeful"}`)
	require.NoError(t, err)
	assert.Equal(t, "hopeful", a.Mood)
	assert.Empty(t, a.Habits)

	a, err = Parse(`{"habits":[{"title":"Journal","description":"Write three lines."}]}`)
	require.NoError(t, err)
	assert.Equal(t, "neutral", a.Mood)
	assert.Len(t, a.Habits, 1)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"no json", "I think the user is sad.", jsonextract.ErrNoObject},
		{"unbalanced", `{"mood":"sad","habits":[`, jsonextract.ErrUnbalanced},
		{"neither field", `{"emotion":"sad"}`, ErrMissingFields},
		{"unknown mood", `{"mood":"ecstatic","habits":[]}`, ErrUnknownMood},
		{"untitled habit", `{"mood":"sad","habits":[{"description":"no title"}]}`, ErrInvalidHabit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.raw)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	a, err := Parse(`{"mood": 42}`)
	assert.Nil(t, a)
	assert.Error(t, err)
}

func TestExtractor_Analyze(t *testing.T) {
	backend := &stubStructured{raw: `{"mood":"anxious","habits":[{"title":"Grounding","description":"Name five things you see."}]}`}
	e := NewExtractor(backend, time.Second, zap.NewNop())

	a := e.Analyze(context.Background(), "je suis très anxieux")
	require.NotNil(t, a)
	assert.Equal(t, "anxious", a.Mood)
	assert.Contains(t, backend.prompt, "je suis très anxieux")
}

func TestExtractor_ReturnsNil(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, NewExtractor(nil, time.Second, zap.NewNop()).Analyze(ctx, "hello"))

	failing := NewExtractor(&stubStructured{err: errors.New("403")}, time.Second, zap.NewNop())
	assert.Nil(t, failing.Analyze(ctx, "hello"))

	garbage := NewExtractor(&stubStructured{raw: "not json"}, time.Second, zap.NewNop())
	assert.Nil(t, garbage.Analyze(ctx, "hello"))

	slow := NewExtractor(&stubStructured{raw: `{"mood":"sad"}`, delay: time.Second}, 20*time.Millisecond, zap.NewNop())
	start := time.Now()
	assert.Nil(t, slow.Analyze(ctx, "hello"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("I can't sleep")
	assert.Contains(t, p, "I can't sleep")
	assert.Contains(t, p, "depressed")
	assert.Contains(t, p, "at most 3")
}
