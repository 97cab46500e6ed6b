package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"

	"go.uber.org/zap"
)

// Translator is an external translation service.
type Translator interface {
	Name() string
	Detect(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Bridge wraps a Translator with bounded calls and silent fallback.
// Neither method ever returns an error: detection falls back to the
// canonical language and translation falls back to the input text.
type Bridge struct {
	translator Translator
	timeout    time.Duration
	logger     *zap.Logger
}

// NewBridge creates a bridge. A nil translator puts the bridge in passthrough
// mode: Detect always reports the canonical language and Translate is identity.
func NewBridge(translator Translator, timeout time.Duration, logger *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Bridge{
		translator: translator,
		timeout:    timeout,
		logger:     logger,
	}
}

// Detect returns the language code of text, or "en" on any failure.
func (b *Bridge) Detect(ctx context.Context, text string) string {
	if b.translator == nil || strings.TrimSpace(text) == "" {
		return models.CanonicalLanguage
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	lang, err := b.translator.Detect(callCtx, text)
	if err != nil {
		metrics.TranslationFallbacks.WithLabelValues("detect").Inc()
		b.logger.Warn("Language detection failed, assuming canonical language",
			zap.String("provider", b.translator.Name()),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err))
		return models.CanonicalLanguage
	}

	lang = NormalizeCode(lang)
	if lang == "" {
		metrics.TranslationFallbacks.WithLabelValues("detect").Inc()
		return models.CanonicalLanguage
	}
	return lang
}

// Translate converts text from source to target, returning text unchanged
// when the languages match, the text is empty, or the service fails.
func (b *Bridge) Translate(ctx context.Context, text, source, target string) string {
	source, target = NormalizeCode(source), NormalizeCode(target)
	if text == "" || source == target || b.translator == nil {
		return text
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	translated, err := b.translator.Translate(callCtx, text, source, target)
	if err != nil {
		metrics.TranslationFallbacks.WithLabelValues("translate").Inc()
		b.logger.Warn("Translation failed, keeping original text",
			zap.String("provider", b.translator.Name()),
			zap.String("source", source),
			zap.String("target", target),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err))
		return text
	}
	if strings.TrimSpace(translated) == "" {
		metrics.TranslationFallbacks.WithLabelValues("translate").Inc()
		return text
	}
	return translated
}

// NormalizeCode lowercases a language code and drops any region suffix.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
