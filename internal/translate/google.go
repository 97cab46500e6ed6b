package translate

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

// GoogleClient uses the Cloud Translation v2 API.
type GoogleClient struct {
	svc *translatev2.Service
}

// NewGoogleClient creates a client authenticated with an API key.
// endpoint overrides the service URL and may be empty.
func NewGoogleClient(ctx context.Context, apiKey, endpoint string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google translation API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation service: %w", err)
	}
	return &GoogleClient{svc: svc}, nil
}

func (c *GoogleClient) Name() string { return "google" }

// Detect returns the first detection reported for text.
func (c *GoogleClient) Detect(ctx context.Context, text string) (string, error) {
	resp, err := c.svc.Detections.List([]string{text}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google detect failed: %w", err)
	}
	if len(resp.Detections) == 0 || len(resp.Detections[0]) == 0 || resp.Detections[0][0] == nil {
		return "", fmt.Errorf("empty detection response")
	}
	return resp.Detections[0][0].Language, nil
}

// Translate translates text from source to target.
func (c *GoogleClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := c.svc.Translations.List([]string{text}, target).
		Source(source).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("google translate failed: %w", err)
	}
	if len(resp.Translations) == 0 || resp.Translations[0] == nil {
		return "", fmt.Errorf("empty translation response")
	}
	return resp.Translations[0].TranslatedText, nil
}
