package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LibreClient talks to a LibreTranslate-compatible HTTP API.
type LibreClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type libreDetectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type libreDetection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibreClient creates a client. Deadlines come from the caller's context.
func NewLibreClient(baseURL, apiKey string, httpClient *http.Client) *LibreClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &LibreClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *LibreClient) Name() string { return "libre" }

// Detect returns the most confident language for text.
func (c *LibreClient) Detect(ctx context.Context, text string) (string, error) {
	var detections []libreDetection
	if err := c.post(ctx, "/detect", libreDetectRequest{Q: text, APIKey: c.apiKey}, &detections); err != nil {
		return "", err
	}
	if len(detections) == 0 {
		return "", fmt.Errorf("empty detection response")
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	if best.Language == "" {
		return "", fmt.Errorf("detection response has no language")
	}
	return best.Language, nil
}

// Translate translates text between two language codes.
func (c *LibreClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	req := libreTranslateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	}

	var resp libreTranslateResponse
	if err := c.post(ctx, "/translate", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("libretranslate error: %s", resp.Error)
	}
	return resp.TranslatedText, nil
}

func (c *LibreClient) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("libretranslate returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
