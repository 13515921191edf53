package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"actubot/core/logger"
)

// Translator forwards raw text to the translation service. No source or
// target language handling happens here, opaque passthrough.
type Translator struct {
	baseURL string
	client  *http.Client
}

// NewTranslator wires the translation provider to its endpoint.
func NewTranslator(baseURL string, client *http.Client) *Translator {
	return &Translator{baseURL: baseURL, client: client}
}

// Translate returns the translated text.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	start := time.Now()
	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return "", fmt.Errorf("translate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: translate: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: translate: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Translation string `json:"translation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: translate: decode: %v", ErrUnavailable, err)
	}

	logger.Debug(ctx, "provider.translate", "translate",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return payload.Translation, nil
}
