package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"actubot/core/logger"
)

// News fetches a sentence-delimited digest for a topic keyword from the
// news summarization service.
type News struct {
	baseURL string
	client  *http.Client
}

// NewNews wires the news provider to its endpoint.
func NewNews(baseURL string, client *http.Client) *News {
	return &News{baseURL: baseURL, client: client}
}

// Get returns the digest for a topic. The payload is a single string; the
// caller splits it into sentences for delivery.
func (n *News) Get(ctx context.Context, topic string) (string, error) {
	start := time.Now()
	u := fmt.Sprintf("%s?topic=%s", n.baseURL, url.QueryEscape(topic))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("news: build request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: news: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: news: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: news: decode: %v", ErrUnavailable, err)
	}

	logger.Debug(ctx, "provider.news", "news.get",
		slog.String("status", "ok"),
		slog.String("topic", logger.Sanitize(topic)),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return payload.Digest, nil
}
