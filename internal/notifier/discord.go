package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

const (
	colorNewOffers = 3447003 // #3498DB

	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
)

// DiscordClient posts notifications to a Discord webhook. Attachments are not uploaded.
type DiscordClient struct {
	webhookURL  string
	client      *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
}

func NewDiscord(webhookURL string) *DiscordClient {
	return &DiscordClient{
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		maxRetries:  3,
		backoffBase: time.Second,
	}
}

// Internal structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Color       int                `json:"color,omitempty"`
	Footer      discordEmbedFooter `json:"footer,omitempty"`
}

func (c *DiscordClient) Send(ctx context.Context, subject, body, attachmentPath string) error {
	if c.webhookURL == "" {
		return nil
	}
	embed := formatEmbed(subject, body, attachmentPath, time.Now())
	payloadBytes, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.post(ctx, payloadBytes)
		if err != nil {
			return err
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		backoff := c.retryBackoff(resp, attempt)
		if backoff == 0 || attempt >= c.maxRetries {
			return fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *DiscordClient) post(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// retryBackoff returns how long to wait before retrying resp, or zero if the request must not be retried.
func (c *DiscordClient) retryBackoff(resp *http.Response, attempt int) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		return c.backoffBase << attempt
	case resp.StatusCode >= 500:
		return c.backoffBase << attempt
	}
	return 0
}

func formatEmbed(subject, body, attachmentPath string, now time.Time) discordEmbed {
	embed := discordEmbed{
		Title:       truncate(subject, maxEmbedTitle),
		Description: truncate(body, maxEmbedDescription),
		Timestamp:   now.Format(time.RFC3339),
		Color:       colorNewOffers,
	}
	if attachmentPath != "" {
		embed.Footer.Text = "Full list saved to " + attachmentPath
	}
	return embed
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
