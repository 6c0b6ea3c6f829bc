package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestDiscord(url string) *DiscordClient {
	client := NewDiscord(url)
	// Override rate limiter for tests to run fast
	client.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	client.backoffBase = time.Millisecond
	return client
}

func TestFormatEmbed(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 37, 0, 0, time.UTC)
	embed := formatEmbed("New offers for golang! [15-03-2024] pracuj_pl", "Found 2 new offers", "data/new_offers_pracuj_pl.xlsx", now)

	if embed.Title != "New offers for golang! [15-03-2024] pracuj_pl" {
		t.Errorf("Title incorrect. Got: %s", embed.Title)
	}
	if embed.Description != "Found 2 new offers" {
		t.Errorf("Description incorrect. Got: %s", embed.Description)
	}
	if embed.Timestamp != "2024-03-15T14:37:00Z" {
		t.Errorf("Timestamp incorrect. Got: %s", embed.Timestamp)
	}
	if !strings.Contains(embed.Footer.Text, "new_offers_pracuj_pl.xlsx") {
		t.Errorf("Footer should mention the attachment, got %q", embed.Footer.Text)
	}

	long := formatEmbed(strings.Repeat("ż", 300), strings.Repeat("a", 5000), "", now)
	if n := len([]rune(long.Title)); n != maxEmbedTitle {
		t.Errorf("Title should be truncated to %d runes, got %d", maxEmbedTitle, n)
	}
	if n := len([]rune(long.Description)); n != maxEmbedDescription {
		t.Errorf("Description should be truncated to %d runes, got %d", maxEmbedDescription, n)
	}
}

func TestDiscord_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		// Verify payload
		var payload discordWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if len(payload.Embeds) != 1 {
			t.Errorf("Expected 1 embed, got %d", len(payload.Embeds))
		}
		if payload.Embeds[0].Title != "subject" {
			t.Errorf("Expected title 'subject', got %q", payload.Embeds[0].Title)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestDiscord(server.URL).Send(context.Background(), "subject", "body", ""); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}
}

func TestDiscord_Send_RetriesOn5xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := atomic.AddInt32(&attempts, 1)
		if attempt <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "server error"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestDiscord(server.URL).Send(context.Background(), "subject", "body", ""); err != nil {
		t.Fatalf("Send() should have succeeded after retries, got error: %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("Expected 3 attempts (2 failures + 1 success), got %d", atomic.LoadInt32(&attempts))
	}
}

func TestDiscord_Send_GivesUp(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if err := newTestDiscord(server.URL).Send(context.Background(), "subject", "body", ""); err == nil {
		t.Fatal("Send() should fail once retries are exhausted")
	}
	if atomic.LoadInt32(&attempts) != 4 {
		t.Errorf("Expected 4 attempts (maxRetries+1), got %d", atomic.LoadInt32(&attempts))
	}
}

func TestDiscord_Send_NoRetryOn4xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "bad request"}`))
	}))
	defer server.Close()

	if err := newTestDiscord(server.URL).Send(context.Background(), "subject", "body", ""); err == nil {
		t.Fatal("Send() should have returned error for 400 response")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("Expected 1 attempt (no retry for 400), got %d", atomic.LoadInt32(&attempts))
	}
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		retryAfter string
		attempt    int
		wantZero   bool
	}{
		{"429 with Retry-After", 429, "2", 0, false},
		{"429 without Retry-After", 429, "", 0, false},
		{"500 error", 500, "", 0, false},
		{"503 error", 503, "", 1, false},
		{"400 error", 400, "", 0, true},
		{"404 error", 404, "", 0, true},
	}

	c := NewDiscord("https://discord.test/webhook")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Header:     http.Header{},
			}
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}

			backoff := c.retryBackoff(resp, tt.attempt)
			if tt.wantZero && backoff != 0 {
				t.Errorf("Expected zero backoff for status %d, got %v", tt.statusCode, backoff)
			}
			if !tt.wantZero && backoff == 0 {
				t.Errorf("Expected non-zero backoff for status %d, got 0", tt.statusCode)
			}
		})
	}

	resp := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"2"}}}
	if got := c.retryBackoff(resp, 0); got != 2*time.Second {
		t.Errorf("Retry-After should be honoured, got %v", got)
	}
}

func TestDiscord_Send_EmptyWebhookURL(t *testing.T) {
	if err := NewDiscord("").Send(context.Background(), "subject", "body", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}
