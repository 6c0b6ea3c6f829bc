package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequired sets the minimum environment for Load to succeed and isolates it from files in the working directory.
func setRequired(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("KEYWORD", "golang")
	t.Setenv("CITY", "Kraków")
	t.Setenv("DISTANCE", "30")
	t.Setenv("SENDER_EMAIL", "bot@example.com")
	t.Setenv("SENDER_PASSWORD", "app-password")
	t.Setenv("RECIPIENT_EMAIL", "me@example.com")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Keyword != "golang" || cfg.City != "Kraków" || cfg.Distance != 30 {
		t.Errorf("Unexpected job query: %q %q %d", cfg.Keyword, cfg.City, cfg.Distance)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	if len(cfg.Portals) != 2 || cfg.Portals[0] != "pracuj_pl" || cfg.Portals[1] != "praca_pl" {
		t.Errorf("Expected both portals by default, got %v", cfg.Portals)
	}
	if cfg.Renderer != "chromedp" || cfg.Store != "xlsx" || cfg.Notifier != "email" {
		t.Errorf("Unexpected backend defaults: %s %s %s", cfg.Renderer, cfg.Store, cfg.Notifier)
	}
	if cfg.SMTPHost != "smtp.gmail.com" || cfg.SMTPPort != 587 {
		t.Errorf("Expected gmail SMTP defaults, got %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if !cfg.Headless {
		t.Error("Expected headless by default")
	}
	if cfg.NotifyOnFirstRun {
		t.Error("Expected NotifyOnFirstRun to default to false")
	}
	if cfg.LogRetentionDays != 30 {
		t.Errorf("Expected default retention 30, got %d", cfg.LogRetentionDays)
	}
	if cfg.ConsentTimeout != 10*time.Second {
		t.Errorf("Expected default 10s consent timeout, got %s", cfg.ConsentTimeout)
	}
	if cfg.PageSettleMin != 3*time.Second || cfg.PageSettleMax != 5*time.Second {
		t.Errorf("Unexpected settle defaults: %s-%s", cfg.PageSettleMin, cfg.PageSettleMax)
	}
	if cfg.PageDelayMin != time.Second || cfg.PageDelayMax != 3*time.Second {
		t.Errorf("Unexpected delay defaults: %s-%s", cfg.PageDelayMin, cfg.PageDelayMax)
	}
	if cfg.LockTTL != 30*time.Minute {
		t.Errorf("Expected default lock TTL 30m, got %s", cfg.LockTTL)
	}
}

func TestLoad_MissingOptions(t *testing.T) {
	tests := []struct {
		name  string
		unset []string
		extra map[string]string
		want  []string
	}{
		{name: "Job query", unset: []string{"KEYWORD", "CITY", "DISTANCE"}, want: []string{"KEYWORD", "CITY", "DISTANCE"}},
		{name: "Email credentials", unset: []string{"SENDER_PASSWORD"}, want: []string{"SENDER_PASSWORD"}},
		{name: "Discord webhook", extra: map[string]string{"NOTIFIER": "discord"}, want: []string{"DISCORD_WEBHOOK_URL"}},
		{name: "Firestore project", extra: map[string]string{"STORE": "firestore"}, want: []string{"GOOGLE_CLOUD_PROJECT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("GOOGLE_CLOUD_PROJECT", "")
			for _, name := range tt.unset {
				t.Setenv(name, "")
			}
			for name, value := range tt.extra {
				t.Setenv(name, value)
			}

			_, err := Load()
			if !errors.Is(err, ErrMissingOption) {
				t.Fatalf("Expected ErrMissingOption, got %v", err)
			}
			for _, name := range tt.want {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("Error %q should name %s", err, name)
				}
			}
		})
	}
}

func TestLoad_NoCredentialsWithoutEmail(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFIER", "none")
	t.Setenv("SENDER_EMAIL", "")
	t.Setenv("SENDER_PASSWORD", "")
	t.Setenv("RECIPIENT_EMAIL", "")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequired(t)
	for _, name := range []string{"KEYWORD", "CITY", "DISTANCE", "SENDER_EMAIL", "SENDER_PASSWORD", "RECIPIENT_EMAIL"} {
		t.Setenv(name, "")
	}
	t.Setenv("CITY", "Gdańsk")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `job:
  keyword: python
  city: Warszawa
  distance: 0
email:
  sender_email: bot@example.com
  sender_password: secret
  recipient_email: me@example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Keyword != "python" {
		t.Errorf("Expected keyword from file, got %q", cfg.Keyword)
	}
	if cfg.City != "Gdańsk" {
		t.Errorf("Environment should override the file, got %q", cfg.City)
	}
	if cfg.Distance != 0 {
		t.Errorf("Expected an explicit zero distance, got %d", cfg.Distance)
	}
	if cfg.SenderPassword != "secret" {
		t.Errorf("Expected password from file, got %q", cfg.SenderPassword)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	setRequired(t)
	// godotenv never overrides a variable that is already present, even if empty.
	t.Setenv("KEYWORD", "")
	os.Unsetenv("KEYWORD")
	if err := os.WriteFile(".env", []byte("KEYWORD=rust\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Keyword != "rust" {
		t.Errorf("Expected keyword from .env, got %q", cfg.Keyword)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Distance not a number", "DISTANCE", "far"},
		{"Bad duration", "PAGE_DELAY_MAX", "soon"},
		{"Bad bool", "HEADLESS", "maybe"},
		{"Unknown renderer", "RENDERER", "selenium"},
		{"Unknown portal", "PORTALS", "pracuj_pl,nofluffjobs"},
		{"Unknown store", "STORE", "csv"},
		{"Delay range inverted", "PAGE_DELAY_MIN", "10s"},
		{"Negative distance", "DISTANCE", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("job: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for a malformed config file")
	}
}
