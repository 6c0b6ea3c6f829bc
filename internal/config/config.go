package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pauljones0/pl-jobs-scraper/internal/validator"
)

// ErrMissingOption is returned when a required option is set neither in the environment nor in the config file.
var ErrMissingOption = errors.New("missing required option")

type Config struct {
	Keyword  string `validate:"required"`
	City     string `validate:"required"`
	Distance int    `validate:"gte=0"`

	Portals          []string `validate:"min=1,dive,oneof=pracuj_pl praca_pl"`
	DataDir          string   `validate:"required"`
	LogDir           string   `validate:"required"`
	LogRetentionDays int      `validate:"gte=0"`
	LogFormat        string   `validate:"omitempty,oneof=text json"`

	Renderer          string        `validate:"oneof=chromedp playwright"`
	Headless          bool          `validate:"-"`
	NavigationTimeout time.Duration `validate:"gt=0"`
	ConsentTimeout    time.Duration `validate:"gt=0"`
	PageSettleMin     time.Duration `validate:"gte=0"`
	PageSettleMax     time.Duration `validate:"gtefield=PageSettleMin"`
	PageDelayMin      time.Duration `validate:"gte=0"`
	PageDelayMax      time.Duration `validate:"gtefield=PageDelayMin"`

	Store     string `validate:"oneof=xlsx firestore"`
	ProjectID string

	Notifier          string `validate:"oneof=email discord none"`
	SMTPHost          string
	SMTPPort          int `validate:"gt=0,lte=65535"`
	SenderEmail       string
	SenderPassword    string
	RecipientEmail    string
	DiscordWebhookURL string
	NotifyOnFirstRun  bool `validate:"-"`

	RedisAddr string
	LockTTL   time.Duration `validate:"gt=0"`

	Port     string `validate:"required"`
	Schedule string

	SelectorsConfigPath string
	MonthMappingPath    string
}

// fileConfig is the layout of the optional YAML config file.
type fileConfig struct {
	Job struct {
		Keyword  string `yaml:"keyword"`
		City     string `yaml:"city"`
		Distance *int   `yaml:"distance"`
	} `yaml:"job"`
	Email struct {
		SenderEmail    string `yaml:"sender_email"`
		SenderPassword string `yaml:"sender_password"`
		RecipientEmail string `yaml:"recipient_email"`
	} `yaml:"email"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	configPath := envOr("CONFIG_PATH", "config.yaml")
	file, err := readFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Keyword:        envOr("KEYWORD", file.Job.Keyword),
		City:           envOr("CITY", file.Job.City),
		SenderEmail:    envOr("SENDER_EMAIL", file.Email.SenderEmail),
		SenderPassword: envOr("SENDER_PASSWORD", file.Email.SenderPassword),
		RecipientEmail: envOr("RECIPIENT_EMAIL", file.Email.RecipientEmail),

		DataDir:   envOr("DATA_DIR", "data"),
		LogDir:    envOr("LOG_DIR", "logs"),
		LogFormat: os.Getenv("LOG_FORMAT"),
		Renderer:  envOr("RENDERER", "chromedp"),
		Store:     envOr("STORE", "xlsx"),
		ProjectID: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Notifier:  envOr("NOTIFIER", "email"),
		SMTPHost:  envOr("SMTP_HOST", "smtp.gmail.com"),

		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		Schedule:          os.Getenv("SCHEDULE"),

		SelectorsConfigPath: os.Getenv("SELECTORS_CONFIG_PATH"),
		MonthMappingPath:    os.Getenv("MONTH_MAPPING_PATH"),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}
	cfg.Port = port

	for _, p := range strings.Split(envOr("PORTALS", "pracuj_pl,praca_pl"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Portals = append(cfg.Portals, p)
		}
	}

	distance := 0
	if file.Job.Distance != nil {
		distance = *file.Job.Distance
	}
	if cfg.Distance, err = envInt("DISTANCE", distance); err != nil {
		return nil, err
	}
	if cfg.LogRetentionDays, err = envInt("LOG_RETENTION_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = envInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.Headless, err = envBool("HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.NotifyOnFirstRun, err = envBool("NOTIFY_ON_FIRST_RUN", false); err != nil {
		return nil, err
	}

	durations := []struct {
		name string
		def  time.Duration
		dst  *time.Duration
	}{
		{"NAVIGATION_TIMEOUT", 30 * time.Second, &cfg.NavigationTimeout},
		{"CONSENT_TIMEOUT", 10 * time.Second, &cfg.ConsentTimeout},
		{"PAGE_SETTLE_MIN", 3 * time.Second, &cfg.PageSettleMin},
		{"PAGE_SETTLE_MAX", 5 * time.Second, &cfg.PageSettleMax},
		{"PAGE_DELAY_MIN", time.Second, &cfg.PageDelayMin},
		{"PAGE_DELAY_MAX", 3 * time.Second, &cfg.PageDelayMax},
		{"LOCK_TTL", 30 * time.Minute, &cfg.LockTTL},
	}
	for _, d := range durations {
		if *d.dst, err = envDuration(d.name, d.def); err != nil {
			return nil, err
		}
	}

	distanceSet := file.Job.Distance != nil || os.Getenv("DISTANCE") != ""
	if err := cfg.checkRequired(distanceSet); err != nil {
		return nil, err
	}
	if err := validator.New().ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) checkRequired(distanceSet bool) error {
	required := map[string]string{
		"KEYWORD": c.Keyword,
		"CITY":    c.City,
	}
	switch c.Notifier {
	case "email":
		required["SENDER_EMAIL"] = c.SenderEmail
		required["SENDER_PASSWORD"] = c.SenderPassword
		required["RECIPIENT_EMAIL"] = c.RecipientEmail
	case "discord":
		required["DISCORD_WEBHOOK_URL"] = c.DiscordWebhookURL
	}
	if c.Store == "firestore" {
		required["GOOGLE_CLOUD_PROJECT"] = c.ProjectID
	}

	var missing []string
	if !distanceSet {
		missing = append(missing, "DISTANCE")
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissingOption, strings.Join(missing, ", "))
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return fc, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}

func envBool(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}
