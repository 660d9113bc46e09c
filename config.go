package folio

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/storage"
	"github.com/devemco/folio/views"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Dev Emco")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Fallback author for JSON-LD

	Addr    string         // Listen address (default ":3000")
	Storage storage.Config // Profile storage backend (default SQLite at data/folio.db)
	// Namespace prefixes every stored key (default "devemco:blog:").
	Namespace string

	SessionSecret string // Required: profile cookie signing secret
	CookieSecure  bool   // Set true for HTTPS

	SessionTTL       time.Duration // How long an idle profile stays in memory (default 30min)
	FeaturedInterval time.Duration // Featured rotation period (default 6.5s)
	CommentLimit     int           // Comments per IP per minute (default 5)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Dev Emco"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	if c.Storage.Driver == storage.DriverSQLite && c.Storage.Path == "" {
		c.Storage.Path = "data/folio.db"
	}
	if c.Namespace == "" {
		c.Namespace = engagement.DefaultNamespace
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.FeaturedInterval == 0 {
		c.FeaturedInterval = 6500 * time.Millisecond
	}
	if c.CommentLimit == 0 {
		c.CommentLimit = 5
	}
}

// View returns the template-facing subset of the configuration.
func (c SiteConfig) View() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}

// ConfigFromEnv builds a SiteConfig from environment variables. A .env file
// in the working directory is loaded first when present; variables already
// set in the environment win.
func ConfigFromEnv() SiteConfig {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	cfg := SiteConfig{
		Name:        os.Getenv("SITE_NAME"),
		URL:         os.Getenv("SITE_URL"),
		Description: os.Getenv("SITE_DESCRIPTION"),
		Author:      os.Getenv("SITE_AUTHOR"),
		Addr:        os.Getenv("ADDR"),
		Storage: storage.Config{
			Driver:      os.Getenv("STORAGE_DRIVER"),
			Path:        os.Getenv("DATABASE_PATH"),
			RedisAddr:   EnvOr("REDIS_ADDR", "localhost:6379"),
			RedisPrefix: os.Getenv("REDIS_PREFIX"),
		},
		Namespace:        os.Getenv("STORAGE_NAMESPACE"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieSecure:     envBool("COOKIE_SECURE"),
		SessionTTL:       envDuration("SESSION_TTL"),
		FeaturedInterval: envDuration("FEATURED_INTERVAL"),
	}
	if n, err := strconv.Atoi(os.Getenv("COMMENT_LIMIT")); err == nil && n > 0 {
		cfg.CommentLimit = n
	}
	cfg.setDefaults()
	return cfg
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return v
}

func envDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
		return 0
	}
	return d
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets and
// uploaded images (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithBackend uses an already opened storage backend instead of opening
// one from the configuration. The App closes it on Close.
func WithBackend(b storage.Backend) Option {
	return func(a *App) {
		a.Backend = b
	}
}

// WithClock overrides the time source of stores and the rotator.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithLogger sets the structured logger for application events.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
