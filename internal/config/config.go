// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, the SQLite store, cache windows, the upstream API
// client and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "yt-vantage")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// CacheConfig holds freshness and retention windows.
type CacheConfig struct {
	VideoTTL              time.Duration // CACHE_TTL
	NegativeTTL           time.Duration // NEGATIVE_CACHE_TTL
	MappingStaleAfter     time.Duration // MAPPING_STALE_AFTER
	PruneInterval         time.Duration // CACHE_PRUNE_INTERVAL
	PruneTTL              time.Duration // CACHE_PRUNE_TTL
	MessageStateRetention time.Duration // MESSAGE_STATE_RETENTION, 0 keeps rows forever
}

// UpstreamConfig configures the YouTube Data API client.
type UpstreamConfig struct {
	APIKey            string        // YOUTUBE_API_KEY
	Workers           int           // UPSTREAM_WORKERS
	RPS               float64       // UPSTREAM_RPS, 0 disables client-side limiting
	Burst             int           // UPSTREAM_BURST
	RetryMaxAttempts  int           // RETRY_MAX_ATTEMPTS
	RetryInitialDelay time.Duration // RETRY_INITIAL_DELAY
	RetryBackoff      float64       // RETRY_BACKOFF
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s; a cold compare can take a while
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Edge rate limiting, per chat/user/IP
	RateRPS   float64
	RateBurst int

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath          string // SQLite path
	MaxCompareNames int    // channels per compare request

	Cache    CacheConfig
	Upstream UpstreamConfig
	CORS     CORSConfig
	OTEL     OTELConfig
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Variables that are already set win.
// Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		RateRPS:           getfloat("RATE_RPS", 2.0),
		RateBurst:         getint("RATE_BURST", 5),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:          getenv("DB_PATH", "bot.db"),
		MaxCompareNames: getint("MAX_COMPARE_NAMES", 10),

		Cache: CacheConfig{
			VideoTTL:              getdur("CACHE_TTL", 6*time.Hour),
			NegativeTTL:           getdur("NEGATIVE_CACHE_TTL", time.Hour),
			MappingStaleAfter:     getdur("MAPPING_STALE_AFTER", 30*24*time.Hour),
			PruneInterval:         getdur("CACHE_PRUNE_INTERVAL", time.Hour),
			PruneTTL:              getdur("CACHE_PRUNE_TTL", 6*time.Hour),
			MessageStateRetention: getdur("MESSAGE_STATE_RETENTION", 30*24*time.Hour),
		},

		Upstream: UpstreamConfig{
			APIKey:            strings.TrimSpace(getenv("YOUTUBE_API_KEY", "")),
			Workers:           getint("UPSTREAM_WORKERS", 5),
			RPS:               getfloat("UPSTREAM_RPS", 10),
			Burst:             getint("UPSTREAM_BURST", 5),
			RetryMaxAttempts:  getint("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getdur("RETRY_INITIAL_DELAY", time.Second),
			RetryBackoff:      getfloat("RETRY_BACKOFF", 2.0),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "yt-vantage"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

// RequireAPIKey reports an error when no upstream API key is configured.
// Only commands that talk to the platform need one.
func (c Config) RequireAPIKey() error {
	if c.Upstream.APIKey == "" {
		return errors.New("YOUTUBE_API_KEY must be set")
	}
	return nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.MaxCompareNames < 1 {
		return errors.New("MAX_COMPARE_NAMES must be >= 1")
	}
	if c.Cache.VideoTTL <= 0 || c.Cache.NegativeTTL <= 0 || c.Cache.MappingStaleAfter <= 0 {
		return errors.New("CACHE_TTL, NEGATIVE_CACHE_TTL and MAPPING_STALE_AFTER must be > 0")
	}
	if c.Cache.PruneInterval <= 0 || c.Cache.PruneTTL <= 0 {
		return errors.New("CACHE_PRUNE_INTERVAL and CACHE_PRUNE_TTL must be > 0")
	}
	if c.Cache.PruneTTL < max(c.Cache.VideoTTL, c.Cache.NegativeTTL) {
		return errors.New("CACHE_PRUNE_TTL must be >= CACHE_TTL and NEGATIVE_CACHE_TTL")
	}
	if c.Cache.MessageStateRetention < 0 {
		return errors.New("MESSAGE_STATE_RETENTION must be >= 0")
	}
	if c.Upstream.Workers < 1 {
		return errors.New("UPSTREAM_WORKERS must be >= 1")
	}
	if c.Upstream.RPS < 0 {
		return errors.New("UPSTREAM_RPS must be >= 0")
	}
	if c.Upstream.Burst < 1 {
		return errors.New("UPSTREAM_BURST must be >= 1")
	}
	if c.Upstream.RetryMaxAttempts < 1 {
		return errors.New("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if c.Upstream.RetryInitialDelay < 0 {
		return errors.New("RETRY_INITIAL_DELAY must be >= 0")
	}
	if c.Upstream.RetryBackoff < 1 {
		return errors.New("RETRY_BACKOFF must be >= 1")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
