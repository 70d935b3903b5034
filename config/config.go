package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Search    SearchConfig
	Fetch     FetchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instances owned by search sessions.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all sessions.
	DefaultProxy string

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block on result pages.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// SearchConfig controls the search session and scroll convergence.
type SearchConfig struct {
	// SettleDelay is the fixed wait after navigating to the results URL,
	// before the first scroll pass.
	SettleDelay time.Duration // default: 2s

	// PollInterval is the sleep between convergence poll cycles.
	PollInterval time.Duration // default: 750ms

	// ScrollLimit bounds the number of poll cycles per convergence pass.
	ScrollLimit int // default: 8

	// PlateauDistance is the max SimHash Hamming distance between two
	// consecutive page fingerprints for the DOM to count as unchanged.
	PlateauDistance int // default: 3
}

// FetchConfig controls the result-page fetch dispatcher.
type FetchConfig struct {
	// EscalationDelays is the staged start delay for each fetcher tier.
	EscalationDelays []time.Duration // default: [0s, 2s]

	// HTTPTimeout is the deadline for the pure HTTP fetcher.
	HTTPTimeout time.Duration // default: 5s

	// MaxTimeout is the maximum allowed per-request timeout from the client.
	MaxTimeout time.Duration // default: 120s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SERPENT_HOST", "0.0.0.0"),
			Port: envIntOr("SERPENT_PORT", 8080),
			Mode: envOr("SERPENT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SERPENT_HEADLESS", true),
			NoSandbox:    envBoolOr("SERPENT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SERPENT_BROWSER_BIN"),
			DefaultProxy: os.Getenv("SERPENT_PROXY"),
			Stealth:      envBoolOr("SERPENT_STEALTH", true),
			BlockedResourceTypes: envSliceOr("SERPENT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Search: SearchConfig{
			SettleDelay:     envDurationOr("SERPENT_SETTLE_DELAY", 2*time.Second),
			PollInterval:    envDurationOr("SERPENT_POLL_INTERVAL", 750*time.Millisecond),
			ScrollLimit:     envIntOr("SERPENT_SCROLL_LIMIT", 8),
			PlateauDistance: envIntOr("SERPENT_PLATEAU_DISTANCE", 3),
		},
		Fetch: FetchConfig{
			EscalationDelays: envDurationSliceOr("SERPENT_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second}),
			HTTPTimeout:      envDurationOr("SERPENT_HTTP_TIMEOUT", 5*time.Second),
			MaxTimeout:       envDurationOr("SERPENT_MAX_TIMEOUT", 120*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SERPENT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SERPENT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SERPENT_RATE_RPS", 2.0),
			Burst:             envIntOr("SERPENT_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SERPENT_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("SERPENT_LOG_LEVEL", "info"),
			Format: envOr("SERPENT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
