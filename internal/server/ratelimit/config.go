package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path; a trailing "/" matches every path below it
	Method string        // HTTP method
	Limit  int           // Requests per window; 0 means unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig reads rate limiting settings from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !envValue("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envValue("RATE_LIMIT_DEFAULT_LIMIT", 600, strconv.Atoi),
		DefaultWindow:   envValue("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envValue("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-endpoint limits of the editor API.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Strict: calls that reach the model provider, the browser or parse uploads.
		{Path: "/enhance", Method: "POST", Limit: 20, Window: time.Minute, Burst: 3},
		{Path: "/export", Method: "GET", Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/import", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/commands/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Edits arrive once per keystroke.
		{Path: "/document/", Method: "PUT", Limit: 1200, Window: time.Minute, Burst: 120},
		{Path: "/document/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/document/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/undo", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/redo", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/keys", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},

		{Path: "/new", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/documents", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/documents/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/documents/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envValue[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
