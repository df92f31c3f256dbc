package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Back office base URLs per environment.
const (
	TestBackendURL = "https://test.webbroker.ranks.pro/main"
	ProdBackendURL = "https://autopilotback.ranks.pro/main"
)

// Config holds application configuration loaded from environment and file.
// Priority: CLI flags → Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// BackendURL is the base URL of the back office REST API.
	BackendURL string

	// RequestTimeout bounds every call to the back office.
	RequestTimeout time.Duration

	LoginPath      string
	LogoutPath     string
	SecondaryField string

	// LoginRateLimit caps sign-in attempts per minute per client IP.
	// Zero disables the limit.
	LoginRateLimit int

	SessionTTL      time.Duration
	PersistSessions bool
	CookieName      string

	CacheTTL   time.Duration
	CachePaths []string

	// CORSOrigins lists the origins allowed to call the API with the
	// session cookie. Empty means same-origin only.
	CORSOrigins []string
}

// Load reads configuration from the config file and environment variables.
func Load() (*Config, error) {
	fileConfig, err := LoadFile()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigPath(), err)
	}
	return FromFile(fileConfig)
}

// FromFile layers environment variables over fileConfig and applies defaults.
func FromFile(fc *FileConfig) (*Config, error) {
	if fc == nil {
		fc = &FileConfig{}
	}
	auth := fc.Auth
	if auth == nil {
		auth = &AuthSection{}
	}
	sess := fc.Session
	if sess == nil {
		sess = &SessionConfig{}
	}
	cache := fc.Cache
	if cache == nil {
		cache = &CacheSection{}
	}

	cfg := &Config{
		ServerPort:      getEnvOrFile("ROBOADMIN_SERVER_PORT", fc.ServerPort, ":8080"),
		BackendURL:      getEnvOrFile("ROBOADMIN_BACKEND_URL", fc.BackendURL, defaultBackendURL()),
		LoginPath:       getEnvOrFile("ROBOADMIN_AUTH_LOGIN_PATH", auth.LoginPath, "/robo/admin_login/"),
		LogoutPath:      getEnvOrFile("ROBOADMIN_AUTH_LOGOUT_PATH", auth.LogoutPath, "/auth/logout"),
		SecondaryField:  getEnvOrFile("ROBOADMIN_AUTH_SECONDARY_FIELD", auth.SecondaryField, ""),
		LoginRateLimit:  getEnvIntOrFile("ROBOADMIN_AUTH_LOGIN_RATE_LIMIT", auth.LoginRateLimit, 10),
		PersistSessions: getEnvBoolOrFile("ROBOADMIN_SESSION_PERSIST", sess.Persist, true),
		CookieName:      getEnvOrFile("ROBOADMIN_SESSION_COOKIE", sess.CookieName, "roboadmin_session"),
		CachePaths:      cache.Paths,
		CORSOrigins:     getEnvListOrFile("ROBOADMIN_CORS_ORIGINS", fc.CORSOrigins),
	}
	if cfg.CachePaths == nil {
		cfg.CachePaths = []string{
			"/roboadvising/get_general_reference_data/",
			"/roboadvising/get_all_strategy/",
		}
	}

	var err error
	if cfg.RequestTimeout, err = getEnvDurationOrFile("ROBOADMIN_REQUEST_TIMEOUT", fc.RequestTimeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDurationOrFile("ROBOADMIN_SESSION_TTL", sess.TTL, 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvDurationOrFile("ROBOADMIN_CACHE_TTL", cache.TTL, time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend_url %q must start with http:// or https://", c.BackendURL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("login rate limit must not be negative, got %d", c.LoginRateLimit)
	}
	if c.CookieName == "" {
		return fmt.Errorf("session cookie name must not be empty")
	}
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("cors origin %q is not allowed with cookie sessions", origin)
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors origin %q must start with http:// or https://", origin)
		}
	}
	return nil
}

// defaultBackendURL picks the back office for ROBOADMIN_ENVIRONMENT
// (PROD or TEST, default TEST).
func defaultBackendURL() string {
	if strings.EqualFold(os.Getenv("ROBOADMIN_ENVIRONMENT"), "PROD") {
		return ProdBackendURL
	}
	return TestBackendURL
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order).
// Unparseable env values fall through to the file value.
func getEnvIntOrFile(key string, fileValue *int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvListOrFile splits a comma separated env value, falling back to the
// file list.
func getEnvListOrFile(key string, fileValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fileValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimSuffix(part, "/"))
		}
	}
	return out
}

// getEnvDurationOrFile parses a duration from env, file, or falls back to the default.
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrFile(key, fileValue, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}
