package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort     string         `toml:"server_port"`
	BackendURL     string         `toml:"backend_url"`
	RequestTimeout string         `toml:"request_timeout"`
	CORSOrigins    []string       `toml:"cors_origins"`
	Auth           *AuthSection   `toml:"auth"`
	Session        *SessionConfig `toml:"session"`
	Cache          *CacheSection  `toml:"cache"`
}

// AuthSection configures the Auth API exchange.
type AuthSection struct {
	LoginPath      string `toml:"login_path"`
	LogoutPath     string `toml:"logout_path"`
	SecondaryField string `toml:"secondary_field"`
	LoginRateLimit *int   `toml:"login_rate_limit"`
}

// SessionConfig configures browser sessions.
type SessionConfig struct {
	TTL        string `toml:"ttl"`
	Persist    *bool  `toml:"persist"`
	CookieName string `toml:"cookie_name"`
}

// CacheSection configures the back office response cache.
type CacheSection struct {
	TTL   string   `toml:"ttl"`
	Paths []string `toml:"paths"`
}

// ConfigPath returns the path to the config file (~/.roboadmin/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	return LoadFileFrom(ConfigPath())
}

// LoadFileFrom loads configuration from the TOML file at path.
func LoadFileFrom(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# roboadmin configuration
# server_port = ":8080"
# backend_url = "https://test.webbroker.ranks.pro/main"
# request_timeout = "30s"
# cors_origins = []         # extra origins allowed to call /api with the session cookie

# [auth]
# login_path = "/robo/admin_login/"
# logout_path = "/auth/logout"
# secondary_field = ""      # extra login field required by some environments
# login_rate_limit = 10     # sign-in attempts per minute per client, 0 = unlimited

# [session]
# ttl = "12h"
# persist = true            # keep sessions across restarts
# cookie_name = "roboadmin_session"

# [cache]
# ttl = "1m"                # set to "0s" to disable
# paths = ["/roboadvising/get_general_reference_data/", "/roboadvising/get_all_strategy/"]
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
