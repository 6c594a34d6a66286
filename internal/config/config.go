// Package config loads process configuration from defaults, an optional
// .env file and the environment, in that order of precedence (lowest first).
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvFileVar overrides the path of the .env file.
	EnvFileVar = "ENV_FILE"

	defaultStoreURL = "sqlite://oriani.db"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// LoginRateLimit is the number of login attempts allowed per minute and
	// client IP. Zero disables throttling.
	LoginRateLimit int `koanf:"login_rate_limit"`
}

type StoreConfig struct {
	// URL selects the backend by scheme: mongodb://, mongodb+srv:// or sqlite://.
	URL  string `koanf:"url"`
	Name string `koanf:"name"`
}

type SecurityConfig struct {
	JWTSecret          string `koanf:"jwt_secret"`
	JWTAlgorithm       string `koanf:"jwt_algorithm"`
	TokenExpireMinutes int    `koanf:"token_expire_minutes"`
	AdminEmail         string `koanf:"admin_email"`
	AdminPassword      string `koanf:"admin_password"`
	CookieSecure       bool   `koanf:"cookie_secure"`
	// GeneratedSecret is set when no JWT secret was configured and a random
	// one was generated for this process.
	GeneratedSecret bool `koanf:"-"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TokenLifetime returns the configured token lifetime.
func (s SecurityConfig) TokenLifetime() time.Duration {
	return time.Duration(s.TokenExpireMinutes) * time.Minute
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8001,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			LoginRateLimit:  10,
		},
		Store: StoreConfig{
			Name: "oriani_db",
		},
		Security: SecurityConfig{
			JWTAlgorithm:       "HS256",
			TokenExpireMinutes: 24 * 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps environment variable names (lower-cased) to config paths.
var envMappings = map[string]string{
	"port":                        "server.port",
	"shutdown_timeout":            "server.shutdown_timeout",
	"cors_origins":                "server.cors_origins",
	"login_rate_limit":            "server.login_rate_limit",
	"store_url":                   "store.url",
	"db_name":                     "store.name",
	"jwt_secret_key":              "security.jwt_secret",
	"jwt_algorithm":               "security.jwt_algorithm",
	"access_token_expire_minutes": "security.token_expire_minutes",
	"admin_email":                 "security.admin_email",
	"admin_password":              "security.admin_password",
	"cookie_secure":               "security.cookie_secure",
	"log_level":                   "logging.level",
	"log_format":                  "logging.format",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{"server.cors_origins"}

// Load builds the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	envFile := os.Getenv(EnvFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// MONGO_URL is the historical name of the store connection string.
	if cfg.Store.URL == "" {
		cfg.Store.URL = os.Getenv("MONGO_URL")
	}
	if cfg.Store.URL == "" {
		cfg.Store.URL = defaultStoreURL
	}

	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		cfg.Security.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// processSliceFields splits comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.LoginRateLimit < 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must not be negative")
	}
	if c.Store.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	switch c.Security.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q (want HS256, HS384 or HS512)", c.Security.JWTAlgorithm)
	}
	if c.Security.TokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// ProxyConfig configures the development reverse proxy.
type ProxyConfig struct {
	Port       int           `koanf:"port"`
	BackendURL string        `koanf:"backend_url"`
	Logging    LoggingConfig `koanf:"logging"`
}

var proxyEnvMappings = map[string]string{
	"port":        "port",
	"backend_url": "backend_url",
	"log_level":   "logging.level",
	"log_format":  "logging.format",
}

// LoadProxy builds the dev proxy configuration from defaults and the
// environment.
func LoadProxy() (*ProxyConfig, error) {
	defaults := &ProxyConfig{
		Port:       3000,
		BackendURL: "http://localhost:8001",
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	err := k.Load(env.Provider("", ".", func(key string) string {
		return proxyEnvMappings[strings.ToLower(key)]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &ProxyConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	u, err := url.Parse(cfg.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL %q", cfg.BackendURL)
	}
	return cfg, nil
}
