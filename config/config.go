package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SCRATCH_"

// cookieName restricts the session cookie to token characters
var cookieName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

const (
	SessionBackendSQL   = "sql"
	SessionBackendRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `yaml:"app" json:"app"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

type AppConfig struct {
	Brand       string `yaml:"brand" json:"brand"`
	Development bool   `yaml:"development" json:"development"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr" json:"addr"`
	SecureCookies bool   `yaml:"secure_cookies" json:"secure_cookies"`
}

// AuthConfig configures session tokens and password hashing
type AuthConfig struct {
	SigningKey string `yaml:"signing_key" json:"signing_key"`
	Issuer     string `yaml:"issuer" json:"issuer"`
	// ContextKey is the name of the session cookie
	ContextKey      string `yaml:"context_key" json:"context_key"`
	TokenExpiration int    `yaml:"token_expiration" json:"token_expiration"`
	PasswordCost    int    `yaml:"password_cost" json:"password_cost"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn" json:"dsn"`
	Debug bool   `yaml:"debug" json:"debug"`
}

// SessionsConfig selects where session records are kept
type SessionsConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	RedisDB   int    `yaml:"redis_db" json:"redis_db"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Defaults returns a configuration suitable for local development
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Brand: "Scratch",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Auth: AuthConfig{
			Issuer:          "scratch",
			ContextKey:      "scratch_session",
			TokenExpiration: 24,
			PasswordCost:    12,
		},
		Database: DatabaseConfig{
			DSN: "file:scratch.sqlite?cache=shared",
		},
		Sessions: SessionsConfig{
			Backend:   SessionBackendSQL,
			RedisAddr: "localhost:6379",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file at
// path, .env files and SCRATCH_* environment variables, in that order.
// Missing .env files are ignored. With no envFiles ".env" is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to load env file").
				WithMetadata(map[string]any{"path": file})
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.App.Brand, "APP_BRAND")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Auth.SigningKey, "AUTH_SIGNING_KEY")
	setString(&c.Auth.Issuer, "AUTH_ISSUER")
	setString(&c.Auth.ContextKey, "AUTH_CONTEXT_KEY")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Sessions.Backend, "SESSIONS_BACKEND")
	setString(&c.Sessions.RedisAddr, "REDIS_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if err := setBool(&c.App.Development, "DEVELOPMENT"); err != nil {
		return err
	}
	if err := setBool(&c.Server.SecureCookies, "SERVER_SECURE_COOKIES"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.TokenExpiration, "AUTH_TOKEN_EXPIRATION"); err != nil {
		return err
	}
	if err := setInt(&c.Auth.PasswordCost, "AUTH_PASSWORD_COST"); err != nil {
		return err
	}
	return setInt(&c.Sessions.RedisDB, "REDIS_DB")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return envError(err, key, v)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return envError(err, key, v)
	}
	*dst = n
	return nil
}

func envError(err error, key, value string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid environment value").
		WithMetadata(map[string]any{"key": EnvPrefix + key, "value": value})
}

// Validate checks every section
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Database),
		validation.Field(&c.Sessions),
		validation.Field(&c.Logging),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
	)
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&a.ContextKey, validation.Required, validation.Match(cookieName)),
		validation.Field(&a.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&a.PasswordCost, validation.Required, validation.Min(4), validation.Max(31)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DSN, validation.Required),
	)
}

func (s SessionsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required, validation.In(SessionBackendSQL, SessionBackendRedis)),
		validation.Field(&s.RedisAddr,
			validation.When(s.Backend == SessionBackendRedis, validation.Required, is.DialString),
		),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("console", "json")),
	)
}

func (a AuthConfig) GetSigningKey() string {
	return a.SigningKey
}

func (a AuthConfig) GetIssuer() string {
	return a.Issuer
}

func (a AuthConfig) GetContextKey() string {
	return a.ContextKey
}

// GetTokenExpiration returns the session lifetime in hours
func (a AuthConfig) GetTokenExpiration() int {
	return a.TokenExpiration
}

func (a AuthConfig) GetPasswordCost() int {
	return a.PasswordCost
}
