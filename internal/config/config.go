package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// Config keeps runtime settings for the registry.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Validation ValidationConfig `mapstructure:"validation"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP listener options.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// HTTPConfig contains request handling settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	CORSOrigins    string        `mapstructure:"cors_origins"`
	CSRFKey        string        `mapstructure:"csrf_key"`
	SessionKey     string        `mapstructure:"session_key"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
}

// DatabaseConfig describes the storage backend.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	SlowThreshold  time.Duration `mapstructure:"slow_threshold"`
}

// ValidationConfig selects the rule set applied to user records.
type ValidationConfig struct {
	Revision string `mapstructure:"revision"`
}

// AuditConfig controls the periodic re-validation of stored users.
type AuditConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	TelegramToken  string        `mapstructure:"telegram_token"`
	TelegramChatID int64         `mapstructure:"telegram_chat_id"`
}

// Load reads configuration from .env and environment variables with sane defaults.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Validation.Revision = strings.ToLower(strings.TrimSpace(cfg.Validation.Revision))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.read_header_timeout", 10*time.Second)

	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.max_body_bytes", 1<<20)
	v.SetDefault("http.cors_origins", "")
	v.SetDefault("http.csrf_key", "")
	v.SetDefault("http.session_key", "")
	v.SetDefault("http.secure_cookies", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "user_registry.db")
	v.SetDefault("database.migrate_timeout", 10*time.Second)
	v.SetDefault("database.slow_threshold", time.Second)

	v.SetDefault("validation.revision", "filtered")

	v.SetDefault("audit.interval", 24*time.Hour)
	v.SetDefault("audit.telegram_token", "")
	v.SetDefault("audit.telegram_chat_id", 0)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"server.read_header_timeout",
		"http.request_timeout",
		"http.max_body_bytes",
		"http.cors_origins",
		"http.csrf_key",
		"http.session_key",
		"http.secure_cookies",
		"database.driver",
		"database.dsn",
		"database.migrate_timeout",
		"database.slow_threshold",
		"validation.revision",
		"audit.interval",
		"audit.telegram_token",
		"audit.telegram_chat_id",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// Validate ensures required fields are present and enumerations are known.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Validation.Revision {
	case "basic", "extended", "filtered":
	default:
		return fmt.Errorf("validation.revision %q is not supported", c.Validation.Revision)
	}
	if c.Audit.Interval < 0 {
		return errors.New("audit.interval must not be negative")
	}
	if (c.Audit.TelegramToken == "") != (c.Audit.TelegramChatID == 0) {
		return errors.New("audit.telegram_token and audit.telegram_chat_id must be set together")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Origins splits the comma-separated CORS origin list.
func (h HTTPConfig) Origins() []string {
	var origins []string
	for _, p := range strings.Split(h.CORSOrigins, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
