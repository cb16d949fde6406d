package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// SMTPConfig holds outgoing mail settings. An empty Host disables email.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// Config is the application configuration.
type Config struct {
	Port     string `yaml:"port"`
	AppEnv   string `yaml:"appEnv"`
	LogLevel string `yaml:"logLevel"`

	Store          string `yaml:"store"`
	DatabaseURL    string `yaml:"databaseURL"`
	DBMaxOpenConns int    `yaml:"dbMaxOpenConns"`
	DBMaxIdleConns int    `yaml:"dbMaxIdleConns"`

	JWTSecret string        `yaml:"jwtSecret"`
	JWTTTL    time.Duration `yaml:"jwtTTL"`

	RedisAddr               string `yaml:"redisAddr"`
	RedisPassword           string `yaml:"redisPassword"`
	LoginRateLimitPerMinute int    `yaml:"loginRateLimitPerMinute"`

	CORSOrigins      string     `yaml:"corsOrigins"`
	SMTP             SMTPConfig `yaml:"smtp"`
	ReminderSchedule string     `yaml:"reminderSchedule"`
}

func defaults() Config {
	return Config{
		Port:                    "3000",
		AppEnv:                  "development",
		LogLevel:                "info",
		Store:                   StorePostgres,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          10,
		JWTTTL:                  time.Hour,
		LoginRateLimitPerMinute: 10,
		CORSOrigins:             "*",
		SMTP:                    SMTPConfig{Port: 587},
		ReminderSchedule:        "0 8 * * *",
	}
}

// Load reads .env (if present), then the optional YAML file at path, then
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Store, "STORE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.CORSOrigins, "CORS_ORIGINS")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.User, "EMAIL_USER")
	setString(&cfg.SMTP.Pass, "EMAIL_PASS")
	setString(&cfg.SMTP.From, "EMAIL_FROM")
	setString(&cfg.ReminderSchedule, "REMINDER_SCHEDULE")

	if err := setInt(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if err := setInt(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS"); err != nil {
		return err
	}
	if err := setInt(&cfg.LoginRateLimitPerMinute, "LOGIN_RATE_LIMIT_PER_MINUTE"); err != nil {
		return err
	}
	if err := setInt(&cfg.SMTP.Port, "SMTP_PORT"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("JWT_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: JWT_TTL: %w", err)
		}
		cfg.JWTTTL = d
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	return nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("config: jwtTTL must be positive")
	}
	switch cfg.Store {
	case StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown store %q", cfg.Store)
	}
	return nil
}

// Origins returns the configured CORS origins as fiber expects them.
func (c Config) Origins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}
