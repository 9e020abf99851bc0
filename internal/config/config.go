package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/pkg/messaging/redis"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        redis.Config       `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Clinic       ClinicConfig       `mapstructure:"clinic"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
	Notification NotificationConfig `mapstructure:"notification"`
	Reminder     ReminderConfig     `mapstructure:"reminder"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	Name                   string `mapstructure:"name"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ClinicConfig struct {
	Name           string           `mapstructure:"name"`
	Timezone       string           `mapstructure:"timezone"`
	Shifts         []schedule.Shift `mapstructure:"shifts"`
	MaxAdvanceDays int              `mapstructure:"max_advance_days"`
}

// Location resolves the clinic timezone.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type CatalogConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RealtimeConfig struct {
	// Mode is "local" for a single instance or "redis" to fan out through the broker.
	Mode     string        `mapstructure:"mode"`
	Channel  string        `mapstructure:"channel"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type NotificationConfig struct {
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

type WhatsAppConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Sender   string        `mapstructure:"sender"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type ReminderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// LeadDays is how many days ahead reminders are sent.
	LeadDays   int `mapstructure:"lead_days"`
	HealthPort int `mapstructure:"health_port"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Secrets are read from CLINIC_* environment variables and override the file values.
type Secrets struct {
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	RedisURL         string `envconfig:"REDIS_URL"`
	WhatsAppToken    string `envconfig:"WHATSAPP_TOKEN"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 30)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("jwt.issuer", "clinic-booking")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("clinic.name", "Klinik")
	v.SetDefault("clinic.timezone", "Asia/Jakarta")
	v.SetDefault("clinic.max_advance_days", 60)

	v.SetDefault("catalog.cache_ttl", 5*time.Minute)
	v.SetDefault("catalog.cleanup_interval", 10*time.Minute)

	v.SetDefault("realtime.mode", "local")
	v.SetDefault("realtime.channel", "clinic:changes")
	v.SetDefault("realtime.debounce", 500*time.Millisecond)

	v.SetDefault("notification.whatsapp.timeout", 10*time.Second)
	v.SetDefault("notification.smtp.port", 587)

	v.SetDefault("reminder.interval", 15*time.Minute)
	v.SetDefault("reminder.lead_days", 1)
	v.SetDefault("reminder.health_port", 8081)

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("metrics.namespace", "clinic")
}

// LoadConfig reads .env (if present), then config.yml, then CLINIC_* secrets.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")
	if path := os.Getenv("CLINIC_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("clinic")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process("clinic", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	config.applySecrets(secrets)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.DatabasePassword != "" {
		c.Database.Password = s.DatabasePassword
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
	if s.WhatsAppToken != "" {
		c.Notification.WhatsApp.Token = s.WhatsAppToken
	}
	if s.SMTPPassword != "" {
		c.Notification.SMTP.Password = s.SMTPPassword
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (set CLINIC_JWT_SECRET)")
	}
	if _, err := c.Clinic.Location(); err != nil {
		return fmt.Errorf("invalid clinic timezone %q: %w", c.Clinic.Timezone, err)
	}
	if _, err := schedule.NewGrid(c.Clinic.Shifts); err != nil {
		return fmt.Errorf("invalid clinic shifts: %w", err)
	}
	switch c.Realtime.Mode {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown realtime mode %q", c.Realtime.Mode)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
