package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "ONEVOICE"

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	Secret       string        `mapstructure:"secret"`

	ChatRate   RateLimit   `mapstructure:"chat_rate"`
	Database   Database    `mapstructure:"database"`
	Recording  Recording   `mapstructure:"recording"`
	AMQP       AMQP        `mapstructure:"amqp"`
	ICEServers []ICEServer `mapstructure:"ice_servers"`
}

type RateLimit struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type Database struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	DSN    string `mapstructure:"dsn"`
}

type Recording struct {
	Driver  string `mapstructure:"driver"` // static | minio
	BaseURL string `mapstructure:"base_url"`
	MinIO   MinIO  `mapstructure:"minio"`
}

type MinIO struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	Region    string        `mapstructure:"region"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// AMQP publishing is disabled while Host is empty.
type AMQP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Exchange string `mapstructure:"exchange"`
	Kind     string `mapstructure:"kind"`
}

func (a AMQP) Enabled() bool { return a.Host != "" }

func (a AMQP) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", a.User, a.Pass, a.Host, a.Port)
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "20s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")

	v.SetDefault("chat_rate.limit", 10)
	v.SetDefault("chat_rate.window", "5s")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")

	v.SetDefault("recording.driver", "static")
	v.SetDefault("recording.base_url", "https://recordings.example.com")
	v.SetDefault("recording.minio.endpoint", "localhost:9000")
	v.SetDefault("recording.minio.access_key", "")
	v.SetDefault("recording.minio.secret_key", "")
	v.SetDefault("recording.minio.bucket", "recordings")
	v.SetDefault("recording.minio.region", "us-east-1")
	v.SetDefault("recording.minio.use_ssl", false)
	v.SetDefault("recording.minio.url_expiry", "24h")

	v.SetDefault("amqp.host", "")
	v.SetDefault("amqp.port", 5672)
	v.SetDefault("amqp.user", "guest")
	v.SetDefault("amqp.pass", "guest")
	v.SetDefault("amqp.exchange", "onevoice.events")
	v.SetDefault("amqp.kind", "topic")

	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE),
// then ONEVOICE_* environment overrides such as ONEVOICE_DATABASE_DSN.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("module", "config").Err(err).Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.Database.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("config: secret must be set")
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("config: ping_period must be positive, got %s", c.PingPeriod)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("config: send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.ChatRate.Limit <= 0 {
		return fmt.Errorf("config: chat_rate.limit must be positive, got %d", c.ChatRate.Limit)
	}
	if c.ChatRate.Window <= 0 {
		return fmt.Errorf("config: chat_rate.window must be positive, got %s", c.ChatRate.Window)
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	switch c.Recording.Driver {
	case "static", "minio":
	default:
		return fmt.Errorf("config: unknown recording driver %q", c.Recording.Driver)
	}
	return nil
}
