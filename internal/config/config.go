package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"technotes"`
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	ServerAddr  string `envconfig:"SERVER_ADDR" default:":3500"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	AccessTokenSecret  string `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshTokenSecret string `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	BcryptCost         int    `envconfig:"BCRYPT_COST" default:"10"`

	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LoginRateLimit int      `envconfig:"LOGIN_RATE_LIMIT" default:"5"`

	RedisAddr    string   `envconfig:"REDIS_ADDR"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	ESURL      string `envconfig:"ES_URL"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *Config) AccessSecret() []byte  { return []byte(c.AccessTokenSecret) }
func (c *Config) RefreshSecret() []byte { return []byte(c.RefreshTokenSecret) }

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is empty")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("config: token secrets must be set")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if bytes.Equal(c.AccessSecret(), c.RefreshSecret()) {
		return errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.LoginRateLimit < 1 {
		return fmt.Errorf("config: LOGIN_RATE_LIMIT must be positive, got %d", c.LoginRateLimit)
	}
	return nil
}
