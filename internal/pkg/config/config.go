package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo     Mongo
	Redis     Redis
	OAuth     OAuth
	Extractor Extractor
}

type Mongo struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=zentria_afe"`
}

type Redis struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// OAuth configures the external identity provider used by the dashboard's
// single-sign-on flow.
type OAuth struct {
	TokenURL     string `env:"OAUTH_TOKEN_URL"`
	ClientID     string `env:"OAUTH_CLIENT_ID"`
	ClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	RedirectURI  string `env:"OAUTH_REDIRECT_URI"`
}

// Extractor configures the invoice-extraction backend polled for mailbox
// contents.
type Extractor struct {
	URL     string        `env:"EXTRACTOR_URL, default=http://localhost:8090"`
	Timeout time.Duration `env:"EXTRACTOR_TIMEOUT, default=30s"`
	Workers int           `env:"EXTRACTOR_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
