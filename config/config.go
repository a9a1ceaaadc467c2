package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// MemoryURI selects the in-memory store instead of MongoDB.
const MemoryURI = "memory"

type Config struct {
	Port        string        `env:"PORT" envDefault:"5000"`
	TokenSecret string        `env:"ACCESS_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	Mongo     Mongo
	Redis     Redis     `envPrefix:"REDIS_"`
	Stripe    Stripe    `envPrefix:"STRIPE_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Mongo struct {
	URI      string `env:"MONGO_URI"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASS"`
	Cluster  string `env:"DB_CLUSTER"`
	Database string `env:"DB_NAME" envDefault:"keyboardquipo"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
	Currency  string `env:"CURRENCY" envDefault:"usd"`
}

type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.Mongo.URI == "" && cfg.Mongo.User != "" && cfg.Mongo.Cluster == "" {
		return nil, errors.New("DB_CLUSTER is required when DB_USER is set")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

// Addr returns the listen address in ":port" form.
func (c *Config) Addr() string {
	if c.Port == "" {
		return ":5000"
	}
	if c.Port[0] != ':' {
		return ":" + c.Port
	}
	return c.Port
}

// MongoURI prefers MONGO_URI and otherwise builds an Atlas SRV URI from the credentials.
func (c *Config) MongoURI() string {
	if c.Mongo.URI != "" {
		return c.Mongo.URI
	}
	if c.Mongo.User == "" {
		return "mongodb://localhost:27017"
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(c.Mongo.User), url.QueryEscape(c.Mongo.Password), c.Mongo.Cluster)
}

func (c *Config) UseMemoryStore() bool {
	return c.Mongo.URI == MemoryURI
}
