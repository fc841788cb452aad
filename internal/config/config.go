package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"wealthsync"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"wealthsync"`
	DBName     string `envconfig:"DB_NAME" default:"wealthsync"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// JWT
	JWTSecret string `envconfig:"JWT_SECRET" default:"fallback-secret-key-for-dev-only"`

	// Pipeline endpoints (manual refresh trigger, status)
	PipelineAPIKey string `envconfig:"PIPELINE_API_KEY"`

	// Price refresh
	RefreshEnabled      bool          `envconfig:"PRICE_REFRESH_ENABLED" default:"true"`
	RefreshInterval     time.Duration `envconfig:"PRICE_REFRESH_INTERVAL" default:"2h"`
	RefreshInitialDelay time.Duration `envconfig:"PRICE_REFRESH_INITIAL_DELAY" default:"5s"`
	PriceFetchTimeout   time.Duration `envconfig:"PRICE_FETCH_TIMEOUT" default:"10s"`
	PriceCacheTTL       time.Duration `envconfig:"PRICE_CACHE_TTL" default:"5m"`

	// Price providers
	CoinGeckoURL           string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3/simple/price"`
	CoinGeckoVsCurrency    string `envconfig:"COINGECKO_VS_CURRENCY" default:"usd"`
	CoinGeckoSymbolMapFile string `envconfig:"COINGECKO_SYMBOL_MAP_FILE"`
	AlphaVantageURL        string `envconfig:"ALPHA_VANTAGE_URL" default:"https://www.alphavantage.co/query"`
	AlphaVantageAPIKey     string `envconfig:"ALPHA_VANTAGE_API_KEY"`

	// Optional shared price cache; empty address keeps the cache in memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appConfig = &cfg
	return &cfg, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the global configuration. Tests use it to avoid touching the environment.
func Set(cfg *Config) {
	appConfig = cfg
}

func (c *Config) validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("PRICE_REFRESH_INTERVAL must be positive, got %v", c.RefreshInterval)
	}
	if c.RefreshInitialDelay < 0 {
		return fmt.Errorf("PRICE_REFRESH_INITIAL_DELAY must not be negative, got %v", c.RefreshInitialDelay)
	}
	if c.PriceFetchTimeout <= 0 {
		return fmt.Errorf("PRICE_FETCH_TIMEOUT must be positive, got %v", c.PriceFetchTimeout)
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must not be negative, got %v", c.PriceCacheTTL)
	}
	return nil
}
