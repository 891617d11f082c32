package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all process-wide settings. It is built once in main and
// passed down; nothing mutates it afterwards.
type Config struct {
	Port    string `env:"PORT" env-default:"8080"`
	SiteURL string `env:"SITE_URL" env-default:"http://localhost:8888"`

	Postgres Postgres
	JWT      JWT
	Stripe   Stripe
	PSA      PSA
	Fees     Fees
}

type Postgres struct {
	Host string `env:"DB_HOST" env-default:"localhost"`
	Port string `env:"DB_PORT" env-default:"5432"`
	User string `env:"DB_USER" env-default:"postgres"`
	Pass string `env:"DB_PASSWORD" env-default:"postgres"`
	Name string `env:"DB_NAME" env-default:"tcg"`
}

type JWT struct {
	Secret string `env:"JWT_SECRET" env-default:"your-secret-key-change-this"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

type PSA struct {
	BaseURL string `env:"PSA_API_URL" env-default:"https://api.psacard.com/publicapi"`
	Token   string `env:"PSA_API_TOKEN"`
}

// Fees mirrors the platform commission settings. The rates are fractions,
// not percentages.
type Fees struct {
	PlatformRate      float64 `env:"PLATFORM_FEE_RATE" env-default:"0.10"`
	ProcessorRate     float64 `env:"STRIPE_FEE_RATE" env-default:"0.029"`
	ProcessorFixedFee float64 `env:"STRIPE_FIXED_FEE" env-default:"0.30"`
	MinListingPrice   float64 `env:"MIN_LISTING_PRICE" env-default:"10.00"`
	MaxListingPrice   float64 `env:"MAX_LISTING_PRICE" env-default:"100000.00"`
}

// Load reads configuration from the environment, honouring a local .env
// file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	if cfg.JWT.Secret == "your-secret-key-change-this" {
		log.Println("Warning: using default JWT_SECRET. Update it in your environment.")
	}
	if cfg.Stripe.SecretKey == "" {
		log.Println("Warning: STRIPE_SECRET_KEY is not set; checkout will fail.")
	}

	return &cfg
}
