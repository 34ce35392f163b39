package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

type Config struct {
	DatabaseURL   string
	DBDriver      string
	MongoDatabase string
	RedisURL      string
	JWTSecret     string
	ServerPort    string
	Environment   string

	TokenTTL       time.Duration
	BcryptCost     int
	RequestTimeout time.Duration

	AllowedOrigins []string
	UploadDir      string
	ClientDistDir  string

	ScraperURL     string
	ScraperTimeout time.Duration

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlockTime   time.Duration
	RateLimitBanAfter    int
}

// Load reads configuration from the environment (and an optional .env file).
// DATABASE_URL and JWT_SECRET have no defaults.
func Load() (*Config, error) {
	// Docker containers pass variables directly, so a missing .env is fine
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment only")
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("MONGO_DATABASE", "procurement")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_BLOCK_TIME", "5m")
	v.SetDefault("RATE_LIMIT_BAN_AFTER", 5)
	v.SetDefault("SCRAPER_URL", "http://127.0.0.1:8000")
	v.SetDefault("SCRAPER_TIMEOUT", "30s")
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		RedisURL:      v.GetString("REDIS_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		ServerPort:    v.GetString("PORT"),
		Environment:   v.GetString("ENVIRONMENT"),

		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),

		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		ClientDistDir:  v.GetString("CLIENT_DIST_DIR"),

		ScraperURL:     strings.TrimRight(v.GetString("SCRAPER_URL"), "/"),
		ScraperTimeout: v.GetDuration("SCRAPER_TIMEOUT"),

		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitWindow:      v.GetDuration("RATE_LIMIT_WINDOW"),
		RateLimitBlockTime:   v.GetDuration("RATE_LIMIT_BLOCK_TIME"),
		RateLimitBanAfter:    v.GetInt("RATE_LIMIT_BAN_AFTER"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	// CORS with credentials needs at least one explicit origin
	if len(cfg.AllowedOrigins) == 0 {
		missing = append(missing, "ALLOWED_ORIGINS")
	}
	if len(missing) > 0 {
		return nil, errors.Join(ErrMissingRequired, errors.New(strings.Join(missing, ", ")))
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: BCRYPT_COST must be between %d and %d, got %d",
			ErrInvalid, bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.ServerPort, ":") {
		return c.ServerPort
	}
	return ":" + c.ServerPort
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
