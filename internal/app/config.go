package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/saffron-restaurant/api/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SAFFRON_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string        `usage:"PostgreSQL connection URL (SAFFRON_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL  string        `default:"" usage:"Base URL for menu images" flag:"image-base-url"`
	APIKeyPepper  string        `usage:"HMAC pepper for admin API key hashing" flag:"api-key-pepper"`
	SMSCodePepper string        `usage:"HMAC pepper for SMS verification code hashing" flag:"sms-code-pepper"`
	SMSCodeTTL    time.Duration `default:"10m" usage:"How long an SMS verification code stays valid" flag:"sms-code-ttl"`
	SecureCookies bool          `default:"false" usage:"Set the Secure attribute on session cookies" flag:"secure-cookies"`

	Delivery  DeliveryConfig
	SMTP      SMTPConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// DeliveryConfig controls the courier fee schedule.
type DeliveryConfig struct {
	Fee           float64 `default:"5"   usage:"Flat courier delivery fee"`
	FreeThreshold float64 `default:"100" usage:"Discounted subtotal at which delivery becomes free" flag:"free-threshold"`
}

// Pricing converts the fee schedule into the domain pricing config.
func (c DeliveryConfig) Pricing() pricing.Config {
	return pricing.Config{
		DeliveryFee:           decimal.NewFromFloat(c.Fee),
		FreeDeliveryThreshold: decimal.NewFromFloat(c.FreeThreshold),
	}
}

// SMTPConfig controls admin notification mail. Empty Host disables the
// transport.
type SMTPConfig struct {
	Host     string `usage:"SMTP server host; empty disables mail notifications"`
	Port     int    `default:"587" usage:"SMTP server port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `usage:"Sender address for admin mail"`
	AdminTo  string `usage:"Admin address receiving notifications" flag:"admin-to"`
}

// TelegramConfig controls admin notifications via the Telegram Bot API.
// Empty BotToken disables the transport.
type TelegramConfig struct {
	BotToken string `usage:"Telegram bot token; empty disables Telegram notifications" flag:"bot-token"`
	ChatID   string `usage:"Telegram chat receiving admin notifications" flag:"chat-id"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SAFFRON",
		Files:     []string{"config.yaml", "/etc/saffron/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SAFFRON_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps hosting-platform environment variables with
// standard names (DATABASE_URL, PORT) onto the SAFFRON_-prefixed config.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
