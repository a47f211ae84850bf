package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	DatabaseFile string `env:"ACCOUNT_DATABASE_FILE" envDefault:"account.db"`
	PepperFile   string `env:"ACCOUNT_PEPPER_FILE" envDefault:"pepper"`

	// BaseURL is the public address used in links inside outgoing mails.
	BaseURL string `env:"ACCOUNT_BASE_URL" envDefault:"http://localhost:8080"`

	SecurityTokenTTL     time.Duration `env:"ACCOUNT_SECURITY_TOKEN_TTL" envDefault:"1h"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	SMTP    SMTPConfig    `envPrefix:"SMTP_"`
	SMS     SMSConfig     `envPrefix:"SMS_"`
	Shopify ShopifyConfig `envPrefix:"SHOPIFY_"`
}

// SMTPConfig selects the mailer: with no host configured the app falls back
// to the log-only mailer.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@localhost"`
}

// SMSConfig selects the SMS sender the same way.
type SMSConfig struct {
	GatewayURL string `env:"GATEWAY_URL"`
	APIKey     string `env:"API_KEY"`
	Sender     string `env:"SENDER"`
}

type ShopifyConfig struct {
	APIKey      string `env:"API_KEY"`
	APISecret   string `env:"API_SECRET"`
	Scopes      string `env:"SCOPES" envDefault:"read_orders"`
	RedirectURI string `env:"REDIRECT_URI"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
