package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         string `envconfig:"PORT" default:"8585"`
	DBPath       string `envconfig:"DB_PATH" default:"./shop.db"`
	SiteURL      string `envconfig:"SITE_URL" default:"http://localhost:8585"`
	CookieDomain string `envconfig:"COOKIE_DOMAIN"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`

	// Base64-encoded, min 32 bytes decoded. Decoded into CSRFKey/SessionKey.
	CSRFKeyEncoded    string `envconfig:"CSRF_KEY"`
	SessionKeyEncoded string `envconfig:"SESSION_KEY"`
	CSRFKey           []byte `ignored:"true"`
	SessionKey        []byte `ignored:"true"`

	// The storefront currently finalizes every order as cash on delivery right
	// after the info step. Set to false to restore the payment-method step.
	CODOnly bool `envconfig:"CHECKOUT_COD_ONLY" default:"true"`

	StripePublicKey     string `envconfig:"STRIPE_PUBLIC_KEY"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	SMTPHost         string `envconfig:"SMTP_HOST"`
	SMTPPort         int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername     string `envconfig:"SMTP_USERNAME"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	FromEmail        string `envconfig:"FROM_EMAIL" default:"no-reply@localhost"`
	OrderNotifyEmail string `envconfig:"ORDER_NOTIFY_EMAIL" default:"admin@example.com"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.CSRFKey = decodeKey(cfg.CSRFKeyEncoded, "CSRF_KEY")
	cfg.SessionKey = decodeKey(cfg.SessionKeyEncoded, "SESSION_KEY")

	return &cfg, nil
}

// StripeConfigured reports whether both checkout-session credentials are set.
func (c *Config) StripeConfigured() bool {
	return c.StripePublicKey != "" && c.StripeSecretKey != ""
}

func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// decodeKey decodes a base64 key from the environment, generating a random
// development key when it is absent or too short. A generated key changes on
// every restart, so cookies and CSRF tokens will not survive one.
func decodeKey(encoded, name string) []byte {
	if encoded == "" {
		slog.Warn("key not set, generating a random development key. PLEASE SET IT IN PRODUCTION!", "name", name)
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(decoded) < 32 {
		slog.Warn("key is invalid or shorter than 32 bytes, generating a random development key. PLEASE SET A SECURE KEY IN PRODUCTION!", "name", name)
		return generateRandomBytes(32)
	}
	return decoded
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(err)
	}
	return b
}
