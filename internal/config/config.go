package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingSecretKey = errors.New("PAYSTACK_SECRET_KEY is not set")
	ErrMissingAppScheme = errors.New("APP_URL_SCHEME is not set")
)

const (
	DefaultPaystackBaseURL  = "https://api.paystack.co"
	DefaultCallbackURL      = "http://localhost:8080/paystack/callback"
	DefaultFailureURL       = "https://yourfrontend.com/payment-failed"
	DefaultPaystackTimeout  = 15 * time.Second
	DefaultHTTPAddr         = ":8080"
	DefaultAllowedOrigins   = "*"
	DefaultInitializeRate   = 5.0
	DefaultInitializeBurst  = 10
	defaultConfigName       = "payrelay"
	defaultConfigSystemPath = "/etc/payrelay"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	Paystack  PaystackConfig
	Redirect  RedirectConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type PaystackConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
	// VerifyWebhookSignature enables HMAC checking of webhook bodies. Off by
	// default: deliveries are trusted as-is unless this is turned on.
	VerifyWebhookSignature bool
}

type RedirectConfig struct {
	AppScheme  string
	FailureURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Enabled         bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	InitializeRate  float64
	InitializeBurst int
}

// Load loads configuration from environment variables, an optional .env file
// and an optional payrelay.yml. The gateway secret and app scheme are required.
func Load() (Config, error) {
	_ = godotenv.Load()

	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yml")
	v.AddConfigPath(defaultConfigSystemPath)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_service", "payrelay")
	v.SetDefault("app_version", "0.1.0")
	v.SetDefault("environment", "development")
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("otlp_endpoint", "localhost:4317")
	v.SetDefault("paystack_base_url", DefaultPaystackBaseURL)
	v.SetDefault("paystack_callback_url", DefaultCallbackURL)
	v.SetDefault("paystack_timeout", DefaultPaystackTimeout)
	v.SetDefault("paystack_webhook_verify_signature", false)
	v.SetDefault("payment_failure_url", DefaultFailureURL)
	v.SetDefault("cors_allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("rate_limit_enabled", false)
	v.SetDefault("rate_limit_redis_addr", "localhost:6379")
	v.SetDefault("rate_limit_redis_db", 0)
	v.SetDefault("rate_limit_initialize_rate", DefaultInitializeRate)
	v.SetDefault("rate_limit_initialize_burst", DefaultInitializeBurst)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName:      strings.TrimSpace(v.GetString("app_service")),
		AppVersion:   strings.TrimSpace(v.GetString("app_version")),
		Environment:  strings.TrimSpace(v.GetString("environment")),
		HTTPAddr:     strings.TrimSpace(v.GetString("http_addr")),
		OTLPEndpoint: strings.TrimSpace(v.GetString("otlp_endpoint")),
		Paystack: PaystackConfig{
			BaseURL:                strings.TrimSpace(v.GetString("paystack_base_url")),
			SecretKey:              strings.TrimSpace(v.GetString("paystack_secret_key")),
			CallbackURL:            strings.TrimSpace(v.GetString("paystack_callback_url")),
			Timeout:                v.GetDuration("paystack_timeout"),
			VerifyWebhookSignature: v.GetBool("paystack_webhook_verify_signature"),
		},
		Redirect: readRedirect(v),
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		},
		RateLimit: RateLimitConfig{
			Enabled:         v.GetBool("rate_limit_enabled"),
			RedisAddr:       strings.TrimSpace(v.GetString("rate_limit_redis_addr")),
			RedisPassword:   strings.TrimSpace(v.GetString("rate_limit_redis_password")),
			RedisDB:         v.GetInt("rate_limit_redis_db"),
			InitializeRate:  v.GetFloat64("rate_limit_initialize_rate"),
			InitializeBurst: v.GetInt("rate_limit_initialize_burst"),
		},
	}

	if cfg.Paystack.SecretKey == "" {
		return Config{}, ErrMissingSecretKey
	}
	if cfg.Redirect.AppScheme == "" {
		return Config{}, ErrMissingAppScheme
	}
	if cfg.Paystack.Timeout <= 0 {
		cfg.Paystack.Timeout = DefaultPaystackTimeout
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{DefaultAllowedOrigins}
	}

	return cfg, nil
}

func readRedirect(v *viper.Viper) RedirectConfig {
	return RedirectConfig{
		AppScheme:  strings.TrimSpace(v.GetString("app_url_scheme")),
		FailureURL: strings.TrimSpace(v.GetString("payment_failure_url")),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
