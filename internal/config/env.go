package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Env is the single configuration object for the process. It is loaded once
// in main and handed to every collaborator that needs external settings.
type Env struct {
	AppEnv   string
	AppAddr  string
	GinMode  string
	LogLevel string
	LogFile  string

	DB             DBConfig
	RunMigrations  bool
	MigrationsPath string

	// PublicBaseURL is where customers open offer links and land after checkout.
	PublicBaseURL      string
	CORSAllowedOrigins []string

	JWTSecret     string
	AdminTokenTTL time.Duration
	OfferTokenTTL time.Duration

	// Admin* seed the first admin account when it does not exist yet.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	Mail    MailConfig
	Stripe  StripeConfig
	Storage StorageConfig

	RedisURL            string
	PublicTripsCacheTTL time.Duration

	Numbering NumberingConfig
	Pricing   PricingConfig

	DefaultCapacity int
	NotifyTimeout   time.Duration

	DepartureCacheInterval time.Duration
	PendingOrderTTL        time.Duration
	PendingSweepInterval   time.Duration
}

type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
	FromName     string
	// AdminAddress receives the internal copy of every notification.
	AdminAddress string
	BCC          []string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	SignedTTL time.Duration
}

type NumberingConfig struct {
	OfferPrefix   string
	BookingPrefix string
	TicketPrefix  string
}

type PricingConfig struct {
	PassengerVATRate decimal.Decimal
	ServiceVATRate   decimal.Decimal
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var errs []error

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			appAddr = ":" + port
		} else {
			appAddr = ":8080"
		}
	}

	env := Env{
		AppEnv:         envOr("APP_ENV", "dev"),
		AppAddr:        appAddr,
		GinMode:        strings.TrimSpace(os.Getenv("GIN_MODE")),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFile:        strings.TrimSpace(os.Getenv("LOG_FILE")),
		DB:             loadDBConfig(),
		RunMigrations:  strings.EqualFold(os.Getenv("MIGRATE"), "true"),
		MigrationsPath: strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")),
		PublicBaseURL:  strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     envOr("ADMIN_NAME", "Admin"),
		Mail: MailConfig{
			SMTPHost:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			FromAddress:  envOr("MAIL_FROM_ADDRESS", "no-reply@localhost"),
			FromName:     envOr("MAIL_FROM_NAME", "Bussbokning"),
			AdminAddress: strings.TrimSpace(os.Getenv("MAIL_ADMIN_ADDRESS")),
			BCC:          envList("MAIL_BCC", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(envOr("STRIPE_CURRENCY", "sek")),
		},
		Storage: StorageConfig{
			Endpoint:  strings.TrimSpace(os.Getenv("STORAGE_ENDPOINT")),
			Region:    envOr("STORAGE_REGION", "eu-north-1"),
			Bucket:    strings.TrimSpace(os.Getenv("STORAGE_BUCKET")),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		},
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
		Numbering: NumberingConfig{
			OfferPrefix:   strings.ToUpper(envOr("OFFER_NUMBER_PREFIX", "HB")),
			BookingPrefix: strings.ToUpper(envOr("BOOKING_NUMBER_PREFIX", "BK")),
			TicketPrefix:  strings.ToUpper(envOr("TICKET_NUMBER_PREFIX", "TB")),
		},
	}

	env.Stripe.SuccessURL = envOr("STRIPE_SUCCESS_URL", env.PublicBaseURL+"/resor/tack")
	env.Stripe.CancelURL = envOr("STRIPE_CANCEL_URL", env.PublicBaseURL+"/resor")

	env.Mail.SMTPPort = intFromEnv("SMTP_PORT", 587, &errs)
	env.DefaultCapacity = intFromEnv("DEFAULT_DEPARTURE_CAPACITY", 50, &errs)

	env.AdminTokenTTL = durationFromEnv("ADMIN_TOKEN_TTL", 12*time.Hour, &errs)
	env.OfferTokenTTL = durationFromEnv("OFFER_TOKEN_TTL", 30*24*time.Hour, &errs)
	env.Storage.SignedTTL = durationFromEnv("STORAGE_SIGNED_URL_TTL", time.Hour, &errs)
	env.PublicTripsCacheTTL = durationFromEnv("PUBLIC_TRIPS_CACHE_TTL", 5*time.Minute, &errs)
	env.NotifyTimeout = durationFromEnv("NOTIFY_TIMEOUT", 15*time.Second, &errs)
	env.DepartureCacheInterval = durationFromEnv("DEPARTURE_CACHE_INTERVAL", 30*time.Minute, &errs)
	env.PendingOrderTTL = durationFromEnv("PENDING_ORDER_TTL", 2*time.Hour, &errs)
	env.PendingSweepInterval = durationFromEnv("PENDING_SWEEP_INTERVAL", 10*time.Minute, &errs)

	env.Pricing.PassengerVATRate = decimalFromEnv("VAT_RATE_PASSENGER", "0.06", &errs)
	env.Pricing.ServiceVATRate = decimalFromEnv("VAT_RATE_SERVICE", "0.25", &errs)

	if env.JWTSecret == "" {
		if env.AppEnv == "production" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		env.JWTSecret = "dev-secret-change-me"
	}
	if env.DefaultCapacity <= 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_DEPARTURE_CAPACITY must be > 0"))
	}
	for _, p := range []string{env.Numbering.OfferPrefix, env.Numbering.BookingPrefix, env.Numbering.TicketPrefix} {
		if len(p) != 2 {
			errs = append(errs, fmt.Errorf("number prefix %q must be two letters", p))
		}
	}

	return env, errors.Join(errs...)
}

// MailEnabled reports whether an SMTP relay is configured.
func (e Env) MailEnabled() bool { return e.Mail.SMTPHost != "" }

func (e Env) StripeEnabled() bool { return e.Stripe.SecretKey != "" }

func (e Env) StorageEnabled() bool { return e.Storage.Bucket != "" }

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		v = fallbackCSV
	}
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intFromEnv(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func decimalFromEnv(key, fallback string, errs *[]error) decimal.Decimal {
	v := envOr(key, fallback)
	d, err := decimal.NewFromString(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return decimal.RequireFromString(fallback)
	}
	return d
}
