package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// const dsn = "host=localhost user=postgres password=password dbname=hbsdb port=5432 sslmode=disable TimeZone=Asia/Tokyo"

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// Booking dates travel as RFC 3339 strings.
const TIME_PARSE_FORMAT = time.RFC3339

const (
	ENV_LOCAL      = "local"
	ENV_TEST       = "test"
	ENV_PRODUCTION = "production"
)

func ApiEnv() string {
	return os.Getenv("API_ENV")
}

func IsLocal() bool {
	return ApiEnv() == ENV_LOCAL
}

func AppHost() string {
	return strings.TrimRight(os.Getenv("APP_HOST"), "/")
}

func Port() string {
	port := os.Getenv("PORT")
	if port == "" {
		return "8080"
	}
	return port
}

func JWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func StripeSecretKey() string {
	return os.Getenv("STRIPE_SECRET_KEY")
}

func StripeWebhookSecret() string {
	return os.Getenv("STRIPE_WEBHOOK_SECRET")
}

func DefaultCurrency() string {
	return strings.ToLower(getOrDefault("DEFAULT_CURRENCY", "jpy"))
}

func DefaultLanguage() string {
	return strings.ToLower(getOrDefault("DEFAULT_LANGUAGE", "en"))
}

// SupportedLanguages lists the language codes the guest UI offers, default first.
func SupportedLanguages() []string {
	raw := getOrDefault("SUPPORTED_LANGUAGES", "en,ja")
	def := DefaultLanguage()
	langs := []string{def}
	for _, l := range strings.Split(raw, ",") {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || l == def {
			continue
		}
		langs = append(langs, l)
	}
	return langs
}

// RemoteCallTimeout bounds every call to the store, Stripe and the mail transport.
func RemoteCallTimeout() time.Duration {
	return getDuration("REMOTE_CALL_TIMEOUT", 10*time.Second)
}

func MailTransport() string {
	return strings.ToLower(getOrDefault("MAIL_TRANSPORT", "smtp"))
}

func MailFrom() string {
	return os.Getenv("MAIL_FROM")
}

func MailFromName() string {
	return getOrDefault("MAIL_FROM_NAME", "Bookings")
}

func SMTPPort() int {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		return 587
	}
	return port
}

func EmailQueue() string {
	return getOrDefault("EMAIL_QUEUE", "EmailsToSend")
}

func DeadLetterQueue() string {
	return os.Getenv("DEAD_LETTER_QUEUE")
}

// MailDeliveryTransport is the transport the email worker uses to drain the queue.
func MailDeliveryTransport() string {
	return strings.ToLower(getOrDefault("MAIL_DELIVERY_TRANSPORT", "smtp"))
}

func ReconciliationTopicArn() string {
	return os.Getenv("RECONCILIATION_TOPIC_ARN")
}

// AuthHoldWarnAfter is the age after which a pending authorization shows up in the digest.
// Card authorizations lapse after seven days.
func AuthHoldWarnAfter() time.Duration {
	return getDuration("AUTH_HOLD_WARN_AFTER", 5*24*time.Hour)
}

func DigestInterval() time.Duration {
	return getDuration("DIGEST_INTERVAL", 6*time.Hour)
}

func SecretsID() string {
	return os.Getenv("AWS_SECRETS_ID")
}

func MaintenanceMode() bool {
	v, _ := strconv.ParseBool(os.Getenv("MAINTENANCE_MODE"))
	return v
}

func TempDir() string {
	return getOrDefault("TEMP_DIR", os.TempDir())
}

func getOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
