// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for server-side state (users, challenges, sessions, wallets).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DeviceStorePath is the SQLite file backing the device-local secure store (":memory:" for tests).
	DeviceStorePath string `mapstructure:"DEVICE_STORE_PATH"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "wallet-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "wallet-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "720h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31) for PIN hashing; default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PinMaxAttempts is the failed PIN validation budget before lockout; default 5.
	PinMaxAttempts int `mapstructure:"PIN_MAX_ATTEMPTS"`
	// PinLockout is how long PIN validation stays locked (e.g. "15m").
	PinLockout string `mapstructure:"PIN_LOCKOUT"`
	// OTPTTL is the OTP challenge lifetime (e.g. "5m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts is the failed OTP verification budget per challenge; default 5.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// SMSLocalAPIKey is the API key for SMS Local OTP delivery.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL (default https://www.smslocal.com/dev/bulkV2).
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// MailAPIKey is the API key for the transactional mail gateway (email OTP).
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`
	// MailBaseURL is the mail gateway send endpoint.
	MailBaseURL string `mapstructure:"MAIL_BASE_URL"`
	// MailFrom is the sender address for OTP email.
	MailFrom string `mapstructure:"MAIL_FROM"`
	// DevOTPMode when true skips SMS/mail gateways and stores OTPs for local retrieval. Must not be true when Env is production.
	DevOTPMode bool `mapstructure:"DEV_OTP_MODE"`
	// Env is the application environment (e.g. "development", "production"). Used with DevOTPMode to refuse dev OTP in production.
	Env string `mapstructure:"APP_ENV"`

	// Telemetry (optional). When Kafka brokers are set, flow events are emitted to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events (default wallet-auth-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DEVICE_STORE_PATH", "device.db")
	v.SetDefault("JWT_ISSUER", "wallet-auth")
	v.SetDefault("JWT_AUDIENCE", "wallet-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "720h") // 30d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PIN_MAX_ATTEMPTS", 5)
	v.SetDefault("PIN_LOCKOUT", "15m")
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("MAIL_FROM", "no-reply@7awel.com")
	v.SetDefault("DEV_OTP_MODE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "wallet-auth-telemetry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OTLP_ENDPOINT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DevOTPMode && cfg.Env == "production" {
		return nil, errors.New("config: DEV_OTP_MODE must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.PinMaxAttempts < 1 {
		return nil, errors.New("config: PIN_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.OTPMaxAttempts < 1 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must be at least 1")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// OTPChallengeTTL parses OTPTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) OTPChallengeTTL() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// PinLockoutWindow parses PinLockout as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) PinLockoutWindow() time.Duration {
	d, err := time.ParseDuration(c.PinLockout)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
