package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "travelnest-dev-secret-change-in-production"

type Config struct {
	Environment    string   // ENV: production, development, etc.
	Port           string
	Host           string   // Raw HOST env (e.g. https://api.travelnest.in)
	AllowedHost    string   // Hostname only for strict host check (production only)
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	LogLevel       string
	TrustProxy     bool     // take client IPs from X-Forwarded-For / X-Real-IP

	MongoURI      string
	MongoDatabase string
	RedisURI      string
	PostgresURI   string

	JWTSecret     string
	UserTokenTTL  time.Duration
	AdminTokenTTL time.Duration
	AdminEmail    string
	BcryptCost    int

	OTPExpiry         time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration
	ResetTokenTTL     time.Duration
	AdminOTPTTL       time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	// api.example.com also serves https://example.com and https://www.example.com
	if h := hostname(host); h != "" && h != "localhost" {
		parts := strings.Split(h, ".")
		if len(parts) > 2 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(allowedOrigins, origin) {
					allowedOrigins = append(allowedOrigins, origin)
				}
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	smtpUser := getEnv("SMTP_USERNAME", "")

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		Host:           host,
		AllowedHost:    allowedHost,
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustProxy:     getBool("TRUST_PROXY", false),

		MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017")),
		MongoDatabase: getEnv("MONGODB_DATABASE", "travelnest"),
		RedisURI:      getEnv("REDIS_URI", "redis://localhost:6379/0"),
		PostgresURI:   getEnv("POSTGRES_URI", "postgres://localhost:5432/travelnest?sslmode=disable"),

		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		UserTokenTTL:  getDuration("USER_TOKEN_TTL", 7*24*time.Hour),
		AdminTokenTTL: getDuration("ADMIN_TOKEN_TTL", 24*time.Hour),
		AdminEmail:    strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		BcryptCost:    getInt("BCRYPT_COST", 12),

		OTPExpiry:         time.Duration(getInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
		OTPMaxAttempts:    getInt("OTP_MAX_ATTEMPTS", 3),
		OTPResendCooldown: getDuration("OTP_RESEND_COOLDOWN", time.Minute),
		ResetTokenTTL:     getDuration("RESET_TOKEN_TTL", 15*time.Minute),
		AdminOTPTTL:       getDuration("ADMIN_OTP_TTL", 5*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: smtpUser,
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", smtpUser),
	}
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.AdminEmail == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL is required"))
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.IsProduction() && !c.SMTPEnabled() {
		errs = append(errs, errors.New("SMTP_HOST must be set in production"))
	}
	if c.OTPMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", c.OTPMaxAttempts))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost))
	}
	return errors.Join(errs...)
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// SMTPEnabled reports whether outgoing mail should go through an SMTP relay.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// hostname strips scheme, path and port from a URL-ish HOST value.
func hostname(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s", "15m") or a bare number of seconds.
func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
