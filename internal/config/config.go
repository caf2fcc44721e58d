package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration-typed settings
)

// insecureDevSecret is the JWT secret used when JWT_SECRET is unset outside
// production. It exists so the service can run locally without a .env file;
// startup logs a warning whenever it is in effect.
const insecureDevSecret = "insecure-dev-secret"

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The values are loaded once at startup and never
// mutated afterwards; every component receives the struct by value.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	TwoFactorTTL   time.Duration // validity window for superadmin 2FA codes
	ValidityMonths int           // months of validity granted to new/reactivated schools

	SMTPHost string // SMTP relay host; empty disables real delivery
	SMTPPort string // SMTP relay port
	SMTPUser string // SMTP username, also the From address
	SMTPPass string // SMTP password
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. SMTP settings are optional:
// without them the mail consumer only writes to the delivery log.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 14),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		TwoFactorTTL:   time.Duration(envInt("TWO_FACTOR_TTL_MIN", 10)) * time.Minute,
		ValidityMonths: envInt("SCHOOL_VALIDITY_MONTHS", 4),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       envStr("SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
	}
	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			log.Fatal("JWT_SECRET is required in prod")
		}
		log.Printf("WARNING: JWT_SECRET not set, using insecure development secret")
		cfg.JWTSecret = insecureDevSecret
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envStr returns the value of key or a default when unset.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the integer value of key or a default when unset. An
// unparsable value is fatal so misconfiguration surfaces at startup.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// envBool returns the boolean value of key or a default when unset.
func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

// envDur returns the duration value of key or a default when unset or invalid.
func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
