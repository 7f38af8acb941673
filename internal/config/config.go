package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	JWTSecret        string        // secret used to verify JWTs issued by the platform auth service
	TicketHashSecret string        // key for the ticket digest; must match across replicas
	TicketTTL        time.Duration // validity window of a freshly issued ticket
	SweepInterval    time.Duration // how often the background sweeper marks overdue tickets
	RequestTimeout   time.Duration // deadline each HTTP request carries into store and broker calls
	LedgerBaseURL    string        // base URL of the coupon ledger service
	LedgerToken      string        // bearer token for ledger calls (optional)
	LedgerTimeout    time.Duration // per-call timeout for ledger requests
}

// Load reads configuration from the environment.  The ticket TTL defaults
// to five minutes, matching the redemption window the coupon ledger itself
// enforces on tickets.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		TicketHashSecret: must("TICKET_HASH_SECRET"),
		TicketTTL:        envDur("TICKET_TTL", 5*time.Minute),
		SweepInterval:    envDur("SWEEP_INTERVAL", 30*time.Second),
		RequestTimeout:   envDur("REQUEST_TIMEOUT", 10*time.Second),
		LedgerBaseURL:    must("LEDGER_BASE_URL"),
		LedgerToken:      os.Getenv("LEDGER_API_TOKEN"),
		LedgerTimeout:    envDur("LEDGER_TIMEOUT", 5*time.Second),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
