package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time parses duration-valued variables
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Anything optional degrades gracefully when
// unset; required values halt startup via must().
type Config struct {
	Env           string         // application environment (e.g. "dev", "prod")
	Port          string         // HTTP port to listen on
	BotToken      string         // Telegram bot token
	WebhookSecret string         // optional secret expected in the webhook header
	AdminIDs      map[int64]bool // fixed administrator identity set
	YardsFile     string         // path to the yard layout document
	DataDir       string         // directory holding the durable JSON documents
	CountryCode   string         // country code prefixed during phone normalization
	TrunkPrefix   string         // local trunk prefix collapsed during normalization
	ResetTZ       string         // IANA timezone of the daily reset
	ResetHour     int            // wall-clock hour of the daily reset
	ResetMinute   int            // wall-clock minute of the daily reset
	ReminderAfter time.Duration  // charging-slot reminder delay
	EventsEnabled bool           // publish slot events to the broker when true
}

// Load reads configuration from environment variables.  Required
// variables are enforced by must(); missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		BotToken:      must("BOT_TOKEN"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		AdminIDs:      parseIDSet(os.Getenv("ADMIN_IDS")),
		YardsFile:     getenv("YARDS_FILE", "yards.json"),
		DataDir:       getenv("DATA_DIR", "data"),
		CountryCode:   getenv("DEFAULT_COUNTRY_CODE", "972"),
		TrunkPrefix:   getenv("TRUNK_PREFIX", "0"),
		ResetTZ:       getenv("RESET_TZ", "Asia/Jerusalem"),
		ResetHour:     envInt("RESET_HOUR", 0),
		ResetMinute:   envInt("RESET_MINUTE", 0),
		ReminderAfter: envDur("CHARGING_REMINDER_AFTER", 90*time.Minute),
		EventsEnabled: envBool("EVENTS_ENABLED", false),
	}
}

// parseIDSet splits a comma-separated list of numeric identities into a
// set.  Malformed entries are fatal: a typo here would silently lock
// every administrator out or, worse, admit the wrong one.
func parseIDSet(s string) map[int64]bool {
	out := make(map[int64]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Fatalf("invalid admin id %q in ADMIN_IDS", part)
		}
		out[id] = true
	}
	return out
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

// getenv returns the variable's value or a default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

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
