package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Environment helpers shared by the service wiring. Values come from the
// process environment (godotenv loads a .env file in main).

// GetEnvString returns the env value or the default when unset
func GetEnvString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt returns the env value parsed as int, or the default
func GetEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("⚠️  Invalid integer for %s: %q, using %d", key, val, def)
		return def
	}
	return n
}

// GetEnvDuration returns the env value parsed as a duration, or the
// default. Accepts Go duration syntax ("90s", "15m", "1h").
func GetEnvDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("⚠️  Invalid duration for %s: %q, using %s", key, val, def)
		return def
	}
	return d
}
