// Package config loads service settings from a .env file and the
// environment.
package config

import (
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"itinera/utils"
)

type Config struct {
	Port string

	// StoreBackend is "mongo" or "memory".
	StoreBackend  string
	MongoURI      string
	MongoDatabase string

	// RedisAddr empty disables the route cache and the change feed relay.
	RedisAddr     string
	RedisPassword string

	JwtSecret     string
	PublicBaseURL string

	DirectionsAPIKey  string
	DirectionsBaseURL string
	DirectionsTimeout time.Duration
	DirectionsRPS     float64
	RouteCacheTTL     time.Duration

	// TrustedProxies are the reverse proxies whose X-Forwarded-For is read
	// when keying rate limits. Empty means the peer address is used.
	TrustedProxies []netip.Prefix

	DayStartHour int
	DayEndHour   int
	SlotMinutes  int
}

// Load reads .env if present, then the environment. Missing or malformed
// values fall back to defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := getenv("PORT", ":8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return Config{
		Port:              port,
		StoreBackend:      strings.ToLower(getenv("STORE_BACKEND", "mongo")),
		MongoURI:          getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getenv("MONGODB_DB", "itinera"),
		RedisAddr:         getenv("REDIS_URL", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JwtSecret:         getenv("JWT_SECRET", "your_secret_key"),
		PublicBaseURL:     strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DirectionsAPIKey:  os.Getenv("DIRECTIONS_API_KEY"),
		DirectionsBaseURL: getenv("DIRECTIONS_BASE_URL", "https://maps.googleapis.com"),
		DirectionsTimeout: getDuration("DIRECTIONS_TIMEOUT", 10*time.Second),
		DirectionsRPS:     getFloat("DIRECTIONS_RPS", 10),
		RouteCacheTTL:     getDuration("ROUTE_CACHE_TTL", 6*time.Hour),
		DayStartHour:      getInt("DAY_START_HOUR", 6),
		DayEndHour:        getInt("DAY_END_HOUR", 24),
		SlotMinutes:       getInt("SLOT_MINUTES", 30),
		TrustedProxies:    getPrefixes("TRUSTED_PROXIES"),
	}
}

// DirectionsEnabled reports whether a live directions provider is configured.
func (c Config) DirectionsEnabled() bool {
	return c.DirectionsAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] %s=%q is not a number; using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[Config] %s=%q is not a number; using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[Config] %s=%q is not a duration; using %v", key, v, fallback)
		return fallback
	}
	return d
}

func getPrefixes(key string) []netip.Prefix {
	prefixes, invalid := utils.ParsePrefixes(os.Getenv(key))
	for _, v := range invalid {
		log.Printf("[Config] %s entry %q is not an IP or CIDR; ignored", key, v)
	}
	return prefixes
}
