package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, must exceed IconFetchTimeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	BaseURL string // public URL used to build absolute icon URLs on export

	// Storage
	DBDriver          string // "sqlite" | "postgres"
	DBDSN             string
	DBMaxOpenConns    int // postgres only, sqlite always uses a single connection
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBSlowThreshold   time.Duration // queries slower than this are logged at warn
	DataDir           string        // root of the icon blob store

	// Auth
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration // lifetime of tokens minted by `dashlink token`
	GroupSource []string      // "id:Display Name" entries

	// Background jobs
	SeedFile        string        // optional YAML file of global links
	SeedInterval    time.Duration // seed reload interval
	IconGCInterval  time.Duration
	IconGCGrace     time.Duration // unreferenced blobs younger than this are kept
	IconFetchTime   time.Duration // icon download timeout
	IconMaxRedirect int
	CounterSweep    time.Duration // purge interval of in-memory rate-limit counters

	// Redis (optional, rate-limit counters fall back to memory when empty)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int

	// Access restrictions
	AllowedHosts          []string // optional, restrict access to specific Host headers
	AllowedCIDRS          []string // optional, restrict ops endpoints to these IPs/CIDRs
	TrustProxy            bool     // true => trust X-Forwarded-For headers
	ThrottleBurst         int
	ThrottleRefillPerMin  int
	ThrottleMaxEntries    int
	ThrottleIdleTTL       time.Duration
	ThrottleSweepInterval time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over its values.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: failed to read .env file: %v", err))
	}

	cfg := &Config{
		ListenPort:      getenv("DASHLINK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DASHLINK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("DASHLINK_REQUEST_TIMEOUT", 15*time.Second),

		LogLevel:  getenv("DASHLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DASHLINK_PRETTY_LOG", true),

		BaseURL: strings.TrimRight(requireEnv("DASHLINK_BASE_URL"), "/"),

		DBDriver:          strings.ToLower(getenv("DASHLINK_DB_DRIVER", "sqlite")),
		DBDSN:             getenv("DASHLINK_DB_DSN", "dashlink.db"),
		DBMaxOpenConns:    getenvInt("DASHLINK_DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getenvInt("DASHLINK_DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: mustDuration("DASHLINK_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBSlowThreshold:   mustDuration("DASHLINK_DB_SLOW_THRESHOLD", 200*time.Millisecond),
		DataDir:           getenv("DASHLINK_DATA_DIR", "./data"),

		JWTSecret:   requireEnv("DASHLINK_JWT_SECRET"),
		JWTIssuer:   getenv("DASHLINK_JWT_ISSUER", "dashlink"),
		TokenTTL:    mustDuration("DASHLINK_TOKEN_TTL", 24*time.Hour),
		GroupSource: splitAndTrim(getenv("DASHLINK_GROUPS", "")),

		SeedFile:        getenv("DASHLINK_SEED_FILE", ""),
		SeedInterval:    mustDuration("DASHLINK_SEED_INTERVAL", 24*time.Hour),
		IconGCInterval:  mustDuration("DASHLINK_ICON_GC_INTERVAL", 24*time.Hour),
		IconGCGrace:     mustDuration("DASHLINK_ICON_GC_GRACE", time.Hour),
		IconFetchTime:   mustDuration("DASHLINK_ICON_FETCH_TIMEOUT", 10*time.Second),
		IconMaxRedirect: getenvInt("DASHLINK_ICON_MAX_REDIRECTS", 3),
		CounterSweep:    mustDuration("DASHLINK_COUNTER_SWEEP_INTERVAL", 5*time.Minute),

		RedisAddr:           getenv("DASHLINK_REDIS_ADDR", ""),
		RedisUser:           getenv("DASHLINK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("DASHLINK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("DASHLINK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		AllowedHosts:          splitAndTrim(getenv("DASHLINK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:          parseAllowedIPs(getenv("DASHLINK_ALLOWED_CIDRS", "")),
		TrustProxy:            mustBool("DASHLINK_TRUST_PROXY", false),
		ThrottleBurst:         getenvInt("DASHLINK_THROTTLE_BURST", 60),
		ThrottleRefillPerMin:  getenvInt("DASHLINK_THROTTLE_REFILL_PER_MIN", 120),
		ThrottleMaxEntries:    getenvInt("DASHLINK_THROTTLE_MAX_ENTRIES", 10000),
		ThrottleIdleTTL:       mustDuration("DASHLINK_THROTTLE_IDLE_TTL", 15*time.Minute),
		ThrottleSweepInterval: mustDuration("DASHLINK_THROTTLE_SWEEP_INTERVAL", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Validate checks cross-field constraints that single helpers can't express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DASHLINK_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("DASHLINK_JWT_SECRET must be at least 32 bytes")
	}
	if c.IconMaxRedirect < 0 {
		return fmt.Errorf("DASHLINK_ICON_MAX_REDIRECTS must be >= 0, got %d", c.IconMaxRedirect)
	}
	if c.RequestTimeout <= c.IconFetchTime {
		return fmt.Errorf("DASHLINK_REQUEST_TIMEOUT (%s) must exceed DASHLINK_ICON_FETCH_TIMEOUT (%s)",
			c.RequestTimeout, c.IconFetchTime)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.JWTSecret = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.DBDriver == "postgres" {
		cp.DBDSN = "***REDACTED***"
	}
	return cp
}

// RedisEnabled reports whether a Redis backend was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
