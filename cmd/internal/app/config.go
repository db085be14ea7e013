package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Login guard policy.
	LockoutThreshold int
	LockoutDuration  time.Duration
	FailureWindow    time.Duration

	// Presence and registry lifecycle.
	PresenceWindow    time.Duration
	SessionStaleAfter time.Duration
	KickMarkTTL       time.Duration
	SweepInterval     time.Duration

	// Push stream.
	HeartbeatInterval time.Duration
	AllowedOrigins    []string

	// Optional persistence (users + audit log). Empty -> in-memory mode.
	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// Optional shared kick-mark cache. Empty -> in-memory marks.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional GeoIP enrichment for the admin session listing.
	GeoIPPath string

	CookieSecure bool

	// RequireTokenHMAC refuses to start without a strong token HMAC key,
	// forbidding the plain-SHA-256 dev fallback in production.
	RequireTokenHMAC bool

	// Bootstrap credentials for in-memory mode (dev / first boot).
	BootstrapAdminUser string
	BootstrapAdminPass string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("VIGIL_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("VIGIL_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("VIGIL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("VIGIL_HTTP_READ_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("VIGIL_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("VIGIL_HTTP_MAX_HEADER_BYTES", 1<<20),

		LockoutThreshold: EnvInt("VIGIL_LOCKOUT_THRESHOLD", 5),
		LockoutDuration:  EnvDuration("VIGIL_LOCKOUT_DURATION", 5*time.Minute),
		FailureWindow:    EnvDuration("VIGIL_FAILURE_WINDOW", 15*time.Minute),

		PresenceWindow:    EnvDuration("VIGIL_PRESENCE_WINDOW", 30*time.Minute),
		SessionStaleAfter: EnvDuration("VIGIL_SESSION_STALE_AFTER", time.Hour),
		KickMarkTTL:       EnvDuration("VIGIL_KICK_MARK_TTL", 60*time.Second),
		SweepInterval:     EnvDuration("VIGIL_SWEEP_INTERVAL", 30*time.Minute),

		HeartbeatInterval: EnvDuration("VIGIL_HEARTBEAT_INTERVAL", 20*time.Second),
		AllowedOrigins:    EnvCSV("VIGIL_ALLOWED_ORIGINS", "http://localhost,http://127.0.0.1"),

		DatabaseURL: EnvString("VIGIL_DATABASE_URL", ""),
		DBSchema:    EnvString("VIGIL_DB_SCHEMA", "vigil"),
		DBMaxConns:  EnvInt32("VIGIL_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("VIGIL_DB_MIN_CONNS", 0),

		RedisAddr:     EnvString("VIGIL_REDIS_ADDR", ""),
		RedisPassword: EnvString("VIGIL_REDIS_PASSWORD", ""),
		RedisDB:       int(EnvInt32("VIGIL_REDIS_DB", 0)),

		GeoIPPath: EnvString("VIGIL_GEOIP_DB", ""),

		CookieSecure: EnvBool("VIGIL_COOKIE_SECURE", false),

		RequireTokenHMAC: EnvBool("VIGIL_REQUIRE_TOKEN_HMAC", false),

		BootstrapAdminUser: EnvString("VIGIL_BOOTSTRAP_ADMIN_USER", "admin"),
		BootstrapAdminPass: EnvString("VIGIL_BOOTSTRAP_ADMIN_PASS", ""),
	}
}
