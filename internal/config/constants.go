package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Panel session lifetime
const SessionTTL = 7 * 24 * time.Hour

// Background job intervals
const (
	CleanupJobInterval   = 5 * time.Minute
	AttemptSweepInterval = time.Minute
)

// Dialing the Telegram provider can take several round trips
const ProviderDialTimeout = 30 * time.Second

// Rate limits for the linking endpoints, per user per minute
const (
	LinkRequestRateLimit = 5
	LinkVerifyRateLimit  = 10
)

// Default rate limit for the rest of the panel API
const DefaultRateLimitPerMin = 60
