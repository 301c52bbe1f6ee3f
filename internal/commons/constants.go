package commons

import "time"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	DefaultProbeTimeoutSeconds = 3
	DefaultRateLimitPerMinute  = 120
	DefaultNATSSubject         = "logpulse"
	DefaultKafkaTopic          = "logpulse.logs"

	NotificationTimeout = 15 * time.Second
	MaxIngestBodyBytes  = 1 << 20
	MaxRequestBodyBytes = 256 << 10
	MaxQueryResults     = 10000

	ServerIdleTimeout  = time.Minute
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 10 * time.Second

	HousekeepingSchedule = "@every 1m"
)
