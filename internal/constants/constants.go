package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	// SweepPageSize is how many tracked players are loaded per page while a
	// sweep iterates a period type.
	SweepPageSize = 200

	// FetchRetries is the number of additional attempts after a failed
	// provider call before the player is skipped for the tick.
	FetchRetries = 2

	FetchBackoff = 2 * time.Second

	// ProviderMinSpacing is the default floor between provider requests,
	// enforced globally across the whole sweep worker pool.
	ProviderMinSpacing = 550 * time.Millisecond

	DefaultSweepWorkers  = 4
	DefaultSweepInterval = 1 * time.Hour
)

const (
	ShutdownTimeout = 5 * time.Second
)
