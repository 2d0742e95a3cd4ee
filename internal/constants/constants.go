package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	WebhookTimeout  = 10 * time.Second
	ShutdownTimeout = 5 * time.Second

	// CorrectionTimeout is how long a pending admin score correction stays
	// confirmable before it is discarded.
	CorrectionTimeout = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 1 // sqlite allows a single writer
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

// Defaults used when the config table has no row for a key.
const (
	DefaultKFactor             = 50
	DefaultDecayAmount         = 200
	DefaultDecayThreshold      = 4
	DefaultActivationThreshold = 3
)

const (
	LeaderboardLimit   = 25
	HistoryDefaultSize = 10
)
