package domain

import (
	"time"

	"bowling-tracker/internal/rating"
)

// DefaultStartingMMR is assigned to newly registered players.
const DefaultStartingMMR = 8000.0

type Player struct {
	ID              int64
	Name            string
	CurrentMMR      float64
	Division        int // 1 or 2
	UnexcusedMisses int
	RankName        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Season struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	ID          int64
	SeasonID    int64
	SessionDate time.Time
	IsActive    bool // latched on reaching the Game-1 activation threshold
	IsRevealed  bool
	// AutoRevealNotified latches the one-shot "ready for reveal" notification.
	AutoRevealNotified bool
	// EventMultiplier is stored per session as a weighting extension point.
	// It is not applied in the rating math.
	EventMultiplier float64
	CreatedAt       time.Time
	RevealedAt      *time.Time
}

type CheckIn struct {
	ID           int64
	SessionID    int64
	PlayerID     int64
	HasSubmitted bool
	CheckedInAt  time.Time
}

type Score struct {
	ID         int64
	PlayerID   int64
	SessionID  int64
	GameNumber int // 1 or 2
	Score      int // 0..300
	// MMR snapshot fields hold neutral placeholders until reveal overwrites
	// them atomically.
	MMRBefore    float64
	MMRAfter     float64
	MMRChange    float64
	BonusApplied float64
	CreatedAt    time.Time
}

type SeasonStats struct {
	ID            int64
	PlayerID      int64
	SeasonID      int64
	GamesPlayed   int
	TotalPins     int
	SeasonAverage float64
	HighestGame   int
	HighestSeries int
	StartingMMR   float64
	PeakMMR       float64
}

// RatingHistory is one audit row per player per reveal.
type RatingHistory struct {
	ID           string // nanoid
	PlayerID     int64
	SessionID    int64
	Series       int
	MMRChange    int
	EloChange    int
	BonusMMR     int
	DecayApplied int
	MMRAfter     float64
	RankName     string
	RevealedAt   time.Time
}

// BonusRule is one independently toggleable score-threshold rule as stored.
type BonusRule struct {
	ID        int64
	Name      string
	Amount    float64
	Threshold *int // nil or non-numeric source values are skipped at load
	IsActive  bool
}

// Settings is the typed config snapshot consumed by a reveal. It is loaded
// fresh at the start of each reveal rather than cached per process.
type Settings struct {
	KFactor             int
	DecayAmount         int
	DecayThreshold      int
	ActivationThreshold int
	Bonus               rating.BonusConfig
	Tiers               []rating.RankTier
}

// SessionStatus is the lifecycle summary reported to callers.
type SessionStatus struct {
	SessionID          int64
	SessionDate        time.Time
	IsActive           bool
	IsRevealed         bool
	CheckedIn          int
	Game1Submissions   int
	PlayersComplete    int
	ReadyForActivation bool
	ReadyForReveal     bool
}
