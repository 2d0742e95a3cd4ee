package service

import "errors"

var (
	ErrSessionExists      = errors.New("an unrevealed session already exists")
	ErrSessionNotActive   = errors.New("session is not active yet")
	ErrNotCheckedIn       = errors.New("player is not checked in")
	ErrBothGamesSubmitted = errors.New("both games already submitted")
	ErrInvalidScore       = errors.New("score must be between 0 and 300")
	ErrInvalidGameNumber  = errors.New("game number must be 1 or 2")
	ErrInvalidDivision    = errors.New("division must be 1 or 2")
	ErrCorrectionNotFound = errors.New("no such pending correction")
	ErrCorrectionExpired  = errors.New("pending correction has expired")
)
