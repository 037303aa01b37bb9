package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionAlreadyActive      = errors.New("tracking session already active")
	ErrSessionNotActive          = errors.New("no active tracking session")
	ErrInvalidZone               = errors.New("invalid zone")
	ErrInvalidFix                = errors.New("invalid position fix")
	ErrInsufficientSignal        = errors.New("insufficient signal: no fix passed the accuracy ceiling")
	ErrPositionSourceUnavailable = errors.New("position source unavailable")
	ErrCaptureInProgress         = errors.New("position capture already in progress")
	ErrCaptureCancelled          = errors.New("position capture cancelled")
	ErrNoCapture                 = errors.New("no position capture in progress")
)

type InvalidZoneError struct {
	ZoneID   string
	Vertices int
}

func (e *InvalidZoneError) Error() string {
	return fmt.Sprintf("zone %q: need at least 3 distinct vertices, got %d", e.ZoneID, e.Vertices)
}

func (e *InvalidZoneError) Unwrap() error {
	return ErrInvalidZone
}
