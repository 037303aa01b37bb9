package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// PositionFix is one sample reported by the device location provider.
// Accuracy is the horizontal accuracy radius in meters.
type PositionFix struct {
	Lat       float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Lon       float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64   `json:"accuracy" validate:"gte=0"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Heading   *float64  `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Speed     *float64  `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Timestamp time.Time `json:"timestamp"`
}

func (f PositionFix) Point() GeoPoint {
	return GeoPoint{Lat: f.Lat, Lon: f.Lon}
}

func (f PositionFix) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFix, err)
	}
	if f.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp required", ErrInvalidFix)
	}
	return nil
}

// PositionSource delivers fixes in timestamp order. onErr is called when the
// source loses its upstream (wrapping ErrPositionSourceUnavailable).
type PositionSource interface {
	Subscribe(onFix func(PositionFix), onErr func(error)) (unsubscribe func())
}
