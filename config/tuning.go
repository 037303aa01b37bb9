package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Tuning holds the engine thresholds. Every field has a default, so an empty
// or missing TUNING_FILE yields a working configuration.
type Tuning struct {
	Session   SessionTuning   `yaml:"session"`
	Proximity ProximityTuning `yaml:"proximity"`
	Geofence  GeofenceTuning  `yaml:"geofence"`
	Capture   CaptureTuning   `yaml:"capture"`
	Persister PersisterTuning `yaml:"persister"`
}

type SessionTuning struct {
	DistanceAccuracyCeiling float64 `yaml:"distance_accuracy_ceiling" validate:"gt=0"`
}

type ProximityTuning struct {
	RadiusMeters float64 `yaml:"radius_meters" validate:"gt=0"`
	Limit        int     `yaml:"limit" validate:"gte=0"`
}

type GeofenceTuning struct {
	ConfirmFixes  int           `yaml:"confirm_fixes" validate:"gte=1,lte=20"`
	Dwell         bool          `yaml:"dwell"`
	DwellAfter    time.Duration `yaml:"dwell_after" validate:"gte=0s"`
	DwellInterval time.Duration `yaml:"dwell_interval" validate:"gte=0s"`
}

type CaptureTuning struct {
	TargetSamples   int           `yaml:"target_samples" validate:"gte=1,lte=100"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=1s"`
	AccuracyCeiling float64       `yaml:"accuracy_ceiling" validate:"gt=0"`
}

type PersisterTuning struct {
	Buffer int `yaml:"buffer" validate:"gte=1"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Session:   SessionTuning{DistanceAccuracyCeiling: 50},
		Proximity: ProximityTuning{RadiusMeters: 30},
		Geofence: GeofenceTuning{
			ConfirmFixes:  1,
			DwellAfter:    5 * time.Minute,
			DwellInterval: 5 * time.Minute,
		},
		Capture: CaptureTuning{
			TargetSamples:   10,
			Timeout:         60 * time.Second,
			AccuracyCeiling: 30,
		},
		Persister: PersisterTuning{Buffer: 256},
	}
}

// LoadTuning overlays the YAML file at path on DefaultTuning and validates
// the result. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning: %w", err)
	}
	if err := validator.New().Struct(t); err != nil {
		return Tuning{}, fmt.Errorf("validate tuning: %w", err)
	}
	return t, nil
}
