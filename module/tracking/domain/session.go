package domain

import "time"

// SessionSnapshot is an immutable copy of a tracking session.
type SessionSnapshot struct {
	ID                  string     `json:"id"`
	FarmID              string     `json:"farm_id"`
	UserID              string     `json:"user_id"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	IsActive            bool       `json:"is_active"`
	TotalDistanceMeters float64    `json:"total_distance_meters"`
	LocationCount       int        `json:"location_count"`
	VisitedZoneIDs      []string   `json:"visited_zone_ids"`
	AverageAccuracy     float64    `json:"average_accuracy"`
}

// TrackingState is what the coordinator reports through CurrentState.
type TrackingState struct {
	Fix             *PositionFix      `json:"fix,omitempty"`
	Session         *SessionSnapshot  `json:"session,omitempty"`
	CurrentZoneID   string            `json:"current_zone_id,omitempty"`
	Nearby          []ProximityResult `json:"nearby"`
	SourceAvailable bool              `json:"source_available"`
	CaptureSamples  *int              `json:"capture_samples,omitempty"`
}
