package domain

import "time"

type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
	GeofenceDwell GeofenceEventType = "dwell"
)

type GeofenceEvent struct {
	SessionID string            `json:"session_id"`
	ZoneID    string            `json:"zone_id"`
	Type      GeofenceEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Fix       PositionFix       `json:"fix"`
}
