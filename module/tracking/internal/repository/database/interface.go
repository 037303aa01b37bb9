package database

import (
	"context"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

// EntityStore is the read-only view of the farm document store.
type EntityStore interface {
	LoadZones(ctx context.Context, farmID string) ([]domain.Zone, error)
	LoadNearbyCandidates(ctx context.Context, farmID string) ([]domain.Candidate, error)
}

type SessionRepository interface {
	SaveSession(ctx context.Context, snap *domain.SessionSnapshot, events []domain.GeofenceEvent) error
}
