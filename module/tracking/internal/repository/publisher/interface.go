package publisher

import (
	"context"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

type EventPublisher interface {
	PublishGeofenceEvent(ctx context.Context, ev *domain.GeofenceEvent) error
	PublishSessionSnapshot(ctx context.Context, snap *domain.SessionSnapshot) error
}
