package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/database"
)

var _ database.SessionRepository = (*SessionRepo)(nil)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// SaveSession writes the finished session and its geofence log in one
// transaction.
func (r *SessionRepo) SaveSession(ctx context.Context, snap *domain.SessionSnapshot, events []domain.GeofenceEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tracking_sessions (id, farm_id, user_id, started_at, ended_at, total_distance_meters, location_count, average_accuracy, visited_zone_ids) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.FarmID, snap.UserID, snap.StartedAt, snap.EndedAt,
		snap.TotalDistanceMeters, snap.LocationCount, snap.AverageAccuracy, pq.Array(snap.VisitedZoneIDs),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, ev := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO geofence_events (session_id, zone_id, event_type, latitude, longitude, accuracy, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ev.SessionID, ev.ZoneID, string(ev.Type), ev.Fix.Lat, ev.Fix.Lon, ev.Fix.Accuracy, ev.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert geofence event: %w", err)
		}
	}

	return tx.Commit()
}
