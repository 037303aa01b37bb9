package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/database"
)

var _ database.EntityStore = (*EntityRepo)(nil)

// EntityRepo reads zones and geotagged trees for a farm. Zone boundaries are
// stored as two parallel float8[] columns.
type EntityRepo struct {
	db *sql.DB
}

func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{db: db}
}

func (r *EntityRepo) LoadZones(ctx context.Context, farmID string) ([]domain.Zone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, boundary_lats, boundary_lons FROM farm_zones WHERE farm_id = $1 ORDER BY sort_order, id`,
		farmID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var zones []domain.Zone
	for rows.Next() {
		var (
			z          domain.Zone
			lats, lons pq.Float64Array
		)
		if err := rows.Scan(&z.ID, &z.Name, &lats, &lons); err != nil {
			return nil, err
		}
		if len(lats) != len(lons) {
			log.Printf("farm_zones %s: %d latitudes but %d longitudes, skipping", z.ID, len(lats), len(lons))
			continue
		}
		z.Boundary = make([]domain.GeoPoint, len(lats))
		for i := range lats {
			z.Boundary[i] = domain.GeoPoint{Lat: lats[i], Lon: lons[i]}
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *EntityRepo) LoadNearbyCandidates(ctx context.Context, farmID string) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude FROM trees WHERE farm_id = $1 ORDER BY id`,
		farmID,
	)
	if err != nil {
		return nil, fmt.Errorf("query trees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Candidate
	for rows.Next() {
		var (
			c        domain.Candidate
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.Name, &lat, &lon); err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			c.Location = &domain.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
