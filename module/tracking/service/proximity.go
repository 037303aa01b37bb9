package service

import (
	"sort"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/geo"
)

const DefaultProximityRadius = 30.0

// ProximityIndex answers "what is near this fix" with a linear scan; the
// candidate lists for a farm are small.
type ProximityIndex struct {
	// Limit keeps only the nearest N results when positive.
	Limit int
}

func NewProximityIndex(limit int) *ProximityIndex {
	return &ProximityIndex{Limit: limit}
}

// Query returns candidates within radiusMeters of fix (inclusive), nearest
// first. Candidates without a location are ignored.
func (x *ProximityIndex) Query(fix domain.PositionFix, candidates []domain.Candidate, radiusMeters float64) []domain.ProximityResult {
	origin := fix.Point()
	results := make([]domain.ProximityResult, 0)
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		d := geo.Distance(origin, *c.Location)
		if d > radiusMeters {
			continue
		}
		results = append(results, domain.ProximityResult{EntityID: c.ID, DistanceMeters: d})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].EntityID < results[j].EntityID
	})

	if x.Limit > 0 && len(results) > x.Limit {
		results = results[:x.Limit]
	}
	return results
}
