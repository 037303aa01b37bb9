package service

import (
	"time"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/geo"
)

const DefaultDistanceAccuracyCeiling = 50.0

// Session aggregates statistics for one start/stop tracking run. It is not
// safe for concurrent use; the coordinator serializes access.
type Session struct {
	id        string
	farmID    string
	userID    string
	startedAt time.Time
	endedAt   *time.Time

	accuracyCeiling float64

	totalDistance   float64
	locationCount   int
	averageAccuracy float64
	visited         []string
	visitedSet      map[string]struct{}

	// anchor is the last fix within the accuracy ceiling; distance is only
	// ever measured between trusted fixes.
	anchor *domain.PositionFix
}

func NewSession(id, userID, farmID string, startedAt time.Time, accuracyCeiling float64) *Session {
	if accuracyCeiling <= 0 {
		accuracyCeiling = DefaultDistanceAccuracyCeiling
	}
	return &Session{
		id:              id,
		farmID:          farmID,
		userID:          userID,
		startedAt:       startedAt,
		accuracyCeiling: accuracyCeiling,
		visitedSet:      map[string]struct{}{},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Active() bool { return s.endedAt == nil }

// Record folds an accepted fix into the statistics. Fixes worse than the
// accuracy ceiling are counted but never move the odometer. Distance runs from
// the last fix within the ceiling, not from the immediately previous fix, so a
// noisy fix in between neither adds nor anchors distance.
func (s *Session) Record(fix domain.PositionFix) {
	if !s.Active() {
		return
	}

	s.locationCount++
	s.averageAccuracy += (fix.Accuracy - s.averageAccuracy) / float64(s.locationCount)

	if fix.Accuracy > s.accuracyCeiling {
		return
	}
	if s.anchor != nil {
		s.totalDistance += geo.Distance(s.anchor.Point(), fix.Point())
	}
	f := fix
	s.anchor = &f
}

func (s *Session) MarkVisited(zoneID string) {
	if !s.Active() || zoneID == "" {
		return
	}
	if _, ok := s.visitedSet[zoneID]; ok {
		return
	}
	s.visitedSet[zoneID] = struct{}{}
	s.visited = append(s.visited, zoneID)
}

// Stop finalizes the session. Calling it again returns the same snapshot.
func (s *Session) Stop(at time.Time) domain.SessionSnapshot {
	if s.Active() {
		t := at
		s.endedAt = &t
	}
	return s.Snapshot()
}

func (s *Session) Snapshot() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		ID:                  s.id,
		FarmID:              s.farmID,
		UserID:              s.userID,
		StartedAt:           s.startedAt,
		IsActive:            s.Active(),
		TotalDistanceMeters: s.totalDistance,
		LocationCount:       s.locationCount,
		VisitedZoneIDs:      append([]string{}, s.visited...),
		AverageAccuracy:     s.averageAccuracy,
	}
	if s.endedAt != nil {
		t := *s.endedAt
		snap.EndedAt = &t
	}
	return snap
}
