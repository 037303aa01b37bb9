package service

import (
	"testing"
	"time"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/geo"
)

func candidateAt(id string, north, east float64) domain.Candidate {
	p := geo.OffsetMeters(farmOrigin, north, east)
	return domain.Candidate{ID: id, Location: &p}
}

func TestProximityQuery_RadiusBoundary(t *testing.T) {
	x := NewProximityIndex(0)
	fix := fixAt(farmOrigin, 5, time.Unix(1715003456, 0))

	results := x.Query(fix, []domain.Candidate{
		candidateAt("tree-29", 29, 0),
		candidateAt("tree-31", 31, 0),
	}, 30)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d: %v", len(results), results)
	}
	if results[0].EntityID != "tree-29" {
		t.Errorf("expected tree-29, got %s", results[0].EntityID)
	}
	if results[0].DistanceMeters < 28.99 || results[0].DistanceMeters > 29.01 {
		t.Errorf("expected ~29m, got %f", results[0].DistanceMeters)
	}
}

func TestProximityQuery_SortedAndFiltered(t *testing.T) {
	x := NewProximityIndex(0)
	fix := fixAt(farmOrigin, 5, time.Unix(1715003456, 0))

	results := x.Query(fix, []domain.Candidate{
		candidateAt("far", 0, 25),
		{ID: "untagged"},
		candidateAt("near", 3, 0),
		candidateAt("mid", -10, 0),
	}, 30)

	want := []string{"near", "mid", "far"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %v", len(want), results)
	}
	for i, id := range want {
		if results[i].EntityID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, results[i].EntityID)
		}
	}
}

func TestProximityQuery_Limit(t *testing.T) {
	x := NewProximityIndex(2)
	fix := fixAt(farmOrigin, 5, time.Unix(1715003456, 0))

	results := x.Query(fix, []domain.Candidate{
		candidateAt("c", 20, 0),
		candidateAt("a", 5, 0),
		candidateAt("b", 10, 0),
	}, 30)

	if len(results) != 2 || results[0].EntityID != "a" || results[1].EntityID != "b" {
		t.Fatalf("expected [a b], got %v", results)
	}
}

func TestProximityQuery_Empty(t *testing.T) {
	x := NewProximityIndex(0)
	results := x.Query(fixAt(farmOrigin, 5, time.Unix(0, 0)), nil, 30)
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", results)
	}
}
