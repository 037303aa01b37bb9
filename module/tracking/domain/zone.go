package domain

type Zone struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Boundary []GeoPoint `json:"boundary"`
}

// ZoneSummary is what a map layer needs to label a zone.
type ZoneSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Centroid GeoPoint `json:"centroid"`
}

// Validate requires at least three distinct vertices.
func (z Zone) Validate() error {
	seen := make(map[GeoPoint]struct{}, len(z.Boundary))
	for _, p := range z.Boundary {
		seen[p] = struct{}{}
	}
	if len(seen) < 3 {
		return &InvalidZoneError{ZoneID: z.ID, Vertices: len(seen)}
	}
	return nil
}

// Ring returns the boundary closed by repeating the first vertex when needed.
func (z Zone) Ring() []GeoPoint {
	n := len(z.Boundary)
	if n == 0 {
		return nil
	}
	ring := make([]GeoPoint, n, n+1)
	copy(ring, z.Boundary)
	if ring[0] != ring[n-1] {
		ring = append(ring, ring[0])
	}
	return ring
}
