package domain

// Candidate is a point of interest (tree, photo spot, marker) loaded from the
// entity store. Location is nil when the entity was never geotagged.
type Candidate struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *GeoPoint `json:"location,omitempty"`
}

type ProximityResult struct {
	EntityID       string  `json:"entity_id"`
	DistanceMeters float64 `json:"distance_meters"`
}
