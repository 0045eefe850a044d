// README: Distance resolution value objects.
package distance

// Location is a postal descriptor: a code plus an optional city hint passed to
// the external provider for better geocoding.
type Location struct {
	Postal string
	City   string
}

// Estimate is a resolved driving distance, rounded to whole units.
type Estimate struct {
	DistanceKm  int `json:"distance_km"`
	DurationMin int `json:"duration_min"`
}
