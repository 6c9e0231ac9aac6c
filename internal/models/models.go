package models

import "time"

// Station is one metro station from the reference dataset. The set is
// loaded once at startup and never mutated afterwards.
type Station struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query is a single price projection request.
type Query struct {
	Latitude  float64
	Longitude float64
	Rooms     int
}

// FeatureRow is the input for one inference call: the user coordinate,
// the nearest station, the room count and the year being projected.
type FeatureRow struct {
	AreaName       string
	Rooms          int
	Latitude       float64
	Longitude      float64
	MetroLatitude  float64
	MetroLongitude float64
	Year           int
}

// Features returns the numeric columns keyed by the names the model
// artifacts were trained with. AreaName is display-only and is not a
// model input.
func (r FeatureRow) Features() map[string]float64 {
	return map[string]float64{
		"rooms_en":        float64(r.Rooms),
		"latitude":        r.Latitude,
		"longitude":       r.Longitude,
		"latitude_metro":  r.MetroLatitude,
		"longitude_metro": r.MetroLongitude,
		"year":            float64(r.Year),
	}
}

// Projection is the chart-ready output for one query. Labels and Values
// are index-aligned, one entry per projected year.
type Projection struct {
	Labels     []string  `json:"labels"`
	Values     []float64 `json:"values"`
	YMin       float64   `json:"y_min"`
	YMax       float64   `json:"y_max"`
	Station    string    `json:"station"`
	DistanceKM float64   `json:"distance_km"`
}

// ProjectionRecord is one served projection as persisted to the history
// store.
type ProjectionRecord struct {
	ID          int64
	RequestedAt time.Time
	Latitude    float64
	Longitude   float64
	Rooms       int
	Station     string
	DistanceKM  float64
	StartYear   int
	Values      []float64
}
