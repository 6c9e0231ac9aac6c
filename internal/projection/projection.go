package projection

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dxblabs/metroprice/internal/geo"
	"github.com/dxblabs/metroprice/internal/models"
)

// YearSpan is how many consecutive years one projection covers, starting
// at the current calendar year.
const YearSpan = 4

// Predictor is the inference side of the pipeline.
type Predictor interface {
	Predict(row models.FeatureRow) (float64, error)
}

// BuildFeatureRow assembles the model input for one query/station/year.
func BuildFeatureRow(q models.Query, st models.Station, year int) models.FeatureRow {
	return models.FeatureRow{
		AreaName:       st.Name,
		Rooms:          q.Rooms,
		Latitude:       q.Latitude,
		Longitude:      q.Longitude,
		MetroLatitude:  st.Latitude,
		MetroLongitude: st.Longitude,
		Year:           year,
	}
}

// Projector drives the inference pipeline across the year window.
type Projector struct {
	stations *geo.StationSet
	model    Predictor
	now      func() time.Time
}

func New(stations *geo.StationSet, model Predictor) *Projector {
	return &Projector{stations: stations, model: model, now: time.Now}
}

// Project resolves the nearest station once, runs the model for each
// year in the window and derives the chart range. Any failure aborts the
// whole projection; there are no partial results.
func (p *Projector) Project(q models.Query) (*models.Projection, error) {
	st, dist, err := p.stations.Nearest(q.Latitude, q.Longitude)
	if err != nil {
		return nil, fmt.Errorf("nearest station: %w", err)
	}

	startYear := p.now().Year()
	proj := &models.Projection{
		Labels:     make([]string, 0, YearSpan),
		Values:     make([]float64, 0, YearSpan),
		Station:    st.Name,
		DistanceKM: dist,
	}

	for year := startYear; year < startYear+YearSpan; year++ {
		row := BuildFeatureRow(q, st, year)
		v, err := p.model.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("predict year %d: %w", year, err)
		}
		proj.Labels = append(proj.Labels, strconv.Itoa(year))
		proj.Values = append(proj.Values, v)
	}

	yMin, yMax, err := ChartRange(proj.Values)
	if err != nil {
		return nil, fmt.Errorf("chart range: %w", err)
	}
	proj.YMin = yMin
	proj.YMax = yMax

	return proj, nil
}
