package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dxblabs/metroprice/internal/models"
)

// ErrNoStations is returned when a nearest-station lookup is attempted
// against an empty set.
var ErrNoStations = errors.New("no stations loaded")

// StationSet holds the reference metro stations.
type StationSet struct {
	stations []models.Station
}

// LoadStations reads the station dataset from a CSV file with columns
// name, latitude and longitude. Rows whose coordinates do not parse as
// finite numbers are dropped. A file that yields zero usable rows is an
// error.
func LoadStations(path string) (*StationSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()

	set, err := ReadStations(f)
	if err != nil {
		return nil, fmt.Errorf("read stations %s: %w", path, err)
	}
	return set, nil
}

// ReadStations parses station CSV data from r.
func ReadStations(r io.Reader) (*StationSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	nameIdx, latIdx, lonIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameIdx = i
		case "latitude":
			latIdx = i
		case "longitude":
			lonIdx = i
		}
	}
	if nameIdx < 0 || latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("missing required columns, got header %v", header)
	}

	var stations []models.Station
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) <= nameIdx || len(record) <= latIdx || len(record) <= lonIdx {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record[lonIdx]), 64)
		if latErr != nil || lonErr != nil {
			continue // non-numeric coordinates are dropped, matching the dataset contract
		}
		if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
			continue
		}

		stations = append(stations, models.Station{
			Name:      strings.TrimSpace(record[nameIdx]),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	if len(stations) == 0 {
		return nil, errors.New("no usable station rows")
	}

	return &StationSet{stations: stations}, nil
}

// Len returns the number of loaded stations.
func (s *StationSet) Len() int {
	return len(s.stations)
}

// Stations returns the loaded stations in dataset order.
func (s *StationSet) Stations() []models.Station {
	return s.stations
}

// Nearest returns the station closest to the given coordinate and its
// distance in km. Ties keep the first station in dataset order.
func (s *StationSet) Nearest(lat, lon float64) (models.Station, float64, error) {
	if len(s.stations) == 0 {
		return models.Station{}, 0, ErrNoStations
	}

	best := s.stations[0]
	bestDist := Distance(lat, lon, best.Latitude, best.Longitude)
	for _, st := range s.stations[1:] {
		if d := Distance(lat, lon, st.Latitude, st.Longitude); d < bestDist {
			best = st
			bestDist = d
		}
	}
	return best, bestDist, nil
}
