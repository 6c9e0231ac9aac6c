package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dxblabs/metroprice/internal/models"
)

// Store persists served projections for the history page.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertProjection(rec models.ProjectionRecord) error {
	valuesJSON, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO projections (requested_at, latitude, longitude, rooms, station, distance_km, start_year, values_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RequestedAt.UTC(), rec.Latitude, rec.Longitude, rec.Rooms, rec.Station, rec.DistanceKM, rec.StartYear, string(valuesJSON))
	return err
}

// RecentProjections returns the most recently served projections, newest
// first.
func (s *Store) RecentProjections(limit int) ([]models.ProjectionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, requested_at, latitude, longitude, rooms, station, distance_km, start_year, values_json
		FROM projections
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProjectionRecord
	for rows.Next() {
		var rec models.ProjectionRecord
		var requestedAt time.Time
		var valuesJSON string
		if err := rows.Scan(&rec.ID, &requestedAt, &rec.Latitude, &rec.Longitude, &rec.Rooms, &rec.Station, &rec.DistanceKM, &rec.StartYear, &valuesJSON); err != nil {
			return nil, err
		}
		rec.RequestedAt = requestedAt
		if err := json.Unmarshal([]byte(valuesJSON), &rec.Values); err != nil {
			return nil, fmt.Errorf("unmarshal values for projection %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
