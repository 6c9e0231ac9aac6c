package api

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dxblabs/metroprice/internal/ensemble"
	"github.com/dxblabs/metroprice/internal/export"
	"github.com/dxblabs/metroprice/internal/metrics"
	"github.com/dxblabs/metroprice/internal/models"
)

// Form defaults, matching the original application.
const (
	defaultLatitude  = 25.2048
	defaultLongitude = 55.2708
	defaultRooms     = 1
)

// FormData echoes the submitted form values back into the page.
type FormData struct {
	Latitude  string
	Longitude string
	Rooms     string
}

func defaultForm() FormData {
	return FormData{
		Latitude:  strconv.FormatFloat(defaultLatitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(defaultLongitude, 'f', -1, 64),
		Rooms:     strconv.Itoa(defaultRooms),
	}
}

// PricePoint is one year/price row for the result table.
type PricePoint struct {
	Label string
	Price string
}

// IndexData feeds the index template.
type IndexData struct {
	Form          FormData
	Projection    *models.Projection
	ProjectionJS  template.JS // chart payload, inserted verbatim into the page script
	ProjectionRaw string      // same JSON for the download form's hidden field
	Prices        []PricePoint
	Error         string
}

// parseQuery builds a Query from request values, applying defaults for
// absent fields.
func parseQuery(get func(string) string) (models.Query, error) {
	q := models.Query{
		Latitude:  defaultLatitude,
		Longitude: defaultLongitude,
		Rooms:     defaultRooms,
	}

	if s := get("latitude"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("invalid latitude %q", s)
		}
		q.Latitude = v
	}
	if s := get("longitude"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("invalid longitude %q", s)
		}
		q.Longitude = v
	}
	if s := get("rooms"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid rooms %q", s)
		}
		q.Rooms = v
	}
	if q.Rooms < 1 {
		return q, fmt.Errorf("rooms must be at least 1, got %d", q.Rooms)
	}

	return q, nil
}

// project runs one projection with metrics and optional history
// recording.
func (s *Server) project(q models.Query) (*models.Projection, error) {
	start := time.Now()
	proj, err := s.projector.Project(q)
	metrics.ProjectionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProjectionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ProjectionsTotal.WithLabelValues("ok").Inc()

	if s.history != nil {
		startYear, _ := strconv.Atoi(proj.Labels[0])
		rec := models.ProjectionRecord{
			RequestedAt: time.Now(),
			Latitude:    q.Latitude,
			Longitude:   q.Longitude,
			Rooms:       q.Rooms,
			Station:     proj.Station,
			DistanceKM:  proj.DistanceKM,
			StartYear:   startYear,
			Values:      proj.Values,
		}
		if err := s.history.InsertProjection(rec); err != nil {
			log.Printf("api: record projection: %v", err)
		}
	}

	return proj, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := IndexData{Form: defaultForm()}

	if r.Method == http.MethodPost {
		data.Form = FormData{
			Latitude:  r.FormValue("latitude"),
			Longitude: r.FormValue("longitude"),
			Rooms:     r.FormValue("rooms"),
		}

		q, err := parseQuery(r.FormValue)
		if err != nil {
			data.Error = err.Error()
			s.tmpl.render(w, "index.html", data)
			return
		}

		proj, err := s.project(q)
		if err != nil {
			data.Error = err.Error()
			s.tmpl.render(w, "index.html", data)
			return
		}

		payload, err := json.Marshal(proj)
		if err != nil {
			data.Error = err.Error()
			s.tmpl.render(w, "index.html", data)
			return
		}

		data.Projection = proj
		data.ProjectionJS = template.JS(payload)
		data.ProjectionRaw = string(payload)
		for i, label := range proj.Labels {
			data.Prices = append(data.Prices, PricePoint{
				Label: label,
				Price: ensemble.FormatAED(proj.Values[i]),
			})
		}
	}

	s.tmpl.render(w, "index.html", data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := export.ParsePayload(r.FormValue("projection_data"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="price_projection.xlsx"`)
	if err := export.WriteXLSX(w, payload); err != nil {
		log.Printf("api: write export: %v", err)
		return
	}
	metrics.ExportsTotal.Inc()
}

// HistoryRow is one past projection rendered on the history page.
type HistoryRow struct {
	When       string
	Latitude   float64
	Longitude  float64
	Rooms      int
	Station    string
	DistanceKM float64
	Years      string
	FirstPrice string
	LastPrice  string
}

// HistoryData feeds the history template.
type HistoryData struct {
	Disabled bool
	Rows     []HistoryRow
}

const historyPageLimit = 50

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	data := HistoryData{}

	if s.history == nil {
		data.Disabled = true
		s.tmpl.render(w, "history.html", data)
		return
	}

	records, err := s.history.RecentProjections(historyPageLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, rec := range records {
		row := HistoryRow{
			When:       rec.RequestedAt.UTC().Format("2006-01-02 15:04"),
			Latitude:   rec.Latitude,
			Longitude:  rec.Longitude,
			Rooms:      rec.Rooms,
			Station:    rec.Station,
			DistanceKM: rec.DistanceKM,
			Years:      fmt.Sprintf("%d-%d", rec.StartYear, rec.StartYear+len(rec.Values)-1),
		}
		if len(rec.Values) > 0 {
			row.FirstPrice = ensemble.FormatAED(rec.Values[0])
			row.LastPrice = ensemble.FormatAED(rec.Values[len(rec.Values)-1])
		}
		data.Rows = append(data.Rows, row)
	}

	s.tmpl.render(w, "history.html", data)
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIProjection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	q, err := parseQuery(func(key string) string {
		return r.URL.Query().Get(key)
	})
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiError{Error: err.Error()})
		return
	}

	proj, err := s.project(q)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(apiError{Error: err.Error()})
		return
	}

	json.NewEncoder(w).Encode(proj)
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status      string `json:"status"`
	Stations    int    `json:"stations"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelError  string `json:"model_error,omitempty"`
	History     bool   `json:"history"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:   "ok",
		Stations: s.stations.Len(),
		History:  s.history != nil,
	}

	if err := s.model.Ready(); err != nil {
		health.Status = "degraded"
		health.ModelError = err.Error()
	} else {
		health.ModelLoaded = true
	}
	if health.Stations == 0 {
		health.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("health: write response: %v", err)
	}
}
