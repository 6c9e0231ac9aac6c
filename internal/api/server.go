package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dxblabs/metroprice/internal/geo"
	"github.com/dxblabs/metroprice/internal/models"
	"github.com/dxblabs/metroprice/internal/store"
)

// Projector runs one projection per request.
type Projector interface {
	Project(q models.Query) (*models.Projection, error)
}

// ModelHealth reports whether the inference artifacts are usable.
type ModelHealth interface {
	Ready() error
}

type Server struct {
	projector Projector
	model     ModelHealth
	stations  *geo.StationSet
	history   *store.Store // nil when history is disabled
	port      string
	tmpl      *templateSet
}

// NewServer wires the HTTP boundary. history may be nil to disable the
// history page's persistence.
func NewServer(projector Projector, model ModelHealth, stations *geo.StationSet, history *store.Store, port string) *Server {
	return &Server{
		projector: projector,
		model:     model,
		stations:  stations,
		history:   history,
		port:      port,
		tmpl:      newTemplates(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/projection", s.handleAPIProjection)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
