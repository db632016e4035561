package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fortuna/matchday/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
	logger  zerolog.Logger
}

// Streamer serves the live resolution feed.
type Streamer interface {
	HandleResolutions(w http.ResponseWriter, r *http.Request)
}

// NewServer creates a new REST API server. rec and stream may be nil.
func NewServer(port string, handler *Handler, rec *metrics.Recorder, stream Streamer, logger zerolog.Logger) *Server {
	router := mux.NewRouter()

	router.Use(RequestID(logger))
	router.Use(RecoveryMiddleware)
	if rec != nil {
		router.Use(Metrics(rec))
	}

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if rec != nil {
		router.Handle("/metrics", rec.Handler()).Methods("GET")
	}
	if stream != nil {
		router.HandleFunc("/ws/resolutions", stream.HandleResolutions).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Fixtures
	api.HandleFunc("/fixtures/resolve", handler.ResolveFixture).Methods("POST")
	api.HandleFunc("/fixtures/batch", handler.ResolveBatch).Methods("POST")
	api.HandleFunc("/fixtures/upcoming", handler.GetUpcoming).Methods("GET")

	// Logos
	api.HandleFunc("/logos/{team}", handler.GetLogo).Methods("GET")

	// History
	api.HandleFunc("/resolutions/recent", handler.GetRecentResolutions).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return &Server{
		port:    port,
		handler: handler,
		logger:  logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: c.Handler(router),
		},
	}
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
