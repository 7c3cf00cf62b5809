// Package api exposes the booking session over HTTP: a JSON API for the
// embedded form page plus export and settings endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"gymbook/internal/booking"
	"gymbook/internal/config"
	"gymbook/internal/schedule"
	"gymbook/internal/settings"
)

// Server wires the session, settings store and config into HTTP handlers.
type Server struct {
	session  *booking.Session
	settings *settings.Store
	cfg      *config.Config
	logger   *zerolog.Logger
	slots    []schedule.Slot
}

// NewServer constructs the HTTP surface.
func NewServer(session *booking.Session, store *settings.Store, cfg *config.Config, logger *zerolog.Logger) *Server {
	return &Server{
		session:  session,
		settings: store,
		cfg:      cfg,
		logger:   logger,
		slots:    schedule.GenerateSlots(cfg.Booking.SlotStartHour, cfg.Booking.SlotEndHour),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/bookings", s.handleListBookings).Methods(http.MethodGet)
	apiRouter.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	apiRouter.HandleFunc("/slots", s.handleSlots).Methods(http.MethodGet)
	apiRouter.HandleFunc("/days", s.handleDays).Methods(http.MethodGet)
	apiRouter.HandleFunc("/machines", s.handleMachines).Methods(http.MethodGet)
	apiRouter.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)
	apiRouter.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings/endpoint", s.handleGetEndpoint).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings/endpoint", s.handleSetEndpoint).Methods(http.MethodPut)

	return r
}

// requestLogger attaches a request-scoped logger with a request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With().
			Str("request_id", uuid.New().String()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
