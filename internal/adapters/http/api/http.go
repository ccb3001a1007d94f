// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	CreateWorker(ctx context.Context, name string) (model.Worker, bool, error)
	ListRatings(ctx context.Context, workerID int64) ([]model.RatingRecord, error)
	CreateRating(ctx context.Context, in service.NewRating) (model.RatingRecord, error)

	ListProfiles(ctx context.Context) ([]model.WorkerProfile, error)
	Profile(ctx context.Context, id int64) (service.ProfileDetail, error)
	History(ctx context.Context, id int64, category string) (service.CategoryHistory, error)
	SubmitRating(ctx context.Context, r model.Rating) (model.WorkerProfile, bool, error)
	ResetProfiles(ctx context.Context) error

	Settings() service.Settings
	UpdateSettings(ctx context.Context, next service.Settings) (service.Settings, error)
	Stats(ctx context.Context) (service.Stats, error)
}

const defaultMaxBodyBytes = 1 << 20

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	workersHandler  *WorkersHandler
	profilesHandler *ProfilesHandler
	settingsHandler *SettingsHandler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies. Zero or less disables the cap.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps, s.logger)
	s.workersHandler = NewWorkersHandler(deps, s.logger)
	s.profilesHandler = NewProfilesHandler(deps, s.logger)
	s.settingsHandler = NewSettingsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(MaxBodyMiddleware(h, s.maxBodyBytes), endpoint)))
	}

	route("GET /api/health", "health", s.healthHandler.HandleHealth)
	route("GET /api/stats", "stats", s.statsHandler.HandleStats)
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	route("GET /api/workers", "workers", s.workersHandler.HandleList)
	route("POST /api/workers", "workers", s.workersHandler.HandleCreate)
	route("GET /api/workers/{id}/ratings", "worker_ratings", s.workersHandler.HandleListRatings)
	route("POST /api/ratings", "ratings", s.workersHandler.HandleCreateRating)

	route("GET /api/profiles", "profiles", s.profilesHandler.HandleList)
	route("POST /api/profiles", "profiles", s.profilesHandler.HandleSubmit)
	route("DELETE /api/profiles", "profiles", s.profilesHandler.HandleReset)
	route("GET /api/profiles/{id}", "profile", s.profilesHandler.HandleGet)
	route("GET /api/profiles/{id}/history/{category}", "profile_history", s.profilesHandler.HandleHistory)

	route("GET /api/admin/settings", "settings", s.settingsHandler.HandleGet)
	route("PUT /api/admin/settings", "settings", s.settingsHandler.HandleUpdate)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrWorkerNotFound), errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// responder writes error responses and logs server-side failures.
type responder struct {
	log logger.Logger
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		rs.log.Error(r.Context(), "request failed",
			logger.String("op", opOf(err)),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeBody reads a JSON request body into v.
func decodeBody(op string, r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewKind(op, ErrPayloadTooLarge)
		}
		return WrapKind(op, ErrBadRequest, errors.New("request body must be valid JSON"))
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(op string, r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("id must be a positive integer"))
	}
	return id, nil
}

// dateLayouts are the accepted request date formats, tried in order.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", time.DateOnly}

// parseDate parses a request date. Blank input yields the zero time.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
