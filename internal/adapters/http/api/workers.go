package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/pkg/logger"
)

// WorkersHandler serves the worker and rating gateway.
type WorkersHandler struct {
	deps Dependencies
	responder
}

// NewWorkersHandler creates a new workers handler.
func NewWorkersHandler(deps Dependencies, log logger.Logger) *WorkersHandler {
	return &WorkersHandler{deps: deps, responder: responder{log: log}}
}

type workerRequest struct {
	Name string `json:"name"`
}

// ratingRequest mirrors the body of POST /api/ratings. Numeric fields are
// kept raw so that type errors become field-level validation errors.
type ratingRequest struct {
	WorkerID     json.RawMessage `json:"workerId"`
	Date         string          `json:"date"`
	JobCategory  string          `json:"jobCategory"`
	OverallScore json.RawMessage `json:"overallScore"`
	Flags        model.Flags     `json:"flags"`
	Reviewer     string          `json:"reviewer"`
	Notes        string          `json:"notes"`
}

func (req ratingRequest) toRating() (service.NewRating, error) {
	if absent(req.WorkerID) {
		return service.NewRating{}, service.Invalid("workerId", "is required")
	}
	id, ok := parseWorkerID(req.WorkerID)
	if !ok {
		return service.NewRating{}, service.Invalid("workerId", "must be a positive integer")
	}
	if strings.TrimSpace(req.JobCategory) == "" {
		return service.NewRating{}, service.Invalid("jobCategory", "is required")
	}
	if absent(req.OverallScore) {
		return service.NewRating{}, service.Invalid("overallScore", "is required")
	}
	score, ok := profile.ParseScore(req.OverallScore)
	if !ok {
		return service.NewRating{}, service.Invalid("overallScore", "must be a number")
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return service.NewRating{}, service.Invalid("date", "must be YYYY-MM-DD or RFC3339")
	}
	return service.NewRating{
		WorkerID:     id,
		Date:         date,
		JobCategory:  req.JobCategory,
		OverallScore: score,
		Flags:        req.Flags,
		Reviewer:     req.Reviewer,
		Notes:        req.Notes,
	}, nil
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseWorkerID accepts a positive integer given as a number or a string.
func parseWorkerID(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleList handles GET /api/workers.
func (h *WorkersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_workers"
	workers, err := h.deps.ListWorkers(r.Context())
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

// HandleCreate handles POST /api/workers. An existing worker with the same
// name is returned with 200; a new one with 201.
func (h *WorkersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_worker"
	var req workerRequest
	if err := decodeBody(op, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	worker, created, err := h.deps.CreateWorker(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, worker)
}

// HandleListRatings handles GET /api/workers/{id}/ratings.
func (h *WorkersHandler) HandleListRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_ratings"
	id, err := pathID(op, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs, err := h.deps.ListRatings(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleCreateRating handles POST /api/ratings.
func (h *WorkersHandler) HandleCreateRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_rating"
	var req ratingRequest
	if err := decodeBody(op, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.toRating()
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	rec, err := h.deps.CreateRating(r.Context(), in)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
