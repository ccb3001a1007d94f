package api

import (
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/pkg/logger"
)

// ProfilesHandler serves worker profiles.
type ProfilesHandler struct {
	deps Dependencies
	responder
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps Dependencies, log logger.Logger) *ProfilesHandler {
	return &ProfilesHandler{deps: deps, responder: responder{log: log}}
}

// submitRequest mirrors the body of POST /api/profiles.
type submitRequest struct {
	WorkerName string          `json:"workerName"`
	Category   string          `json:"category"`
	Score      json.RawMessage `json:"score"`
	Reviewer   string          `json:"reviewer"`
	Note       string          `json:"note"`
	RatedAt    string          `json:"ratedAt"`
}

func (req submitRequest) toRating() (model.Rating, error) {
	if len(req.Score) == 0 {
		return model.Rating{}, service.Invalid("score", "is required")
	}
	score, ok := profile.ParseScore(req.Score)
	if !ok {
		return model.Rating{}, service.Invalid("score", "must be a number")
	}
	ratedAt, ok := parseDate(req.RatedAt)
	if !ok {
		return model.Rating{}, service.Invalid("ratedAt", "must be YYYY-MM-DD or RFC3339")
	}
	return model.Rating{
		WorkerName: req.WorkerName,
		Category:   req.Category,
		Score:      score,
		Reviewer:   req.Reviewer,
		Note:       req.Note,
		RatedAt:    ratedAt,
	}, nil
}

// HandleList handles GET /api/profiles.
func (h *ProfilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_profiles"
	profiles, err := h.deps.ListProfiles(r.Context())
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleSubmit handles POST /api/profiles. It answers 201 when the rating
// created the profile and 200 otherwise.
func (h *ProfilesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_rating"
	var req submitRequest
	if err := decodeBody(op, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rating, err := req.toRating()
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	p, created, err := h.deps.SubmitRating(r.Context(), rating)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, p)
}

// HandleGet handles GET /api/profiles/{id}.
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	id, err := pathID(op, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleHistory handles GET /api/profiles/{id}/history/{category}.
func (h *ProfilesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.profile_history"
	id, err := pathID(op, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cat := strings.TrimSpace(r.PathValue("category"))
	if cat == "" {
		h.fail(w, r, WrapKind(op, ErrBadRequest, errNoCategory))
		return
	}
	hist, err := h.deps.History(r.Context(), id, cat)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleReset handles DELETE /api/profiles.
func (h *ProfilesHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_profiles"
	if err := h.deps.ResetProfiles(r.Context()); err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
