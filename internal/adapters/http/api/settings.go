package api

import (
	"net/http"

	"github.com/okian/crewrate/pkg/logger"
)

// SettingsHandler serves the live settings.
type SettingsHandler struct {
	deps Dependencies
	responder
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps Dependencies, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{deps: deps, responder: responder{log: log}}
}

// HandleGet handles GET /api/admin/settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Settings())
}

// HandleUpdate handles PUT /api/admin/settings. Fields left out of the body
// keep their current values.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_settings"
	next := h.deps.Settings()
	if err := decodeBody(op, r, &next); err != nil {
		h.fail(w, r, err)
		return
	}
	applied, err := h.deps.UpdateSettings(r.Context(), next)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, applied)
}
