package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/vestir/internal/store"
)

// SettingsHandler exposes the stored tuning overrides. Changes apply the
// next time the session starts.
type SettingsHandler struct {
	store    *store.Store
	validate func(key, value string) error
}

// NewSettingsHandler creates a SettingsHandler. validate, if not nil, is
// asked to accept a value before it is stored.
func NewSettingsHandler(s *store.Store, validate func(key, value string) error) *SettingsHandler {
	return &SettingsHandler{store: s, validate: validate}
}

type setSettingRequest struct {
	Value *string `json:"value"`
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/settings")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		settings, err := h.store.Settings().All()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case len(parts) == 1 && r.Method == http.MethodPut:
		h.set(w, r, parts[0])

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := h.store.Settings().Delete(parts[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Setting not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to delete setting")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) <= 1:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

	default:
		http.NotFound(w, r)
	}
}

func (h *SettingsHandler) set(w http.ResponseWriter, r *http.Request, key string) {
	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	if h.validate != nil {
		if err := h.validate(key, *req.Value); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.store.Settings().Set(key, *req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: *req.Value})
}
