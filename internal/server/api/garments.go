package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/vestir/internal/app"
	"github.com/ayusman/vestir/internal/garment"
)

// GarmentService is the part of the session the garment API drives.
type GarmentService interface {
	Garments() []app.GarmentInfo
	Garment(id string) (app.GarmentInfo, error)
	LoadGarmentFile(id string, category garment.Category, path string) (app.GarmentInfo, error)
	RemoveGarment(id string) error
	SetGarmentVisible(id string, visible bool) error
}

// GarmentHandler handles HTTP requests for garment resources.
type GarmentHandler struct {
	garments GarmentService
}

// NewGarmentHandler creates a new GarmentHandler.
func NewGarmentHandler(g GarmentService) *GarmentHandler {
	return &GarmentHandler{garments: g}
}

// ServeHTTP routes /api/garments, /api/garments/{id} and
// /api/garments/{id}/visibility.
func (h *GarmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/garments")

	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, listGarmentsResponse{Garments: h.garments.Garments()})
		case http.MethodPost:
			h.load(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, parts[0])
		case http.MethodDelete:
			h.remove(w, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 2 && parts[1] == "visibility":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setVisible(w, r, parts[0])

	default:
		http.NotFound(w, r)
	}
}

type loadGarmentRequest struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Path     string `json:"path"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

type listGarmentsResponse struct {
	Garments []app.GarmentInfo `json:"garments"`
}

// load handles POST /api/garments.
func (h *GarmentHandler) load(w http.ResponseWriter, r *http.Request) {
	var req loadGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	category, err := garment.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.garments.LoadGarmentFile(req.ID, category, req.Path)
	if err != nil {
		if errors.Is(err, garment.ErrAlreadyLoaded) {
			writeError(w, http.StatusConflict, "Garment already loaded")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// get handles GET /api/garments/{id}.
func (h *GarmentHandler) get(w http.ResponseWriter, id string) {
	info, err := h.garments.Garment(id)
	if err != nil {
		writeNotLoaded(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// remove handles DELETE /api/garments/{id}.
func (h *GarmentHandler) remove(w http.ResponseWriter, id string) {
	if err := h.garments.RemoveGarment(id); err != nil {
		writeNotLoaded(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setVisible handles PUT /api/garments/{id}/visibility.
func (h *GarmentHandler) setVisible(w http.ResponseWriter, r *http.Request, id string) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "visible is required")
		return
	}

	if err := h.garments.SetGarmentVisible(id, *req.Visible); err != nil {
		writeNotLoaded(w, err)
		return
	}
	h.get(w, id)
}

func writeNotLoaded(w http.ResponseWriter, err error) {
	if errors.Is(err, garment.ErrNotLoaded) {
		writeError(w, http.StatusNotFound, "Garment not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
