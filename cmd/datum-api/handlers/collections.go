package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/storage"
)

// CollectionHandler handles collection CRUD and membership listing.
type CollectionHandler struct {
	logger *observability.Logger
	repo   *storage.CollectionRepository
	vizzes *storage.VisualizationRepository
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(logger *observability.Logger, repo *storage.CollectionRepository, vizzes *storage.VisualizationRepository) *CollectionHandler {
	return &CollectionHandler{logger: logger, repo: repo, vizzes: vizzes}
}

// CollectionRequestDTO is the write shape.
type CollectionRequestDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CollectionResponseDTO is the read shape.
type CollectionResponseDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCollectionDTO(col *storage.Collection) CollectionResponseDTO {
	description := ""
	if col.Description != nil {
		description = *col.Description
	}
	return CollectionResponseDTO{
		ID:          col.ID.String(),
		Name:        col.Name,
		Slug:        col.Slug,
		Description: description,
		CreatedAt:   col.CreatedAt,
		UpdatedAt:   col.UpdatedAt,
	}
}

// List handles GET /collections.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	cols, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("list collections failed")
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	dtos := make([]CollectionResponseDTO, 0, len(cols))
	for _, col := range cols {
		dtos = append(dtos, toCollectionDTO(col))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Create handles POST /collections.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	col := &storage.Collection{Name: req.Name}
	if req.Description != "" {
		col.Description = &req.Description
	}
	if err := h.repo.Create(r.Context(), col); err != nil {
		if errors.Is(err, storage.ErrDuplicateSlug) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("create collection failed")
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionDTO(col))
}

// Get handles GET /collections/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection id")
		return
	}
	col, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTO(col))
}

// Visualizations handles GET /collections/{id}/visualizations.
func (h *CollectionHandler) Visualizations(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection id")
		return
	}
	vizzes, err := h.vizzes.ListByCollection(r.Context(), id)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("list collection members failed")
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	dtos := make([]VisualizationResponseDTO, 0, len(vizzes))
	for _, viz := range vizzes {
		dtos = append(dtos, toVizDTO(viz))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Delete handles DELETE /collections/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
