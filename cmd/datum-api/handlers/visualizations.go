package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/datum-viz/datum/internal/chartspec"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/storage"
	"github.com/datum-viz/datum/pkg/engine"
)

// VisualizationHandler handles stored visualization CRUD and publication.
type VisualizationHandler struct {
	logger *observability.Logger
	repo   *storage.VisualizationRepository
	engine *engine.Engine
}

// NewVisualizationHandler creates a new visualization handler.
func NewVisualizationHandler(logger *observability.Logger, repo *storage.VisualizationRepository, eng *engine.Engine) *VisualizationHandler {
	return &VisualizationHandler{logger: logger, repo: repo, engine: eng}
}

// VisualizationRequestDTO is the write shape: metadata plus the chart
// inputs. The server generates the spec; clients never submit spec JSON.
type VisualizationRequestDTO struct {
	Title         string                     `json:"title"`
	Summary       string                     `json:"summary,omitempty"`
	Tags          []string                   `json:"tags,omitempty"`
	CollectionIDs []string                   `json:"collectionIds,omitempty"`
	Sources       []storage.Source           `json:"sources,omitempty"`
	TemplateID    string                     `json:"templateId"`
	Data          string                     `json:"data"`
	Mapping       *chartspec.RoleMapping     `json:"mapping,omitempty"`
	Options       chartspec.EditorialOptions `json:"options"`
	// LastUpdated must echo the value from the last read on updates; a
	// stale value is rejected with 409.
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// VisualizationResponseDTO is the read shape.
type VisualizationResponseDTO struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Slug         string           `json:"slug"`
	Summary      string           `json:"summary,omitempty"`
	Tags         []string         `json:"tags"`
	Collections  []string         `json:"collectionIds"`
	Sources      []storage.Source `json:"sources"`
	Status       string           `json:"status"`
	TemplateID   string           `json:"templateId"`
	ChartSpec    json.RawMessage  `json:"chartSpec"`
	EmbedVersion int              `json:"embedVersion"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastUpdated  time.Time        `json:"lastUpdated"`
}

func toVizDTO(viz *storage.Visualization) VisualizationResponseDTO {
	sources := make([]storage.Source, 0, len(viz.Sources))
	for _, s := range viz.Sources {
		sources = append(sources, storage.DecodeSource(s))
	}
	summary := ""
	if viz.Summary != nil {
		summary = *viz.Summary
	}
	return VisualizationResponseDTO{
		ID:           viz.ID.String(),
		Title:        viz.Title,
		Slug:         viz.Slug,
		Summary:      summary,
		Tags:         viz.Tags,
		Collections:  viz.CollectionIDs,
		Sources:      sources,
		Status:       string(viz.Status),
		TemplateID:   viz.TemplateID,
		ChartSpec:    viz.ChartSpec,
		EmbedVersion: viz.EmbedVersion,
		CreatedAt:    viz.CreatedAt,
		LastUpdated:  viz.LastUpdated,
	}
}

// buildVisualization generates the spec and assembles the storage row.
func (h *VisualizationHandler) buildVisualization(r *http.Request, req VisualizationRequestDTO, viz *storage.Visualization) error {
	opts := req.Options
	if opts.Title == "" {
		opts.Title = req.Title
	}

	spec, err := h.engine.GenerateFromRaw(r.Context(), registry.ID(req.TemplateID), req.Data, req.Mapping, opts)
	if err != nil {
		return err
	}
	data, err := spec.JSON()
	if err != nil {
		return err
	}

	sources := make([]string, 0, len(req.Sources))
	for _, s := range req.Sources {
		sources = append(sources, storage.EncodeSource(s))
	}

	viz.Title = req.Title
	viz.Tags = req.Tags
	viz.CollectionIDs = req.CollectionIDs
	viz.Sources = sources
	viz.TemplateID = req.TemplateID
	viz.ChartSpec = data
	if req.Summary != "" {
		viz.Summary = &req.Summary
	} else {
		viz.Summary = nil
	}
	return nil
}

// List handles GET /visualizations.
func (h *VisualizationHandler) List(w http.ResponseWriter, r *http.Request) {
	status := storage.VizStatus(r.URL.Query().Get("status"))
	vizzes, err := h.repo.List(r.Context(), status, 100, 0)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("list visualizations failed")
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}

	dtos := make([]VisualizationResponseDTO, 0, len(vizzes))
	for _, viz := range vizzes {
		dtos = append(dtos, toVizDTO(viz))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Get handles GET /visualizations/{id}.
func (h *VisualizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	viz, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toVizDTO(viz))
}

// GetBySlug handles GET /visualizations/slug/{slug}.
func (h *VisualizationHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	viz, err := h.repo.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "visualization not found")
			return
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("load visualization failed")
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}
	writeJSON(w, http.StatusOK, toVizDTO(viz))
}

// Create handles POST /visualizations.
func (h *VisualizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req VisualizationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	viz := &storage.Visualization{EmbedVersion: 1}
	if err := h.buildVisualization(r, req, viz); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), viz); err != nil {
		if errors.Is(err, storage.ErrDuplicateSlug) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("create visualization failed")
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, toVizDTO(viz))
}

// Update handles PUT /visualizations/{id}.
func (h *VisualizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	viz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req VisualizationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	readAt := req.LastUpdated
	if readAt.IsZero() {
		readAt = viz.LastUpdated
	}

	if err := h.buildVisualization(r, req, viz); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	viz.EmbedVersion++

	if err := h.repo.Update(r.Context(), viz, readAt); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			writeError(w, http.StatusConflict, "visualization was modified by another editor")
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "visualization not found")
			return
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("update visualization failed")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, toVizDTO(viz))
}

// Publish handles POST /visualizations/{id}/publish. Publication re-runs the
// validation checks; blocking errors return 422 with the check result.
func (h *VisualizationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	viz, ok := h.load(w, r)
	if !ok {
		return
	}

	req, err := h.engine.Restore(r.Context(), viz.ChartSpec)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	summary := ""
	if viz.Summary != nil {
		summary = *viz.Summary
	}
	result := h.engine.Validate(*req, chartspec.Metadata{
		Title:   viz.Title,
		Summary: summary,
		Sources: viz.Sources,
	})
	if !result.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), viz.ID, storage.VizStatusPublished); err != nil {
		writeError(w, http.StatusInternalServerError, "publish failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /visualizations/{id}.
func (h *VisualizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid visualization id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "visualization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VisualizationHandler) load(w http.ResponseWriter, r *http.Request) (*storage.Visualization, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid visualization id")
		return nil, false
	}
	viz, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "visualization not found")
			return nil, false
		}
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("load visualization failed")
		writeError(w, http.StatusInternalServerError, "load failed")
		return nil, false
	}
	return viz, true
}
