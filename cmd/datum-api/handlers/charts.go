package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/datum-viz/datum/internal/chartspec"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/pkg/engine"
)

// ChartHandler handles the stateless chart pipeline endpoints: parse,
// generate, validate, and the template catalog.
type ChartHandler struct {
	logger *observability.Logger
	engine *engine.Engine
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(logger *observability.Logger, eng *engine.Engine) *ChartHandler {
	return &ChartHandler{logger: logger, engine: eng}
}

// ParseRequestDTO is the body of POST /charts/parse.
type ParseRequestDTO struct {
	Data string `json:"data"`
}

// ParseResponseDTO is the parse result shape for the editor.
type ParseResponseDTO struct {
	Columns    []string                 `json:"columns"`
	Rows       []map[string]interface{} `json:"rows"`
	Delimiter  string                   `json:"delimiter"`
	Suggestion SuggestionDTO            `json:"suggestion"`
	RowErrors  []string                 `json:"rowErrors,omitempty"`
	Truncated  bool                     `json:"rowErrorsTruncated,omitempty"`
}

// SuggestionDTO is the inferred role mapping.
type SuggestionDTO struct {
	Time  string   `json:"time"`
	Value []string `json:"value"`
}

// GenerateRequestDTO is the body of POST /charts/generate and
// POST /charts/validate.
type GenerateRequestDTO struct {
	TemplateID string                     `json:"templateId"`
	Data       string                     `json:"data"`
	Mapping    *chartspec.RoleMapping     `json:"mapping,omitempty"`
	Options    chartspec.EditorialOptions `json:"options"`
	Metadata   chartspec.Metadata         `json:"metadata"`
}

// Templates handles GET /templates.
func (h *ChartHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Templates())
}

// Parse handles POST /charts/parse.
func (h *ChartHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.engine.Parse(r.Context(), req.Data)
	if err != nil {
		// Parse failures are user errors with editor-facing messages.
		status := http.StatusUnprocessableEntity
		if errors.Is(err, engine.ErrInputTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	rows := make([]map[string]interface{}, len(res.Table.Rows))
	for i, row := range res.Table.Rows {
		rows[i] = row
	}
	writeJSON(w, http.StatusOK, ParseResponseDTO{
		Columns:   res.Table.Columns,
		Rows:      rows,
		Delimiter: string(res.Table.Delimiter),
		Suggestion: SuggestionDTO{
			Time:  res.Suggestion.Time,
			Value: res.Suggestion.Value,
		},
		RowErrors: res.RowErrors,
		Truncated: res.Truncated,
	})
}

// Generate handles POST /charts/generate. The response body is the generated
// spec document itself.
func (h *ChartHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec, err := h.engine.GenerateFromRaw(r.Context(), registry.ID(req.TemplateID), req.Data, req.Mapping, req.Options)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, registry.ErrUnknownTemplate) || errors.Is(err, registry.ErrNotImplemented) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	data, err := spec.JSON()
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("spec serialization failed")
		writeError(w, http.StatusInternalServerError, "spec serialization failed")
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

// Validate handles POST /charts/validate.
func (h *ChartHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	genReq := chartspec.Request{
		Template: registry.ID(req.TemplateID),
		RawData:  req.Data,
		Options:  req.Options,
	}
	if req.Mapping != nil {
		genReq.Mapping = *req.Mapping
	}

	// Validation runs against parsed rows when the data parses; an
	// unparsable body surfaces as a validation error, not an HTTP error.
	if parsed, err := h.engine.Parse(r.Context(), req.Data); err == nil {
		genReq.Rows = parsed.Table.Rows
		if req.Mapping == nil {
			genReq.Mapping = chartspec.RoleMapping{
				Time:  parsed.Suggestion.Time,
				Value: parsed.Suggestion.Value,
			}
		}
	}

	writeJSON(w, http.StatusOK, h.engine.Validate(genReq, req.Metadata))
}
