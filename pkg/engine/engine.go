// Package engine is the public facade over the Datum chart pipeline: parsing
// pasted data, suggesting role mappings, generating chart specs, validating
// for publication, and restoring editor sessions from stored specs.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/datum-viz/datum/internal/cache"
	"github.com/datum-viz/datum/internal/chartspec"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/tabular"
)

// ErrNoEditorState indicates a stored spec that cannot be reopened in the
// editor because its editor-state envelope is missing.
var ErrNoEditorState = errors.New("spec has no editor state")

// Limit violations. Callers match with errors.Is to map them to client
// errors rather than server failures.
var (
	ErrInputTooLarge       = errors.New("input exceeds the size limit")
	ErrTooManyRows         = errors.New("input exceeds the row limit")
	ErrTooManyValueColumns = errors.New("too many value columns mapped")
)

// Limits bounds the editor inputs. A zero field disables that bound.
type Limits struct {
	MaxInputBytes   int
	MaxRows         int
	MaxValueColumns int
}

// Engine ties the pipeline stages together. The zero-value configuration
// (no cache, no limits, default logger) is fully functional.
type Engine struct {
	log      *observability.Logger
	cache    cache.Client
	cacheTTL time.Duration
	limits   Limits
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *observability.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithCache enables spec memoization with the given TTL.
func WithCache(c cache.Client, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithLimits bounds the accepted input size, row count, and mapped value
// columns.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = observability.DefaultLogger()
	}
	return e
}

// ParseResult is a parsed table plus advisory findings for the editor.
type ParseResult struct {
	Table      *tabular.Table     `json:"table"`
	Suggestion tabular.Suggestion `json:"suggestion"`
	RowErrors  []string           `json:"rowErrors,omitempty"`
	Truncated  bool               `json:"rowErrorsTruncated,omitempty"`
}

// Parse parses raw pasted text and infers a role mapping suggestion.
func (e *Engine) Parse(ctx context.Context, input string) (*ParseResult, error) {
	if e.limits.MaxInputBytes > 0 && len(input) > e.limits.MaxInputBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(input), e.limits.MaxInputBytes)
	}

	start := time.Now()
	table, err := tabular.Parse(input)
	if err != nil {
		e.log.WithContext(ctx).Debug().Err(err).Msg("parse rejected")
		return nil, err
	}
	if e.limits.MaxRows > 0 && len(table.Rows) > e.limits.MaxRows {
		return nil, fmt.Errorf("%w: %d > %d rows", ErrTooManyRows, len(table.Rows), e.limits.MaxRows)
	}

	msgs, truncated := table.RowErrorSummary()
	res := &ParseResult{
		Table:      table,
		Suggestion: tabular.Suggest(table),
		RowErrors:  msgs,
		Truncated:  truncated,
	}

	e.log.WithContext(ctx).Debug().
		Int("columns", len(table.Columns)).
		Int("rows", len(table.Rows)).
		Int("row_errors", len(table.RowErrors)).
		Dur("took", time.Since(start)).
		Msg("parsed input")
	return res, nil
}

// SuggestMapping parses the input and returns only the inferred role mapping.
func (e *Engine) SuggestMapping(ctx context.Context, input string) (tabular.Suggestion, error) {
	res, err := e.Parse(ctx, input)
	if err != nil {
		return tabular.Suggestion{}, err
	}
	return res.Suggestion, nil
}

// Templates returns the archetype catalog.
func (e *Engine) Templates() []registry.Template {
	return registry.All()
}

// Generate produces the chart spec for a request, serving repeated identical
// requests from the cache when one is configured. Generation is
// deterministic, so a cached document is indistinguishable from a fresh one.
func (e *Engine) Generate(ctx context.Context, req chartspec.Request) (*chartspec.Spec, error) {
	if e.limits.MaxValueColumns > 0 && len(req.Mapping.Value) > e.limits.MaxValueColumns {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyValueColumns, len(req.Mapping.Value), e.limits.MaxValueColumns)
	}

	log := e.log.WithContext(ctx).WithTemplate(string(req.Template))

	key, ok := e.cacheKey(req)
	if ok {
		if data, err := e.cache.Get(ctx, key); err == nil {
			spec, perr := chartspec.ParseSpec(data)
			if perr == nil {
				log.Debug().Msg("spec cache hit")
				return spec, nil
			}
			log.Warn().Err(perr).Msg("discarding undecodable cached spec")
		}
	}

	start := time.Now()
	spec, err := chartspec.Generate(req)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Bool("invalid", spec.IsInvalid).
		Int("warnings", len(spec.Warnings)).
		Dur("took", time.Since(start)).
		Msg("generated spec")

	if ok {
		if data, jerr := spec.JSON(); jerr == nil {
			if cerr := e.cache.Set(ctx, key, data, e.cacheTTL); cerr != nil {
				log.Warn().Err(cerr).Msg("spec cache write failed")
			}
		}
	}
	return spec, nil
}

// GenerateFromRaw parses raw text and generates in one step. A nil mapping
// falls back to the inferred suggestion.
func (e *Engine) GenerateFromRaw(ctx context.Context, id registry.ID, raw string, mapping *chartspec.RoleMapping, opts chartspec.EditorialOptions) (*chartspec.Spec, error) {
	parsed, err := e.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	var m chartspec.RoleMapping
	if mapping != nil {
		m = *mapping
	} else {
		m = chartspec.RoleMapping{
			Time:  parsed.Suggestion.Time,
			Value: parsed.Suggestion.Value,
		}
	}

	return e.Generate(ctx, chartspec.Request{
		Template: id,
		RawData:  raw,
		Rows:     parsed.Table.Rows,
		Mapping:  m,
		Options:  opts,
	})
}

// Validate runs the pre-publish checks.
func (e *Engine) Validate(req chartspec.Request, meta chartspec.Metadata) chartspec.Result {
	return chartspec.Validate(req, meta)
}

// Restore rebuilds a generation request from a stored spec document, using
// the embedded editor state. The raw data is re-parsed so the returned
// request is ready for Generate; this is how saved charts are re-rendered
// after generator changes.
func (e *Engine) Restore(ctx context.Context, raw []byte) (*chartspec.Request, error) {
	spec, err := chartspec.ParseSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("parse stored spec: %w", err)
	}
	if spec.EditorState == nil {
		return nil, ErrNoEditorState
	}

	parsed, err := e.Parse(ctx, spec.EditorState.RawDataInput)
	if err != nil {
		return nil, fmt.Errorf("reparse stored data: %w", err)
	}

	return &chartspec.Request{
		Template: spec.TemplateID,
		RawData:  spec.EditorState.RawDataInput,
		Rows:     parsed.Table.Rows,
		Mapping:  spec.EditorState.ColumnMappings,
		Options:  spec.EditorState.EditorialSettings,
	}, nil
}

// cacheKey computes the content-identity key for a request, or ok=false when
// caching is disabled or the request cannot be serialized.
func (e *Engine) cacheKey(req chartspec.Request) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	mapping, err := json.Marshal(req.Mapping)
	if err != nil {
		return "", false
	}
	opts, err := json.Marshal(req.Options)
	if err != nil {
		return "", false
	}
	return cache.SpecCacheKey(string(req.Template), req.RawData, string(mapping), string(opts)), true
}
