package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datum-viz/datum/internal/cache"
	"github.com/datum-viz/datum/internal/chartspec"
	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/tabular"
)

const sampleRaw = "Yıl,Nüfus\n2020,100\n2021,120\n2022,135"

func TestParseWithSuggestion(t *testing.T) {
	e := New()
	res, err := e.Parse(context.Background(), sampleRaw)
	require.NoError(t, err)

	assert.Equal(t, []string{"Yıl", "Nüfus"}, res.Table.Columns)
	assert.Equal(t, "Yıl", res.Suggestion.Time)
	assert.Equal(t, []string{"Nüfus"}, res.Suggestion.Value)
	assert.Empty(t, res.RowErrors)
}

func TestParseSurfacesRowErrors(t *testing.T) {
	e := New()
	res, err := e.Parse(context.Background(), "Yıl,Değer\n2020,1\nbozuk\n2021,2")
	require.NoError(t, err)
	require.Len(t, res.RowErrors, 1)
	assert.Contains(t, res.RowErrors[0], "Satır 3")

	_, err = e.Parse(context.Background(), "   ")
	assert.ErrorIs(t, err, tabular.ErrEmptyInput)
}

func TestParseEnforcesLimits(t *testing.T) {
	e := New(WithLimits(Limits{MaxInputBytes: 10}))
	_, err := e.Parse(context.Background(), sampleRaw)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	e = New(WithLimits(Limits{MaxRows: 2}))
	_, err = e.Parse(context.Background(), sampleRaw)
	assert.ErrorIs(t, err, ErrTooManyRows)

	// Inside the bounds nothing changes.
	e = New(WithLimits(Limits{MaxInputBytes: 1 << 20, MaxRows: 100}))
	res, err := e.Parse(context.Background(), sampleRaw)
	require.NoError(t, err)
	assert.Len(t, res.Table.Rows, 3)
}

func TestGenerateEnforcesValueColumnLimit(t *testing.T) {
	e := New(WithLimits(Limits{MaxValueColumns: 1}))
	_, err := e.Generate(context.Background(), chartspec.Request{
		Template: registry.Line,
		RawData:  sampleRaw,
		Rows:     mustRows(t, sampleRaw),
		Mapping:  chartspec.RoleMapping{Time: "Yıl", Value: []string{"Nüfus", "Yıl"}},
	})
	assert.ErrorIs(t, err, ErrTooManyValueColumns)
}

func TestTemplatesCatalog(t *testing.T) {
	e := New()
	assert.Len(t, e.Templates(), 10)
}

func TestGenerateFromRawWithInferredMapping(t *testing.T) {
	e := New()
	spec, err := e.GenerateFromRaw(context.Background(), registry.Line, sampleRaw, nil, chartspec.EditorialOptions{})
	require.NoError(t, err)

	assert.False(t, spec.IsInvalid)
	assert.Equal(t, "Yıl", spec.EditorState.ColumnMappings.Time)
	assert.Equal(t, []string{"Nüfus"}, spec.EditorState.ColumnMappings.Value)
	assert.Len(t, spec.Data.Values, 3)
}

func TestGenerateUsesCache(t *testing.T) {
	mem := cache.NewMemoryClient(100)
	e := New(WithCache(mem, time.Minute))
	ctx := context.Background()

	req := chartspec.Request{
		Template: registry.Line,
		RawData:  sampleRaw,
		Rows:     mustRows(t, sampleRaw),
		Mapping:  chartspec.RoleMapping{Time: "Yıl", Value: []string{"Nüfus"}},
	}

	first, err := e.Generate(ctx, req)
	require.NoError(t, err)
	second, err := e.Generate(ctx, req)
	require.NoError(t, err)

	fj, err := first.JSON()
	require.NoError(t, err)
	sj, err := second.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(fj), string(sj))

	// A different mapping must not collide with the cached entry.
	req.Mapping = chartspec.RoleMapping{Time: "Yıl", Value: []string{}}
	placeholderSpec, err := e.Generate(ctx, req)
	require.NoError(t, err)
	assert.True(t, placeholderSpec.IsInvalid)
}

func TestGenerateRejectsComingSoon(t *testing.T) {
	e := New()
	_, err := e.GenerateFromRaw(context.Background(), registry.PieChart, sampleRaw, nil, chartspec.EditorialOptions{})
	assert.ErrorIs(t, err, registry.ErrNotImplemented)
}

func TestRestoreRoundTrip(t *testing.T) {
	e := New()
	ctx := context.Background()
	opts := chartspec.EditorialOptions{Title: "Nüfus", Unit: "kişi"}

	spec, err := e.GenerateFromRaw(ctx, registry.Line, sampleRaw, nil, opts)
	require.NoError(t, err)
	stored, err := spec.JSON()
	require.NoError(t, err)

	req, err := e.Restore(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, registry.Line, req.Template)
	assert.Equal(t, sampleRaw, req.RawData)
	assert.Equal(t, opts, req.Options)
	require.Len(t, req.Rows, 3)

	// A restored request regenerates the identical document.
	regenerated, err := e.Generate(ctx, *req)
	require.NoError(t, err)
	rj, err := regenerated.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(stored), string(rj))
}

func TestRestoreWithoutEditorState(t *testing.T) {
	e := New()
	_, err := e.Restore(context.Background(), []byte(`{"$schema":"x","width":"container","height":400,"_templateId":"line"}`))
	assert.ErrorIs(t, err, ErrNoEditorState)
}

func TestValidatePassThrough(t *testing.T) {
	e := New()
	res := e.Validate(chartspec.Request{Template: registry.Line}, chartspec.Metadata{})
	assert.False(t, res.OK())
}

func mustRows(t *testing.T, raw string) []tabular.Row {
	t.Helper()
	table, err := tabular.Parse(raw)
	require.NoError(t, err)
	return table.Rows
}
