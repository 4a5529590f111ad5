package chartspec

import (
	"fmt"

	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/tabular"
)

// Long-format field keys used in inline datasets. Display names live on axis
// titles and legends, never in field keys.
const (
	fieldTime     = "date"
	fieldSeries   = "series"
	fieldValue    = "value"
	fieldCategory = "category"
)

// Placeholder and warning messages shown to editors.
const (
	msgNoRows        = "Görselleştirme için veri bulunamadı."
	msgNoValueColumn = "Değer sütunu seçilmedi."
	msgNoTimeColumn  = "Zaman sütunu seçilmedi."
	msgNoCategory    = "Kategori sütunu seçilmedi."
	msgGenerateError = "Grafik oluşturulurken bir hata oluştu."
)

// Request carries everything a single generation needs. RawData is the
// editor's original pasted text and is embedded verbatim in the editor state;
// Rows is the parsed form the generators consume.
type Request struct {
	Template registry.ID
	RawData  string
	Rows     []tabular.Row
	Mapping  RoleMapping
	Options  EditorialOptions
}

// Generate produces the chart specification for a request. The only error
// paths are template resolution failures (unknown or not-yet-available IDs),
// which must be rejected at selection time. Every data-shaped problem past
// that point yields a placeholder spec with IsInvalid set, so the caller
// always has a renderable document.
func Generate(req Request) (spec *Spec, err error) {
	tmpl, err := registry.Resolve(req.Template)
	if err != nil {
		return nil, err
	}

	mapping := sanitizeMapping(req.Mapping)
	state := &EditorState{
		RawDataInput:      req.RawData,
		ColumnMappings:    mapping,
		EditorialSettings: req.Options,
	}

	// A generator bug must never take down the editor preview.
	defer func() {
		if r := recover(); r != nil {
			spec = placeholder(tmpl.ID, state, req.Options, msgGenerateError)
			err = nil
		}
	}()

	g := generation{
		tmpl:    tmpl,
		rows:    req.Rows,
		mapping: mapping,
		opts:    req.Options,
		state:   state,
	}

	switch tmpl.ID {
	case registry.Line:
		return g.line(), nil
	case registry.StackedArea:
		return g.stackedArea(), nil
	case registry.SlopeChart:
		return g.slope(), nil
	case registry.CategoryBar:
		return g.bar(), nil
	case registry.DotPlot:
		return g.dotPlot(), nil
	case registry.Histogram:
		return g.histogram(), nil
	default:
		return nil, fmt.Errorf("%w: %q", registry.ErrNotImplemented, tmpl.ID)
	}
}

// generation bundles the per-call state the archetype builders share.
type generation struct {
	tmpl    registry.Template
	rows    []tabular.Row
	mapping RoleMapping
	opts    EditorialOptions
	state   *EditorState
	warn    []string
}

func (g *generation) warnf(format string, args ...interface{}) {
	g.warn = append(g.warn, fmt.Sprintf(format, args...))
}

// sanitizeMapping rebuilds the role mapping with the exclusivity rule
// enforced: a column bound to the time or group role cannot also be a value
// column, regardless of what the caller sent. Always returns fresh slices.
func sanitizeMapping(m RoleMapping) RoleMapping {
	out := RoleMapping{Time: m.Time, GroupBy: m.GroupBy}
	out.Value = make([]string, 0, len(m.Value))
	seen := make(map[string]bool, len(m.Value))
	for _, col := range m.Value {
		if col == "" || col == m.Time || col == m.GroupBy || seen[col] {
			continue
		}
		seen[col] = true
		out.Value = append(out.Value, col)
	}
	return out
}

// placeholder is the degenerate always-renderable document: correct frame,
// empty dataset, a centered message, and the invalid marker pair.
func placeholder(id registry.ID, state *EditorState, opts EditorialOptions, reason string) *Spec {
	s := newSpec(id, state, opts)
	s.Data = &Data{Values: []map[string]interface{}{}}
	s.Mark = &Mark{Type: "text", FontSize: 14, Color: "#9ca3af"}
	s.Encoding = &Encoding{Text: &Channel{Value: reason}}
	s.IsInvalid = true
	s.InvalidReason = reason
	return s
}

// temporalTuples converts long tuples into inline data rows with parsed,
// ISO-formatted time values. Tuples whose time cell cannot be parsed are
// skipped and reported through the spec's warning list; they are never
// replaced with a fabricated date.
func (g *generation) temporalTuples(tuples []tabular.LongTuple) []map[string]interface{} {
	values := make([]map[string]interface{}, 0, len(tuples))
	skipped := 0
	var firstBad string
	for _, t := range tuples {
		ts, err := tabular.ParseTimeValue(t.Time)
		if err != nil {
			skipped++
			if firstBad == "" {
				firstBad = fmt.Sprintf("%v", t.Time)
			}
			continue
		}
		values = append(values, map[string]interface{}{
			fieldTime:   ts.Format("2006-01-02"),
			fieldSeries: t.Series,
			fieldValue:  t.Value,
		})
	}
	if skipped > 0 {
		g.warnf("%d satır atlandı: zaman değeri çözümlenemedi (ör. %q)", skipped, firstBad)
	}
	return values
}

// seriesOrder returns the distinct series names in first-appearance order.
func seriesOrder(values []map[string]interface{}, key string) []string {
	var order []string
	seen := make(map[string]bool)
	for _, v := range values {
		name, _ := v[key].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	return order
}

// colorChannel builds the shared series color channel: explicit domain/range
// from the selected palette, legend hidden via a literal null when disabled
// or unsupported.
func (g *generation) colorChannel(series []string) *Channel {
	ch := &Channel{
		Field: fieldSeries,
		Type:  "nominal",
		Title: nil,
		Sort:  series,
		Scale: &Scale{
			Domain: toInterfaceSlice(series),
			Range:  palette(g.opts.ColorMode, len(series)),
		},
	}
	if !g.tmpl.SupportsLegend || !g.opts.legendEnabled() || len(series) < 2 {
		ch.Legend = legendNull
	}
	return ch
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// finish attaches collected warnings and returns the spec.
func (g *generation) finish(s *Spec) *Spec {
	s.Warnings = append(s.Warnings, g.warn...)
	return s
}

// timeAxisTitle resolves the x-axis title for temporal archetypes.
func (g *generation) timeAxisTitle() interface{} {
	if g.opts.XAxisLabel != "" {
		return g.opts.XAxisLabel
	}
	return nil
}
