package chartspec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/tabular"
)

// Metadata is the publication metadata validated alongside the chart itself.
// Sources use the "text|url" encoding shared with the storage layer.
type Metadata struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// Result is the outcome of a pre-publish check. Errors block publication;
// warnings are editorial advice and never block.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the visualization may be published.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Validate runs the publication checks for a generation request and its
// metadata. It never generates a spec and never fails: problems become
// entries in the result, phrased for the editor.
func Validate(req Request, meta Metadata) Result {
	var res Result
	errf := func(format string, args ...interface{}) {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	warnf := func(format string, args ...interface{}) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(meta.Title) == "" {
		errf("Başlık gerekli.")
	}
	if len(meta.Sources) == 0 {
		errf("Kaynak gerekli.")
	}
	if req.Options.AccessibilityDescription == "" {
		warnf("Erişilebilirlik açıklaması boş. Ekran okuyucu kullanıcıları için kısa bir özet ekleyin.")
	}

	tmpl, err := registry.Resolve(req.Template)
	if err != nil {
		errf("Geçersiz grafik şablonu: %q.", req.Template)
		return res
	}

	if len(req.Rows) == 0 {
		errf("Veri girilmedi.")
		return res
	}

	mapping := sanitizeMapping(req.Mapping)
	for _, role := range tmpl.RequiredRoles {
		switch role.Key {
		case registry.RoleTime:
			if mapping.Time == "" {
				errf("Zaman sütunu seçilmedi.")
			}
		case registry.RoleCategory:
			if mapping.Time == "" {
				errf("Kategori sütunu seçilmedi.")
			}
		case registry.RoleValue:
			if len(mapping.Value) == 0 {
				errf("En az bir değer sütunu seçilmelidir.")
			}
		}
	}
	if tmpl.ID == registry.SlopeChart && len(mapping.Value) == 1 {
		errf("Eğim grafiği için en az iki değer sütunu gerekli.")
	}
	shapeChecks(tmpl, req.Rows, mapping, errf, warnf)
	if res.Errors != nil {
		return res
	}

	res.Warnings = append(res.Warnings, dataWarnings(tmpl, req.Rows, mapping)...)
	return res
}

// shapeChecks enforces the per-archetype shape rules. Category counts come
// from the distinct non-empty cells of the category column; the bar series
// count comes from the group column when one is set, otherwise from the
// number of value columns.
func shapeChecks(tmpl registry.Template, rows []tabular.Row, mapping RoleMapping, errf, warnf func(string, ...interface{})) {
	switch tmpl.ID {
	case registry.CategoryBar:
		if mapping.Time != "" {
			if n := distinctCount(rows, mapping.Time); n > 0 && n < 3 {
				errf("Kategori sütununda en az 3 farklı değer olmalıdır.")
			}
		}
		seriesCount := len(mapping.Value)
		if mapping.GroupBy != "" {
			seriesCount = distinctCount(rows, mapping.GroupBy)
			if len(mapping.Value) > 1 {
				warnf("Grup boyutu seçiliyken tek değer sütunu önerilir.")
			}
		}
		if seriesCount > 0 && seriesCount < 3 {
			warnf("Editöryel olarak 3 veya daha fazla seri önerilir.")
		}
	case registry.DotPlot:
		if mapping.Time != "" {
			if n := distinctCount(rows, mapping.Time); n > 0 && n < 2 {
				errf("Nokta grafiği için en az 2 kategori gerekli.")
			}
		}
	case registry.SlopeChart:
		if len(mapping.Value) > 2 {
			warnf("Eğim grafiği yalnızca ilk (%q) ve son (%q) değer sütunlarını kullanır; aradaki sütunlar yok sayılır.", mapping.Value[0], mapping.Value[len(mapping.Value)-1])
		}
	case registry.Histogram:
		if len(mapping.Value) > 1 {
			warnf("Histogram için birden fazla değer sütunu seçildi. İlk sütun kullanılacak, diğerleri yok sayılacak.")
		}
	}

	if unused := unusedColumns(rows, mapping); len(unused) > 0 {
		shown, suffix := unused, ""
		if len(shown) > 3 {
			shown, suffix = shown[:3], "..."
		}
		warnf("Kullanılmayan %d sütun var: %s%s.", len(unused), strings.Join(shown, ", "), suffix)
	}
}

// distinctCount counts the distinct non-empty cells of a column.
func distinctCount(rows []tabular.Row, col string) int {
	seen := map[string]bool{}
	for _, row := range rows {
		cell := row[col]
		if cell == nil || cell == "" {
			continue
		}
		seen[fmt.Sprintf("%v", cell)] = true
	}
	return len(seen)
}

// unusedColumns lists the columns no role points at, sorted for stable
// messages. Row maps carry the full column set, so the first pass over the
// rows recovers it.
func unusedColumns(rows []tabular.Row, mapping RoleMapping) []string {
	used := map[string]bool{mapping.Time: true, mapping.GroupBy: true}
	for _, col := range mapping.Value {
		used[col] = true
	}
	seen := map[string]bool{}
	var unused []string
	for _, row := range rows {
		for col := range row {
			if seen[col] {
				continue
			}
			seen[col] = true
			if !used[col] {
				unused = append(unused, col)
			}
		}
	}
	sort.Strings(unused)
	return unused
}

// dataWarnings inspects the mapped columns for problems that degrade the
// chart without making it unpublishable.
func dataWarnings(tmpl registry.Template, rows []tabular.Row, mapping RoleMapping) []string {
	var warnings []string

	for _, col := range mapping.Value {
		numeric, total := 0, 0
		for _, row := range rows {
			cell := row[col]
			if cell == nil || cell == "" {
				continue
			}
			total++
			if _, ok := tabular.CoerceNumber(cell); ok {
				numeric++
			}
		}
		if total == 0 {
			warnings = append(warnings, fmt.Sprintf("%q sütununda veri yok.", col))
		} else if numeric < total {
			warnings = append(warnings, fmt.Sprintf("%q sütununda %d sayısal olmayan değer var; bu satırlar grafikte gösterilmeyecek.", col, total-numeric))
		}
	}

	if tmpl.ID == registry.Line || tmpl.ID == registry.StackedArea {
		bad := 0
		for _, row := range rows {
			if _, err := tabular.ParseTimeValue(row[mapping.Time]); err != nil {
				bad++
			}
		}
		if bad == len(rows) {
			warnings = append(warnings, fmt.Sprintf("%q sütunundaki değerler zaman olarak çözümlenemiyor.", mapping.Time))
		} else if bad > 0 {
			warnings = append(warnings, fmt.Sprintf("%q sütununda %d satırın zaman değeri çözümlenemiyor.", mapping.Time, bad))
		}
	}

	if tmpl.SupportsMultiSeries && len(mapping.Value) > len(paletteMultiColor) {
		warnings = append(warnings, fmt.Sprintf("%d seri seçildi; %d seriden sonra renkler tekrar eder.", len(mapping.Value), len(paletteMultiColor)))
	}

	return warnings
}
