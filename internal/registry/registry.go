// Package registry holds the closed catalog of chart archetypes. The catalog
// is static and read-only at runtime; the editor UI and the spec generator
// both dispatch on it.
package registry

import (
	"errors"
	"fmt"
)

// Selection errors.
var (
	ErrUnknownTemplate = errors.New("unknown chart template")
	// ErrNotImplemented is returned for coming_soon entries. They must be
	// rejected at selection time, never silently mapped to another archetype.
	ErrNotImplemented = errors.New("chart template not implemented")
)

// ID identifies a chart archetype.
type ID string

// The closed set of archetype IDs.
const (
	Line          ID = "line"
	CategoryBar   ID = "bar"
	HorizontalBar ID = "horizontal-bar"
	DotPlot       ID = "dot-plot"
	StackedArea   ID = "stacked-area"
	StackedBar    ID = "stacked-bar"
	SlopeChart    ID = "slope-chart"
	Dumbbell      ID = "dumbbell"
	Histogram     ID = "histogram"
	PieChart      ID = "pie-chart"
)

// DefaultID is the archetype preselected for new visualizations.
const DefaultID = Line

// Status marks whether an archetype can be selected.
type Status string

const (
	StatusActive     Status = "active"
	StatusComingSoon Status = "coming_soon"
)

// Role keys used in RequiredRoles.
const (
	RoleTime     = "time"
	RoleCategory = "category"
	RoleValue    = "value"
)

// Role describes one required input role of an archetype.
type Role struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	AllowsMultiple bool   `json:"allowsMultiple"`
}

// Template is one registry entry.
type Template struct {
	ID                  ID     `json:"id"`
	Label               string `json:"label"`
	Description         string `json:"description"`
	RequiredRoles       []Role `json:"requiredRoles"`
	SupportsLegend      bool   `json:"supportsLegend"`
	SupportsMultiSeries bool   `json:"supportsMultiSeries"`
	Status              Status `json:"status"`
}

var catalog = []Template{
	{
		ID:          Line,
		Label:       "Zaman Serisi (Çizgi + Nokta)",
		Description: "Yıllar veya aylar içindeki değişimi göstermek için.",
		RequiredRoles: []Role{
			{Key: RoleTime, Label: "Zaman sütunu"},
			{Key: RoleValue, Label: "Değer sütunları", AllowsMultiple: true},
		},
		SupportsLegend:      true,
		SupportsMultiSeries: true,
		Status:              StatusActive,
	},
	{
		ID:          CategoryBar,
		Label:       "Kategori Karşılaştırma (Dikey Bar)",
		Description: "Kategorileri karşılaştırmak için.",
		RequiredRoles: []Role{
			{Key: RoleCategory, Label: "Kategori sütunu"},
			{Key: RoleValue, Label: "Değer sütunları", AllowsMultiple: true},
		},
		SupportsLegend:      true,
		SupportsMultiSeries: true,
		Status:              StatusActive,
	},
	{
		ID:          HorizontalBar,
		Label:       "Yatay Bar Grafiği (Horizontal Bar)",
		Description: "Sıralama ve karşılaştırma için yatay bar grafiği.",
		Status:      StatusComingSoon,
	},
	{
		ID:          DotPlot,
		Label:       "Nokta Grafiği (Dot Plot)",
		Description: "Tek bir zaman noktasında birden fazla varlığı karşılaştırmak için.",
		RequiredRoles: []Role{
			{Key: RoleCategory, Label: "Kategori sütunu"},
			{Key: RoleValue, Label: "Değer sütunları", AllowsMultiple: true},
		},
		SupportsLegend:      true,
		SupportsMultiSeries: true,
		Status:              StatusActive,
	},
	{
		ID:          StackedArea,
		Label:       "Yığılmış Alan Grafiği (Stacked Area)",
		Description: "Zaman içinde serilerin kümülatif katkısını göstermek için.",
		RequiredRoles: []Role{
			{Key: RoleTime, Label: "Zaman sütunu"},
			{Key: RoleValue, Label: "Değer sütunları", AllowsMultiple: true},
		},
		SupportsLegend:      true,
		SupportsMultiSeries: true,
		Status:              StatusActive,
	},
	{
		ID:          StackedBar,
		Label:       "Yığılmış Bar Grafiği (Absolute Stacked Bar)",
		Description: "Kategorilerin toplam büyüklüğünü ve bileşimini göstermek için.",
		Status:      StatusComingSoon,
	},
	{
		ID:          SlopeChart,
		Label:       "Eğim Grafiği (Slope Chart)",
		Description: "İki zaman noktası arasındaki değişimi karşılaştırmak için.",
		RequiredRoles: []Role{
			{Key: RoleCategory, Label: "Varlık sütunu"},
			{Key: RoleValue, Label: "Zaman noktası sütunları", AllowsMultiple: true},
		},
		SupportsLegend:      false,
		SupportsMultiSeries: true,
		Status:              StatusActive,
	},
	{
		ID:          Dumbbell,
		Label:       "Dumbbell Grafiği (Dumbbell Chart)",
		Description: "Kategoriler için iki değeri karşılaştırmak için (ör. Erkek/Kadın, Önce/Sonra).",
		Status:      StatusComingSoon,
	},
	{
		ID:          Histogram,
		Label:       "Histogram",
		Description: "Tek bir sayısal değişkenin dağılımını göstermek için.",
		RequiredRoles: []Role{
			{Key: RoleValue, Label: "Değer sütunu"},
		},
		SupportsLegend:      false,
		SupportsMultiSeries: false,
		Status:              StatusActive,
	},
	{
		ID:          PieChart,
		Label:       "Pasta Grafiği (Pie Chart)",
		Description: "Bir bütünün parçalarını oransal olarak göstermek için.",
		Status:      StatusComingSoon,
	},
}

// All returns the catalog in display order. The returned slice is a copy.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Get looks up a template by ID.
func Get(id ID) (Template, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Resolve returns the template for id, rejecting unknown IDs and entries that
// are not yet selectable.
func Resolve(id ID) (Template, error) {
	t, ok := Get(id)
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	if t.Status != StatusActive {
		return Template{}, fmt.Errorf("%w: %q", ErrNotImplemented, id)
	}
	return t, nil
}

// RequiresTime reports whether the archetype needs a time/category column.
// Histogram is the only active archetype that does not.
func RequiresTime(id ID) bool {
	t, ok := Get(id)
	if !ok {
		return true
	}
	for _, r := range t.RequiredRoles {
		if r.Key == RoleTime || r.Key == RoleCategory {
			return true
		}
	}
	return false
}
