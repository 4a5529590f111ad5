// Package storage provides database models and repositories for the Datum
// chart engine.
package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VizStatus represents the publication status of a visualization.
type VizStatus string

const (
	VizStatusDraft     VizStatus = "draft"
	VizStatusPublished VizStatus = "published"
	VizStatusArchived  VizStatus = "archived"
)

// Visualization represents a stored chart: its metadata plus the generated
// spec document. The raw pasted data travels inside the spec's editor state,
// so a visualization row is self-contained for re-editing.
type Visualization struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Title         string          `json:"title" db:"title"`
	Slug          string          `json:"slug" db:"slug"`
	Summary       *string         `json:"summary,omitempty" db:"summary"`
	Tags          []string        `json:"tags" db:"tags"`
	CollectionIDs []string        `json:"collection_ids" db:"collection_ids"`
	Sources       []string        `json:"sources" db:"sources"`
	Status        VizStatus       `json:"status" db:"status"`
	TemplateID    string          `json:"template_id" db:"template_id"`
	ChartSpec     json.RawMessage `json:"chart_spec" db:"chart_spec"`
	DatasetFile   *string         `json:"dataset_file,omitempty" db:"dataset_file"`
	EmbedVersion  int             `json:"embed_version" db:"embed_version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	LastUpdated   time.Time       `json:"last_updated" db:"last_updated"`
}

// Collection represents a curated group of visualizations.
type Collection struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Source is the decoded form of one data source attribution.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// EncodeSource packs a source into the "text|url" storage form. A source
// without a URL stores the bare text.
func EncodeSource(s Source) string {
	if s.URL == "" {
		return s.Text
	}
	return s.Text + "|" + s.URL
}

// DecodeSource unpacks the "text|url" storage form. Only the first pipe
// splits; URLs containing pipes are not supported.
func DecodeSource(encoded string) Source {
	text, url, found := strings.Cut(encoded, "|")
	if !found {
		return Source{Text: strings.TrimSpace(encoded)}
	}
	return Source{Text: strings.TrimSpace(text), URL: strings.TrimSpace(url)}
}

// encodeStringList marshals a string slice for a TEXT column. Nil encodes as
// an empty array so reads never see SQL NULL.
func encodeStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeStringList unmarshals a TEXT column into a string slice.
func decodeStringList(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, err
	}
	return list, nil
}
