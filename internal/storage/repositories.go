package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals an optimistic concurrency failure: the row changed
	// since the caller read it.
	ErrConflict      = errors.New("record conflict")
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const vizColumns = `id, title, slug, summary, tags, collection_ids, sources,
	status, template_id, chart_spec, dataset_file, embed_version, created_at, last_updated`

// VisualizationRepository handles visualization CRUD operations.
type VisualizationRepository struct {
	db DB
}

// NewVisualizationRepository creates a new visualization repository.
func NewVisualizationRepository(db DB) *VisualizationRepository {
	return &VisualizationRepository{db: db}
}

// Create creates a new visualization.
func (r *VisualizationRepository) Create(ctx context.Context, viz *Visualization) error {
	if viz.ID == uuid.Nil {
		viz.ID = uuid.New()
	}
	if viz.Status == "" {
		viz.Status = VizStatusDraft
	}
	if viz.Slug == "" {
		viz.Slug = Slugify(viz.Title)
	}
	viz.CreatedAt = time.Now().UTC()
	viz.LastUpdated = viz.CreatedAt

	tags, err := encodeStringList(viz.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	collections, err := encodeStringList(viz.CollectionIDs)
	if err != nil {
		return fmt.Errorf("encode collection ids: %w", err)
	}
	sources, err := encodeStringList(viz.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	query := `
		INSERT INTO visualizations (` + vizColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		viz.ID, viz.Title, viz.Slug, viz.Summary, tags, collections, sources,
		viz.Status, viz.TemplateID, string(viz.ChartSpec), viz.DatasetFile,
		viz.EmbedVersion, viz.CreatedAt, viz.LastUpdated,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateSlug, viz.Slug)
	}
	return err
}

// GetByID retrieves a visualization by ID.
func (r *VisualizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Visualization, error) {
	query := `SELECT ` + vizColumns + ` FROM visualizations WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a visualization by slug.
func (r *VisualizationRepository) GetBySlug(ctx context.Context, slug string) (*Visualization, error) {
	query := `SELECT ` + vizColumns + ` FROM visualizations WHERE slug = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// List lists visualizations, optionally filtered by status, newest first.
func (r *VisualizationRepository) List(ctx context.Context, status VizStatus, limit, offset int) ([]*Visualization, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + vizColumns + ` FROM visualizations`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY last_updated DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vizzes []*Visualization
	for rows.Next() {
		viz, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		vizzes = append(vizzes, viz)
	}
	return vizzes, rows.Err()
}

// ListByCollection lists visualizations tagged with a collection ID.
func (r *VisualizationRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*Visualization, error) {
	// collection_ids is a JSON array in a TEXT column; the LIKE match is
	// against the quoted UUID, which cannot appear as a substring of
	// another UUID.
	query := `SELECT ` + vizColumns + ` FROM visualizations
		WHERE collection_ids LIKE $1 ORDER BY last_updated DESC`
	rows, err := r.db.QueryContext(ctx, query, `%"`+collectionID.String()+`"%`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vizzes []*Visualization
	for rows.Next() {
		viz, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		vizzes = append(vizzes, viz)
	}
	return vizzes, rows.Err()
}

// Update persists changes to a visualization. The caller passes the
// last_updated value it read; if the row changed since, Update returns
// ErrConflict and writes nothing.
func (r *VisualizationRepository) Update(ctx context.Context, viz *Visualization, readAt time.Time) error {
	tags, err := encodeStringList(viz.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	collections, err := encodeStringList(viz.CollectionIDs)
	if err != nil {
		return fmt.Errorf("encode collection ids: %w", err)
	}
	sources, err := encodeStringList(viz.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	viz.LastUpdated = time.Now().UTC()

	query := `
		UPDATE visualizations
		SET title = $1, slug = $2, summary = $3, tags = $4, collection_ids = $5,
			sources = $6, status = $7, template_id = $8, chart_spec = $9,
			dataset_file = $10, embed_version = $11, last_updated = $12
		WHERE id = $13 AND last_updated = $14
	`
	res, err := r.db.ExecContext(ctx, query,
		viz.Title, viz.Slug, viz.Summary, tags, collections, sources,
		viz.Status, viz.TemplateID, string(viz.ChartSpec), viz.DatasetFile,
		viz.EmbedVersion, viz.LastUpdated, viz.ID, readAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or someone updated it first.
		if _, getErr := r.GetByID(ctx, viz.ID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// UpdateStatus transitions a visualization's publication status.
func (r *VisualizationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status VizStatus) error {
	query := `UPDATE visualizations SET status = $1, last_updated = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a visualization.
func (r *VisualizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visualizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *VisualizationRepository) scanOne(row *sql.Row) (*Visualization, error) {
	viz, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return viz, err
}

func (r *VisualizationRepository) scanRow(row rowScanner) (*Visualization, error) {
	viz := &Visualization{}
	var tags, collections, sources, spec string
	err := row.Scan(
		&viz.ID, &viz.Title, &viz.Slug, &viz.Summary, &tags, &collections, &sources,
		&viz.Status, &viz.TemplateID, &spec, &viz.DatasetFile,
		&viz.EmbedVersion, &viz.CreatedAt, &viz.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if viz.Tags, err = decodeStringList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if viz.CollectionIDs, err = decodeStringList(collections); err != nil {
		return nil, fmt.Errorf("decode collection ids: %w", err)
	}
	if viz.Sources, err = decodeStringList(sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	viz.ChartSpec = []byte(spec)
	return viz, nil
}

// CollectionRepository handles collection CRUD operations.
type CollectionRepository struct {
	db DB
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create creates a new collection.
func (r *CollectionRepository) Create(ctx context.Context, col *Collection) error {
	if col.ID == uuid.Nil {
		col.ID = uuid.New()
	}
	if col.Slug == "" {
		col.Slug = Slugify(col.Name)
	}
	col.CreatedAt = time.Now().UTC()
	col.UpdatedAt = col.CreatedAt

	query := `
		INSERT INTO collections (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		col.ID, col.Name, col.Slug, col.Description, col.CreatedAt, col.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateSlug, col.Slug)
	}
	return err
}

// GetByID retrieves a collection by ID.
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Collection, error) {
	query := `
		SELECT id, name, slug, description, created_at, updated_at
		FROM collections WHERE id = $1
	`
	col := &Collection{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&col.ID, &col.Name, &col.Slug, &col.Description, &col.CreatedAt, &col.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return col, err
}

// List lists all collections by name.
func (r *CollectionRepository) List(ctx context.Context) ([]*Collection, error) {
	query := `
		SELECT id, name, slug, description, created_at, updated_at
		FROM collections ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []*Collection
	for rows.Next() {
		col := &Collection{}
		if err := rows.Scan(
			&col.ID, &col.Name, &col.Slug, &col.Description, &col.CreatedAt, &col.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Delete removes a collection.
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation matches unique constraint errors across both supported
// drivers without importing driver-specific error types here.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
