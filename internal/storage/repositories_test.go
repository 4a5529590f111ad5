package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestVisualizationCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewVisualizationRepository(db)

	viz := &Visualization{
		Title:      "İşsizlik Oranı",
		Tags:       []string{"ekonomi"},
		Sources:    []string{EncodeSource(Source{Text: "TÜİK", URL: "https://tuik.gov.tr"})},
		TemplateID: "line",
		ChartSpec:  json.RawMessage(`{"$schema":"x"}`),
	}
	require.NoError(t, repo.Create(ctx, viz))
	assert.Equal(t, "issizlik-orani", viz.Slug)
	assert.Equal(t, VizStatusDraft, viz.Status)

	got, err := repo.GetByID(ctx, viz.ID)
	require.NoError(t, err)
	assert.Equal(t, viz.Title, got.Title)
	assert.Equal(t, []string{"ekonomi"}, got.Tags)
	assert.JSONEq(t, `{"$schema":"x"}`, string(got.ChartSpec))

	bySlug, err := repo.GetBySlug(ctx, "issizlik-orani")
	require.NoError(t, err)
	assert.Equal(t, viz.ID, bySlug.ID)

	got.Title = "İşsizlik Oranı (Güncel)"
	require.NoError(t, repo.Update(ctx, got, got.LastUpdated))

	require.NoError(t, repo.Delete(ctx, viz.ID))
	_, err = repo.GetByID(ctx, viz.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, viz.ID), ErrNotFound)
}

func TestVisualizationDuplicateSlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewVisualizationRepository(db)

	require.NoError(t, repo.Create(ctx, &Visualization{Title: "Nüfus"}))
	err := repo.Create(ctx, &Visualization{Title: "Nüfus"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestVisualizationOptimisticConcurrency(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewVisualizationRepository(db)

	viz := &Visualization{Title: "Enflasyon"}
	require.NoError(t, repo.Create(ctx, viz))

	first, err := repo.GetByID(ctx, viz.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, viz.ID)
	require.NoError(t, err)

	first.Summary = ptr("ilk güncelleme")
	require.NoError(t, repo.Update(ctx, first, first.LastUpdated))

	// The second writer read the row before the first write landed.
	second.Summary = ptr("ikinci güncelleme")
	err = repo.Update(ctx, second, second.LastUpdated)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestVisualizationListFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewVisualizationRepository(db)

	a := &Visualization{Title: "A", Status: VizStatusPublished}
	b := &Visualization{Title: "B"}
	require.NoError(t, repo.Create(ctx, a))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.Create(ctx, b))

	all, err := repo.List(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].Title, "newest first")

	published, err := repo.List(ctx, VizStatusPublished, 10, 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "A", published[0].Title)
}

func TestVisualizationStatusTransition(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewVisualizationRepository(db)

	viz := &Visualization{Title: "Göç"}
	require.NoError(t, repo.Create(ctx, viz))
	require.NoError(t, repo.UpdateStatus(ctx, viz.ID, VizStatusPublished))

	got, err := repo.GetByID(ctx, viz.ID)
	require.NoError(t, err)
	assert.Equal(t, VizStatusPublished, got.Status)
}

func TestCollectionCRUDAndMembership(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	cols := NewCollectionRepository(db)
	vizzes := NewVisualizationRepository(db)

	col := &Collection{Name: "Seçim 2023"}
	require.NoError(t, cols.Create(ctx, col))
	assert.Equal(t, "secim-2023", col.Slug)

	viz := &Visualization{Title: "Katılım Oranı", CollectionIDs: []string{col.ID.String()}}
	require.NoError(t, vizzes.Create(ctx, viz))
	other := &Visualization{Title: "Başka"}
	require.NoError(t, vizzes.Create(ctx, other))

	members, err := vizzes.ListByCollection(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, viz.ID, members[0].ID)

	listed, err := cols.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, cols.Delete(ctx, col.ID))
	assert.ErrorIs(t, cols.Delete(ctx, col.ID), ErrNotFound)
}

func ptr(s string) *string { return &s }
