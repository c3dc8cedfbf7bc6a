package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() {
		_ = storage.Close()
	})
	return storage
}

func testGarments() []types.Garment {
	return []types.Garment{
		{Name: "Banarasi Silk Saree", Category: "Saree", FabricType: "Silk", Sizes: "Free Size",
			Price: 149.99, Available: true, Description: "Handwoven 100% silk with zari border",
			Gender: "Women", Season: "All", Region: "North", Occasion: "Wedding"},
		{Name: "Cotton Kurta Pajama", Category: "Kurta Pajama", FabricType: "Cotton", Sizes: "S,M,L,XL",
			Price: 39.99, Available: true, Description: "Breathable daily wear set",
			Gender: "Men", Season: "Summer", Region: "North", Occasion: "Casual"},
		{Name: "Bridal Lehenga Choli", Category: "Lehenga", FabricType: "Velvet", Sizes: "S,M,L",
			Price: 499.99, Available: false, Description: "Heavy embroidery for the wedding day",
			Gender: "Women", Season: "Winter", Region: "North", Occasion: "Wedding"},
		{Name: "Kanjivaram Silk Saree", Category: "Saree", FabricType: "Kanjivaram Silk", Sizes: "Free Size",
			Price: 229.99, Available: true, Description: "Temple border silk_saree",
			Gender: "Women", Season: "All", Region: "South", Occasion: "Festival"},
	}
}

func seed(t *testing.T, s *SQLiteStorage) []types.Garment {
	ctx := context.Background()
	garments := testGarments()
	for i := range garments {
		require.NoError(t, s.CreateGarment(ctx, &garments[i]))
	}
	return garments
}

func strPtr(s string) *string { return &s }

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var rows int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, len(AllMigrations), rows)
}

func TestRollbackMigration(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version.String())

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", version.String())

	assert.Error(t, RollbackMigration(ctx, storage.db))

	// Migrating again restores the full schema
	require.NoError(t, ApplyMigrations(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())
}

func TestCreateGarment(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	g := testGarments()[0]
	require.NoError(t, storage.CreateGarment(ctx, &g))
	assert.Greater(t, g.ID, int64(0))
	assert.False(t, g.CreatedAt.IsZero())

	got, err := storage.GetGarment(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, got.Name)
	assert.Equal(t, g.Price, got.Price)
	assert.True(t, got.Available)
	assert.Equal(t, "Wedding", got.Occasion)

	invalid := types.Garment{Name: "No category", FabricType: "Silk", Sizes: "M"}
	err = storage.CreateGarment(ctx, &invalid)
	assert.ErrorIs(t, err, types.ErrInvalidGarment)
}

func TestGetGarment_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	_, err := storage.GetGarment(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGarments(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	empty, err := storage.ListGarments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	seed(t, storage)
	all, err := storage.ListGarments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Banarasi Silk Saree", all[0].Name)

	count, err := storage.CountGarments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	sarees, err := storage.ListByCategory(ctx, "Saree")
	require.NoError(t, err)
	assert.Len(t, sarees, 2)
}

func TestSearchGarments(t *testing.T) {
	storage := setupTestDB(t)
	seed(t, storage)
	ctx := context.Background()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"by name", "banarasi", []string{"Banarasi Silk Saree"}},
		{"by category", "lehenga", []string{"Bridal Lehenga Choli"}},
		{"by description", "daily wear", []string{"Cotton Kurta Pajama"}},
		{"percent is literal", "100%", []string{"Banarasi Silk Saree"}},
		{"underscore is literal", "silk_saree", []string{"Kanjivaram Silk Saree"}},
		{"no match", "tuxedo", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.SearchGarments(ctx, tt.term)
			require.NoError(t, err)
			var names []string
			for _, g := range got {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGarmentsByCriteria(t *testing.T) {
	storage := setupTestDB(t)
	seed(t, storage)
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria types.Criteria
		want     int
	}{
		{"empty matches all", types.Criteria{}, 4},
		{"nil matches all", nil, 4},
		{"single dimension", types.Criteria{types.DimensionOccasion: "Wedding"}, 2},
		{"and-ed dimensions", types.Criteria{types.DimensionOccasion: "Wedding", types.DimensionCategory: "Saree"}, 1},
		{"substring match", types.Criteria{types.DimensionFabric: "Silk"}, 2},
		{"case-insensitive", types.Criteria{types.DimensionGender: "women"}, 3},
		{"substring spans values", types.Criteria{types.DimensionGender: "Men"}, 4},
		{"no match", types.Criteria{types.DimensionRegion: "East"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.GarmentsByCriteria(ctx, tt.criteria)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestListCategories(t *testing.T) {
	storage := setupTestDB(t)
	seed(t, storage)

	categories, err := storage.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kurta Pajama", "Lehenga", "Saree"}, categories)
}

func TestUpdateGarment(t *testing.T) {
	storage := setupTestDB(t)
	garments := seed(t, storage)
	ctx := context.Background()
	id := garments[0].ID

	price := 129.5
	result, err := storage.UpdateGarment(ctx, id, &types.GarmentPatch{
		Price:    &price,
		Category: strPtr("Saree"), // unchanged
		ImageURL: strPtr("https://example.com/saree.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "image_url"}, result.Changed)
	assert.Equal(t, 129.5, result.Garment.Price)
	assert.Equal(t, "https://example.com/saree.png", result.Garment.ImageURL)

	stored, err := storage.GetGarment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 129.5, stored.Price)
	assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
}

func TestUpdateGarment_NoChange(t *testing.T) {
	storage := setupTestDB(t)
	garments := seed(t, storage)

	result, err := storage.UpdateGarment(context.Background(), garments[1].ID, &types.GarmentPatch{
		Name: strPtr(garments[1].Name),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Changed)
	assert.Equal(t, garments[1].Name, result.Garment.Name)
}

func TestUpdateGarment_Errors(t *testing.T) {
	storage := setupTestDB(t)
	garments := seed(t, storage)
	ctx := context.Background()

	_, err := storage.UpdateGarment(ctx, 999, &types.GarmentPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.UpdateGarment(ctx, garments[0].ID, &types.GarmentPatch{})
	assert.ErrorIs(t, err, types.ErrInvalidPatch)

	// A patch that breaks validation leaves the row untouched
	_, err = storage.UpdateGarment(ctx, garments[0].ID, &types.GarmentPatch{
		Name:     strPtr("Renamed"),
		Category: strPtr(" "),
	})
	assert.ErrorIs(t, err, types.ErrInvalidGarment)

	stored, err := storage.GetGarment(ctx, garments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, garments[0].Name, stored.Name)
}

func TestDeleteGarment(t *testing.T) {
	storage := setupTestDB(t)
	garments := seed(t, storage)
	ctx := context.Background()

	require.NoError(t, storage.DeleteGarment(ctx, garments[2].ID))
	_, err := storage.GetGarment(ctx, garments[2].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, storage.DeleteGarment(ctx, garments[2].ID), ErrNotFound)
}

func TestChatHistory(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		ex, err := storage.SaveChatHistory(ctx, msg, "reply to "+msg)
		require.NoError(t, err)
		assert.Greater(t, ex.ID, int64(0))
	}

	recent, err := storage.RecentChatHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].UserMessage)
	assert.Equal(t, "second", recent[1].UserMessage)

	all, err := storage.RecentChatHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransaction(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		g := testGarments()[0]
		require.NoError(t, tx.CreateGarment(ctx, &g))

		inTx, err := tx.CountGarments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, inTx)

		require.NoError(t, tx.Commit())

		count, err := storage.CountGarments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("rollback", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		g := testGarments()[1]
		require.NoError(t, tx.CreateGarment(ctx, &g))
		require.NoError(t, tx.Rollback())

		count, err := storage.CountGarments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("nested", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)
		defer func() {
			_ = tx.Rollback()
		}()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.False(t, status.Health.CatalogSeeded)
	assert.True(t, status.LastUpdatedAt.IsZero())

	seed(t, storage)
	_, err = storage.SaveChatHistory(ctx, "hi", "hello")
	require.NoError(t, err)

	status, err = storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, status.GarmentCount)
	assert.Equal(t, 3, status.AvailableCount)
	assert.Equal(t, 3, status.CategoryCount)
	assert.Equal(t, 1, status.ChatCount)
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.Equal(t, BuildMode, status.BuildMode)
	assert.True(t, status.Health.CatalogSeeded)
	assert.False(t, status.LastUpdatedAt.IsZero())
	assert.Greater(t, status.DatabaseSizeMB, 0.0)
}
