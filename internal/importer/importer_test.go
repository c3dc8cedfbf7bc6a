package importer

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/garmentfinder-mcp/internal/storage"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls.Add(1)
}

func setupImporter(t *testing.T) (*Importer, *storage.SQLiteStorage, *countingInvalidator) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	inv := &countingInvalidator{}
	return New(store, inv, zerolog.Nop()), store, inv
}

func TestSampleCatalog(t *testing.T) {
	garments, err := SampleCatalog()
	require.NoError(t, err)
	require.Len(t, garments, 23)

	perCategory := map[string]int{}
	for _, g := range garments {
		require.NoError(t, g.Validate(), g.Name)
		perCategory[g.Category]++
	}
	assert.Equal(t, map[string]int{
		"Saree":         4,
		"Lehenga":       3,
		"Salwar Kameez": 3,
		"Kurta Pajama":  3,
		"Sherwani":      2,
		"Dhoti":         2,
		"Nehru Jacket":  2,
		"Indo-Western":  2,
		"Vesti":         2,
	}, perCategory)

	first := garments[0]
	assert.Equal(t, "Banarasi Silk Saree", first.Name)
	assert.Equal(t, 149.99, first.Price)
	assert.True(t, first.Available)
	assert.Equal(t, "Free Size", first.Sizes)
	assert.Equal(t, "Wedding", first.Occasion)
}

func TestImportSample(t *testing.T) {
	im, store, inv := setupImporter(t)
	ctx := context.Background()

	stats, err := im.ImportSample(ctx, &Config{BatchSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 23, stats.GarmentsImported)
	assert.Zero(t, stats.GarmentsInvalid)
	assert.Equal(t, int32(1), inv.calls.Load())

	count, err := store.CountGarments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 23, count)

	weddings, err := store.GarmentsByCriteria(ctx, types.Criteria{
		types.DimensionOccasion: "Wedding",
		types.DimensionFabric:   "Silk",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, weddings)
}

func TestImport_OnlyIfEmpty(t *testing.T) {
	im, store, inv := setupImporter(t)
	ctx := context.Background()

	_, err := im.ImportSample(ctx, &Config{OnlyIfEmpty: true})
	require.NoError(t, err)

	stats, err := im.ImportSample(ctx, &Config{OnlyIfEmpty: true})
	require.NoError(t, err)
	assert.Zero(t, stats.GarmentsImported)
	assert.Equal(t, 23, stats.GarmentsSkipped)
	assert.Equal(t, int32(1), inv.calls.Load())

	count, err := store.CountGarments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 23, count)
}

func TestImport_SkipExisting(t *testing.T) {
	im, store, _ := setupImporter(t)
	ctx := context.Background()

	existing := types.Garment{Name: "banarasi silk saree", Category: "SAREE", FabricType: "Silk", Sizes: "Free Size", Price: 10}
	require.NoError(t, store.CreateGarment(ctx, &existing))

	garments, err := SampleCatalog()
	require.NoError(t, err)
	// A duplicate inside the document itself is skipped too
	garments = append(garments, garments[1])

	stats, err := im.Import(ctx, garments, &Config{SkipExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 22, stats.GarmentsImported)
	assert.Equal(t, 2, stats.GarmentsSkipped)
}

func TestImport_DocumentDuplicatesWithoutSkipExisting(t *testing.T) {
	im, store, _ := setupImporter(t)
	ctx := context.Background()

	stored := types.Garment{Name: "Chanderi Kurta", Category: "Kurta", FabricType: "Chanderi", Sizes: "M", Price: 45}
	require.NoError(t, store.CreateGarment(ctx, &stored))

	garments := []types.Garment{
		{Name: "Chanderi Kurta", Category: "Kurta", FabricType: "Chanderi", Sizes: "M", Price: 45},
		{Name: "Tussar Saree", Category: "Saree", FabricType: "Tussar", Sizes: "Free Size", Price: 89.5},
		{Name: " tussar saree", Category: "SAREE", FabricType: "Tussar", Sizes: "Free Size", Price: 79},
	}

	stats, err := im.Import(ctx, garments, &Config{SkipExisting: false})
	require.NoError(t, err)
	// The stored kurta is imported again; the repeated saree is not
	assert.Equal(t, 2, stats.GarmentsImported)
	assert.Equal(t, 1, stats.GarmentsSkipped)

	count, err := store.CountGarments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestImport_InvalidGarments(t *testing.T) {
	im, store, _ := setupImporter(t)
	ctx := context.Background()

	garments := []types.Garment{
		{Name: "Chanderi Kurta", Category: "Kurta", FabricType: "Chanderi", Sizes: "M", Price: 45},
		{Name: "", Category: "Kurta", FabricType: "Cotton", Sizes: "M", Price: 10},
		{Name: "Negative", Category: "Kurta", FabricType: "Cotton", Sizes: "M", Price: -1},
	}

	stats, err := im.Import(ctx, garments, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GarmentsImported)
	assert.Equal(t, 2, stats.GarmentsInvalid)
	require.Len(t, stats.ErrorMessages, 2)
	assert.Contains(t, stats.ErrorMessages[0], "garment 2")
	assert.Contains(t, stats.ErrorMessages[1], "price")

	count, err := store.CountGarments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImport_InProgress(t *testing.T) {
	im, _, _ := setupImporter(t)

	require.True(t, im.lock.TryAcquire())
	_, err := im.ImportSample(context.Background(), nil)
	assert.ErrorIs(t, err, ErrImportInProgress)

	im.lock.Release()
	_, err = im.ImportSample(context.Background(), nil)
	assert.NoError(t, err)
}

func TestImport_Cancelled(t *testing.T) {
	im, store, inv := setupImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.ImportSample(ctx, nil)
	require.Error(t, err)
	assert.Zero(t, inv.calls.Load())

	count, err := store.CountGarments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportFile(t *testing.T) {
	im, _, _ := setupImporter(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "catalog.yaml")
	doc := `garments:
  - name: Chikankari Kurta
    category: Kurta
    fabric_type: Georgette
    sizes: "S,M,L"
    price: 54.5
    available: true
    gender: Women
    region: North
    occasion: Casual
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	stats, err := im.ImportFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GarmentsImported)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("garments: {not: [a list"), 0o600))
	_, err = im.ImportFile(context.Background(), bad, nil)
	assert.ErrorIs(t, err, ErrInvalidCatalogFile)

	_, err = im.ImportFile(context.Background(), filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestImportLock(t *testing.T) {
	var lock ImportLock
	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
}
