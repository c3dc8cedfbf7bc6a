package importer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dshills/garmentfinder-mcp/internal/storage"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

//go:embed sample.yaml
var sampleDocument []byte

// DefaultBatchSize is the number of garments committed per transaction
const DefaultBatchSize = 20

var (
	// ErrImportInProgress is returned when another import holds the lock
	ErrImportInProgress = errors.New("import already in progress")
	// ErrInvalidCatalogFile is returned for unreadable catalog documents
	ErrInvalidCatalogFile = errors.New("invalid catalog file")
)

// Invalidator drops cached catalog reads after an import.
// *catalog.Service implements it.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Importer loads garments into storage in batched transactions
type Importer struct {
	storage     storage.Storage
	invalidator Invalidator
	lock        ImportLock
	logger      zerolog.Logger
}

// Config contains configuration for an import
type Config struct {
	BatchSize int // Number of garments to commit per transaction (default: 20)
	// OnlyIfEmpty skips the import when the catalog already has garments
	OnlyIfEmpty bool
	// SkipExisting skips garments whose name and category are already stored.
	// Repeats within one document are always skipped.
	SkipExisting bool
}

// Statistics contains statistics about an import
type Statistics struct {
	GarmentsImported int
	GarmentsSkipped  int
	GarmentsInvalid  int
	Duration         time.Duration
	ErrorMessages    []string
}

// catalogFile is the YAML shape of a catalog document
type catalogFile struct {
	Garments []types.Garment `yaml:"garments"`
}

// New creates an importer. invalidator may be nil.
func New(store storage.Storage, invalidator Invalidator, logger zerolog.Logger) *Importer {
	return &Importer{
		storage:     store,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "importer").Logger(),
	}
}

// SampleCatalog returns the embedded sample garments
func SampleCatalog() ([]types.Garment, error) {
	return parseCatalog(sampleDocument)
}

// LoadFile reads garments from a YAML catalog file
func LoadFile(path string) ([]types.Garment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) ([]types.Garment, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogFile, err)
	}
	return doc.Garments, nil
}

// ImportSample imports the embedded sample catalog
func (im *Importer) ImportSample(ctx context.Context, config *Config) (*Statistics, error) {
	garments, err := SampleCatalog()
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, garments, config)
}

// ImportFile imports a YAML catalog file
func (im *Importer) ImportFile(ctx context.Context, path string, config *Config) (*Statistics, error) {
	garments, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, garments, config)
}

// Import validates and stores garments. Invalid garments are counted and
// reported in the statistics; they do not fail the import.
func (im *Importer) Import(ctx context.Context, garments []types.Garment, config *Config) (*Statistics, error) {
	if !im.lock.TryAcquire() {
		return nil, ErrImportInProgress
	}
	defer im.lock.Release()

	if config == nil {
		config = &Config{BatchSize: DefaultBatchSize}
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Lookups run before any transaction holds the connection
	if config.OnlyIfEmpty {
		count, err := im.storage.CountGarments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count garments: %w", err)
		}
		if count > 0 {
			stats.GarmentsSkipped = len(garments)
			stats.Duration = time.Since(startTime)
			im.logger.Info().Int("existing", count).Msg("catalog not empty, import skipped")
			return stats, nil
		}
	}

	// Name and category identify a garment within one document. Stored
	// garments join the set only with SkipExisting.
	existing := make(map[string]bool)
	if config.SkipExisting {
		var err error
		existing, err = im.existingKeys(ctx)
		if err != nil {
			return nil, err
		}
	}

	pending := make([]types.Garment, 0, len(garments))
	for i, g := range garments {
		if err := g.Validate(); err != nil {
			stats.GarmentsInvalid++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("garment %d (%q): %v", i+1, g.Name, err))
			continue
		}
		key := garmentKey(g)
		if existing[key] {
			stats.GarmentsSkipped++
			continue
		}
		existing[key] = true
		pending = append(pending, g)
	}

	for i := 0; i < len(pending); i += batchSize {
		end := i + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := im.importBatch(ctx, pending[i:end]); err != nil {
			// Earlier batches stay committed
			if stats.GarmentsImported > 0 {
				im.invalidate(ctx)
			}
			return nil, fmt.Errorf("failed to import garments: %w", err)
		}
		stats.GarmentsImported += end - i
	}

	if stats.GarmentsImported > 0 {
		im.invalidate(ctx)
	}

	stats.Duration = time.Since(startTime)
	im.logger.Info().
		Int("imported", stats.GarmentsImported).
		Int("skipped", stats.GarmentsSkipped).
		Int("invalid", stats.GarmentsInvalid).
		Dur("duration", stats.Duration).
		Msg("catalog import completed")

	return stats, nil
}

// importBatch stores a batch of garments within a transaction
func (im *Importer) importBatch(ctx context.Context, batch []types.Garment) error {
	tx, err := im.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		g := batch[i]
		if err := tx.CreateGarment(ctx, &g); err != nil {
			return fmt.Errorf("%s: %w", g.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (im *Importer) existingKeys(ctx context.Context) (map[string]bool, error) {
	stored, err := im.storage.ListGarments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list garments: %w", err)
	}
	keys := make(map[string]bool, len(stored))
	for _, g := range stored {
		keys[garmentKey(g)] = true
	}
	return keys, nil
}

func (im *Importer) invalidate(ctx context.Context) {
	if im.invalidator != nil {
		im.invalidator.Invalidate(ctx)
	}
}

func garmentKey(g types.Garment) string {
	return strings.ToLower(strings.TrimSpace(g.Name)) + "\x00" + strings.ToLower(strings.TrimSpace(g.Category))
}
