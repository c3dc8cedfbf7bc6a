package storage

import (
	"context"
	"time"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying the garment catalog
type Storage interface {
	// Garment operations
	CreateGarment(ctx context.Context, garment *types.Garment) error
	GetGarment(ctx context.Context, id int64) (*types.Garment, error)
	ListGarments(ctx context.Context) ([]types.Garment, error)
	ListByCategory(ctx context.Context, category string) ([]types.Garment, error)
	UpdateGarment(ctx context.Context, id int64, patch *types.GarmentPatch) (*UpdateResult, error)
	DeleteGarment(ctx context.Context, id int64) error
	CountGarments(ctx context.Context) (int, error)

	// Search operations
	SearchGarments(ctx context.Context, term string) ([]types.Garment, error)
	GarmentsByCriteria(ctx context.Context, criteria types.Criteria) ([]types.Garment, error)
	ListCategories(ctx context.Context) ([]string, error)

	// Chat history operations
	SaveChatHistory(ctx context.Context, userMessage, botResponse string) (*types.ChatExchange, error)
	RecentChatHistory(ctx context.Context, limit int) ([]types.ChatExchange, error)

	// Status operations
	GetStatus(ctx context.Context) (*CatalogStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// UpdateResult describes an applied garment update
type UpdateResult struct {
	Garment *types.Garment
	// Changed lists the columns whose value actually changed
	Changed []string
}

// CatalogStatus contains statistics about the catalog database
type CatalogStatus struct {
	GarmentCount   int
	AvailableCount int
	CategoryCount  int
	ChatCount      int
	SchemaVersion  string
	DatabaseSizeMB float64
	BuildMode      string
	LastUpdatedAt  time.Time
	Health         HealthStatus
}

// HealthStatus represents the health of the catalog database
type HealthStatus struct {
	DatabaseAccessible bool
	CatalogSeeded      bool
}
