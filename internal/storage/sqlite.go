package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrVerifyFailed is returned when a written row does not read back as written
	ErrVerifyFailed = errors.New("update verification failed")
)

// DefaultChatHistoryLimit is used when RecentChatHistory is called with limit <= 0
const DefaultChatHistoryLimit = 10

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// garmentColumns is the projection shared by every garment query
const garmentColumns = `id, name, category, fabric_type, sizes, price, available,
	COALESCE(description, ''), COALESCE(gender, ''), COALESCE(season, ''),
	COALESCE(image_url, ''), COALESCE(buy_link, ''), COALESCE(region, ''),
	COALESCE(occasion, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGarment(row rowScanner) (*types.Garment, error) {
	var g types.Garment
	err := row.Scan(&g.ID, &g.Name, &g.Category, &g.FabricType, &g.Sizes, &g.Price, &g.Available,
		&g.Description, &g.Gender, &g.Season, &g.ImageURL, &g.BuyLink, &g.Region,
		&g.Occasion, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func queryGarments(ctx context.Context, q querier, query string, args ...interface{}) ([]types.Garment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	garments := []types.Garment{}
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		garments = append(garments, *g)
	}
	return garments, rows.Err()
}

// escapeLike escapes LIKE wildcards so user text matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Garment operations

func (s *SQLiteStorage) createGarmentWithQuerier(ctx context.Context, q querier, garment *types.Garment) error {
	if err := garment.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO garments (name, category, fabric_type, sizes, price, available, description,
			gender, season, image_url, buy_link, region, occasion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		garment.Name, garment.Category, garment.FabricType, garment.Sizes, garment.Price,
		garment.Available, garment.Description, garment.Gender, garment.Season,
		garment.ImageURL, garment.BuyLink, garment.Region, garment.Occasion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create garment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	garment.ID = id
	garment.CreatedAt = now
	garment.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateGarment(ctx context.Context, garment *types.Garment) error {
	return s.createGarmentWithQuerier(ctx, s.querier(), garment)
}

func (s *SQLiteStorage) getGarmentWithQuerier(ctx context.Context, q querier, id int64) (*types.Garment, error) {
	row := q.QueryRowContext(ctx, "SELECT "+garmentColumns+" FROM garments WHERE id = ?", id)
	g, err := scanGarment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get garment %d: %w", id, err)
	}
	return g, nil
}

func (s *SQLiteStorage) GetGarment(ctx context.Context, id int64) (*types.Garment, error) {
	return s.getGarmentWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) listGarmentsWithQuerier(ctx context.Context, q querier) ([]types.Garment, error) {
	return queryGarments(ctx, q, "SELECT "+garmentColumns+" FROM garments ORDER BY id")
}

func (s *SQLiteStorage) ListGarments(ctx context.Context) ([]types.Garment, error) {
	return s.listGarmentsWithQuerier(ctx, s.querier())
}

func (s *SQLiteStorage) listByCategoryWithQuerier(ctx context.Context, q querier, category string) ([]types.Garment, error) {
	return queryGarments(ctx, q, "SELECT "+garmentColumns+" FROM garments WHERE category = ? ORDER BY id", category)
}

func (s *SQLiteStorage) ListByCategory(ctx context.Context, category string) ([]types.Garment, error) {
	return s.listByCategoryWithQuerier(ctx, s.querier(), category)
}

// updateGarmentWithQuerier applies a patch, writes only the changed columns
// and reads the row back to verify the write
func (s *SQLiteStorage) updateGarmentWithQuerier(ctx context.Context, q querier, id int64, patch *types.GarmentPatch) (*UpdateResult, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", types.ErrInvalidPatch)
	}

	garment, err := s.getGarmentWithQuerier(ctx, q, id)
	if err != nil {
		return nil, err
	}

	changed := patch.Apply(garment)
	if len(changed) == 0 {
		return &UpdateResult{Garment: garment, Changed: []string{}}, nil
	}
	if err := garment.Validate(); err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(changed)+1)
	args := make([]interface{}, 0, len(changed)+2)
	for _, column := range changed {
		sets = append(sets, column+" = ?")
		args = append(args, columnValue(garment, column))
	}
	now := time.Now().UTC()
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	// Column names come from GarmentPatch.Apply, never from caller input
	query := "UPDATE garments SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update garment %d: %w", id, err)
	}

	stored, err := s.getGarmentWithQuerier(ctx, q, id)
	if err != nil {
		return nil, err
	}
	for _, column := range changed {
		if columnValue(stored, column) != columnValue(garment, column) {
			return nil, fmt.Errorf("%w: %s of garment %d", ErrVerifyFailed, column, id)
		}
	}

	return &UpdateResult{Garment: stored, Changed: changed}, nil
}

// UpdateGarment runs the whole read-modify-verify cycle in one transaction
func (s *SQLiteStorage) UpdateGarment(ctx context.Context, id int64, patch *types.GarmentPatch) (*UpdateResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.updateGarmentWithQuerier(ctx, tx, id, patch)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit garment update: %w", err)
	}
	return result, nil
}

func columnValue(g *types.Garment, column string) interface{} {
	switch column {
	case "name":
		return g.Name
	case "category":
		return g.Category
	case "fabric_type":
		return g.FabricType
	case "sizes":
		return g.Sizes
	case "price":
		return g.Price
	case "available":
		return g.Available
	case "description":
		return g.Description
	case "gender":
		return g.Gender
	case "season":
		return g.Season
	case "image_url":
		return g.ImageURL
	case "buy_link":
		return g.BuyLink
	case "region":
		return g.Region
	case "occasion":
		return g.Occasion
	}
	return nil
}

func (s *SQLiteStorage) deleteGarmentWithQuerier(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM garments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete garment %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteGarment(ctx context.Context, id int64) error {
	return s.deleteGarmentWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) countGarmentsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM garments").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStorage) CountGarments(ctx context.Context) (int, error) {
	return s.countGarmentsWithQuerier(ctx, s.querier())
}

// Search operations

func (s *SQLiteStorage) searchGarmentsWithQuerier(ctx context.Context, q querier, term string) ([]types.Garment, error) {
	pattern := escapeLike(strings.TrimSpace(term))
	query := "SELECT " + garmentColumns + ` FROM garments
		WHERE name LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
		ORDER BY id`
	return queryGarments(ctx, q, query, pattern, pattern, pattern)
}

func (s *SQLiteStorage) SearchGarments(ctx context.Context, term string) ([]types.Garment, error) {
	return s.searchGarmentsWithQuerier(ctx, s.querier(), term)
}

// garmentsByCriteriaWithQuerier ANDs one substring match per constrained
// dimension. Empty criteria match the whole catalog.
func (s *SQLiteStorage) garmentsByCriteriaWithQuerier(ctx context.Context, q querier, criteria types.Criteria) ([]types.Garment, error) {
	var conditions []string
	var args []interface{}
	for _, dim := range criteria.Dimensions() {
		// Dimension values are the column names
		conditions = append(conditions, string(dim)+` LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(criteria[dim]))
	}

	query := "SELECT " + garmentColumns + " FROM garments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	return queryGarments(ctx, q, query, args...)
}

func (s *SQLiteStorage) GarmentsByCriteria(ctx context.Context, criteria types.Criteria) ([]types.Garment, error) {
	return s.garmentsByCriteriaWithQuerier(ctx, s.querier(), criteria)
}

func (s *SQLiteStorage) listCategoriesWithQuerier(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT DISTINCT category FROM garments ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]string, error) {
	return s.listCategoriesWithQuerier(ctx, s.querier())
}

// Chat history operations

func (s *SQLiteStorage) saveChatHistoryWithQuerier(ctx context.Context, q querier, userMessage, botResponse string) (*types.ChatExchange, error) {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx,
		"INSERT INTO chat_history (user_message, bot_response, timestamp) VALUES (?, ?, ?)",
		userMessage, botResponse, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save chat history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &types.ChatExchange{
		ID:          id,
		UserMessage: userMessage,
		BotResponse: botResponse,
		Timestamp:   now,
	}, nil
}

func (s *SQLiteStorage) SaveChatHistory(ctx context.Context, userMessage, botResponse string) (*types.ChatExchange, error) {
	return s.saveChatHistoryWithQuerier(ctx, s.querier(), userMessage, botResponse)
}

func (s *SQLiteStorage) recentChatHistoryWithQuerier(ctx context.Context, q querier, limit int) ([]types.ChatExchange, error) {
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, user_message, bot_response, timestamp
		FROM chat_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	history := []types.ChatExchange{}
	for rows.Next() {
		var ex types.ChatExchange
		if err := rows.Scan(&ex.ID, &ex.UserMessage, &ex.BotResponse, &ex.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, ex)
	}
	return history, rows.Err()
}

func (s *SQLiteStorage) RecentChatHistory(ctx context.Context, limit int) ([]types.ChatExchange, error) {
	return s.recentChatHistoryWithQuerier(ctx, s.querier(), limit)
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*CatalogStatus, error) {
	status := &CatalogStatus{
		BuildMode: BuildMode,
	}

	if err := s.db.PingContext(ctx); err != nil {
		return status, nil
	}
	status.Health.DatabaseAccessible = true

	count, err := s.countGarmentsWithQuerier(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.GarmentCount = count
	status.Health.CatalogSeeded = count > 0

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM garments WHERE available = 1").Scan(&status.AvailableCount)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT category) FROM garments").Scan(&status.CategoryCount)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_history").Scan(&status.ChatCount)
	if err != nil {
		return nil, err
	}

	// Selecting the column itself keeps its declared type for time scanning
	var lastUpdated time.Time
	err = s.db.QueryRowContext(ctx, "SELECT updated_at FROM garments ORDER BY updated_at DESC LIMIT 1").Scan(&lastUpdated)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, err
	default:
		status.LastUpdatedAt = lastUpdated
	}

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.String()

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}

// Transaction methods delegate to the WithQuerier implementations

func (t *sqliteTx) CreateGarment(ctx context.Context, garment *types.Garment) error {
	return t.storage.createGarmentWithQuerier(ctx, t.querier(), garment)
}

func (t *sqliteTx) GetGarment(ctx context.Context, id int64) (*types.Garment, error) {
	return t.storage.getGarmentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListGarments(ctx context.Context) ([]types.Garment, error) {
	return t.storage.listGarmentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ListByCategory(ctx context.Context, category string) ([]types.Garment, error) {
	return t.storage.listByCategoryWithQuerier(ctx, t.querier(), category)
}

func (t *sqliteTx) UpdateGarment(ctx context.Context, id int64, patch *types.GarmentPatch) (*UpdateResult, error) {
	return t.storage.updateGarmentWithQuerier(ctx, t.querier(), id, patch)
}

func (t *sqliteTx) DeleteGarment(ctx context.Context, id int64) error {
	return t.storage.deleteGarmentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) CountGarments(ctx context.Context) (int, error) {
	return t.storage.countGarmentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SearchGarments(ctx context.Context, term string) ([]types.Garment, error) {
	return t.storage.searchGarmentsWithQuerier(ctx, t.querier(), term)
}

func (t *sqliteTx) GarmentsByCriteria(ctx context.Context, criteria types.Criteria) ([]types.Garment, error) {
	return t.storage.garmentsByCriteriaWithQuerier(ctx, t.querier(), criteria)
}

func (t *sqliteTx) ListCategories(ctx context.Context) ([]string, error) {
	return t.storage.listCategoriesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SaveChatHistory(ctx context.Context, userMessage, botResponse string) (*types.ChatExchange, error) {
	return t.storage.saveChatHistoryWithQuerier(ctx, t.querier(), userMessage, botResponse)
}

func (t *sqliteTx) RecentChatHistory(ctx context.Context, limit int) ([]types.ChatExchange, error) {
	return t.storage.recentChatHistoryWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*CatalogStatus, error) {
	return t.storage.GetStatus(ctx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
