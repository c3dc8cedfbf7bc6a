// Package storage provides SQLite-based persistence for the garment catalog.
//
// The storage layer manages:
//   - Garment rows and their filterable attributes
//   - Chat history of assistant exchanges
//   - Schema versioning
//
// # Database Schema
//
// Tables:
//   - garments: catalog rows (name, category, fabric_type, price, ...)
//   - chat_history: user message and assistant reply pairs
//   - schema_version: applied migration versions
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("garments.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	garments, err := db.GarmentsByCriteria(ctx, types.Criteria{
//	    types.DimensionOccasion: "Wedding",
//	    types.DimensionCategory: "Saree",
//	})
//
// Criteria are matched as case-insensitive substrings (SQL LIKE) and
// AND-ed together. Empty criteria return the whole catalog.
//
// # Transactions
//
// Use transactions for atomic multi-row operations:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for i := range garments {
//	    if err := tx.CreateGarment(ctx, &garments[i]); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// UpdateGarment on the storage itself runs in its own transaction and
// verifies the written row before committing.
//
// # Build Modes
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with -tags cgo_sqlite switches to github.com/mattn/go-sqlite3.
package storage
