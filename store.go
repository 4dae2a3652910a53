package beethovision

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// store is the SQLite-backed annotation store holding registered datasets,
// their samples, and frame-level annotations.
type store struct {
	db   *sql.DB
	path string
}

// openStore opens (or creates) the annotation database at dbPath, enables
// foreign keys, and runs migrations.
func openStore(dbPath string) (*store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorageError, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to enable foreign keys: %v", ErrStorageError, err)
	}

	s := &store{db: db, path: dbPath}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to run migrations: %v", ErrStorageError, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *store) Close() error {
	return s.db.Close()
}

// datasets returns the dataset repository for this store.
func (s *store) datasets() *datasetRepo {
	return &datasetRepo{db: s.db}
}

// samples returns the sample repository for this store.
func (s *store) samples() *sampleRepo {
	return &sampleRepo{db: s.db}
}
