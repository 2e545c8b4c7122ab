package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"
)

// NewPostgresDB opens a postgres-backed bun handle using the pq driver.
// The caller owns the returned DB and closes it on shutdown.
func NewPostgresDB(dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres connection: %w", err)
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

// NewRepositoryFactoryForPostgres opens a postgres connection and builds
// the store set on top of it.
func NewRepositoryFactoryForPostgres(dsn string) (*RepositoryFactory, error) {
	db, err := NewPostgresDB(dsn)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFactoryFromDB(db)
}
