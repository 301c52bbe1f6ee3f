package repository

import (
	"database/sql"
	"fmt"

	"github.com/Lutefd/logpulse/internal/model"
	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}

func openPostgres(connURL string, db *sql.DB) (*sql.DB, error) {
	if db != nil {
		return db, nil
	}
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, model.ErrStoreUnavailable, err)
}
