package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type PostgresStore struct {
	db       *sql.DB
	projects *PostgresProjectRepository
	logs     *PostgresLogRepository
	pings    *PostgresPingRepository
}

func NewPostgresStore(connURL string, db *sql.DB) (*PostgresStore, error) {
	db, err := openPostgres(connURL, db)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{
		db:       db,
		projects: &PostgresProjectRepository{db: db},
		logs:     &PostgresLogRepository{db: db},
		pings:    &PostgresPingRepository{db: db},
	}, nil
}

func (s *PostgresStore) DB() *sql.DB                  { return s.db }
func (s *PostgresStore) Projects() ProjectRepository { return s.projects }
func (s *PostgresStore) Logs() LogRepository         { return s.logs }
func (s *PostgresStore) Pings() PingRepository       { return s.pings }

// PartitionCreator exposes the monthly partitioning of the logs table.
func (s *PostgresStore) PartitionCreator() PartitionCreator { return s.logs }

func (s *PostgresStore) DeleteProjectCascade(ctx context.Context, projectID uuid.UUID) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	// Appends share-lock the project row; taking it exclusively first means
	// every committed append is visible to the deletes below.
	var live int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&live)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, model.ErrProjectNotFound
		}
		return 0, 0, unavailable("lock project", err)
	}

	logs, err := execCount(ctx, tx, `DELETE FROM logs WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, 0, unavailable("delete project logs", err)
	}
	pings, err := execCount(ctx, tx, `DELETE FROM ping_services WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, 0, unavailable("delete project ping services", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_log_sequences WHERE project_id = $1`, projectID); err != nil {
		return 0, 0, unavailable("delete project sequence", err)
	}
	projects, err := execCount(ctx, tx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return 0, 0, unavailable("delete project", err)
	}
	if projects == 0 {
		return 0, 0, model.ErrProjectNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, unavailable("commit project deletion", err)
	}
	return logs, pings, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
