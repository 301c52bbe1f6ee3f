package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

const pingColumns = `id, project_id, name, url, interval_seconds, tags, status, last_checked_at, last_status_change_at, created_at`

type PostgresPingRepository struct {
	db *sql.DB
}

func NewPostgresPingRepository(connURL string, db *sql.DB) (*PostgresPingRepository, error) {
	db, err := openPostgres(connURL, db)
	if err != nil {
		return nil, err
	}
	return &PostgresPingRepository{db: db}, nil
}

func (r *PostgresPingRepository) Create(ctx context.Context, svc *model.PingService) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if svc.Status == "" {
		svc.Status = model.PingStatusUnknown
	}
	query := `INSERT INTO ping_services (id, project_id, name, url, interval_seconds, tags, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		svc.ID, svc.ProjectID, svc.Name, svc.URL, svc.Interval, pq.Array(svc.Tags), svc.Status, svc.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return model.ErrProjectNotFound
		}
		return unavailable("create ping service", err)
	}
	return nil
}

func (r *PostgresPingRepository) Get(ctx context.Context, id uuid.UUID) (model.PingService, error) {
	query := `SELECT ` + pingColumns + ` FROM ping_services WHERE id = $1`
	svc, err := scanPingService(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PingService{}, model.ErrPingServiceNotFound
		}
		return model.PingService{}, unavailable("get ping service", err)
	}
	return svc, nil
}

func (r *PostgresPingRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	query := `SELECT ` + pingColumns + ` FROM ping_services WHERE project_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, projectID)
}

func (r *PostgresPingRepository) ListAll(ctx context.Context) ([]model.PingService, error) {
	query := `SELECT ` + pingColumns + ` FROM ping_services ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *PostgresPingRepository) list(ctx context.Context, query string, args ...any) ([]model.PingService, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list ping services", err)
	}
	defer rows.Close()

	services := make([]model.PingService, 0)
	for rows.Next() {
		svc, err := scanPingService(rows)
		if err != nil {
			return nil, unavailable("scan ping service", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list ping services", err)
	}
	return services, nil
}

func (r *PostgresPingRepository) Update(ctx context.Context, svc *model.PingService) error {
	query := `UPDATE ping_services SET name = $2, url = $3, interval_seconds = $4, tags = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, svc.ID, svc.Name, svc.URL, svc.Interval, pq.Array(svc.Tags))
	if err != nil {
		return unavailable("update ping service", err)
	}
	return requireRow(result, model.ErrPingServiceNotFound)
}

func (r *PostgresPingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PingStatus, checkedAt time.Time, changed bool) error {
	var (
		result sql.Result
		err    error
	)
	if changed {
		result, err = r.db.ExecContext(ctx,
			`UPDATE ping_services SET status = $2, last_checked_at = $3, last_status_change_at = $3 WHERE id = $1`,
			id, status, checkedAt)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE ping_services SET last_checked_at = $2 WHERE id = $1`,
			id, checkedAt)
	}
	if err != nil {
		return unavailable("update ping status", err)
	}
	return requireRow(result, model.ErrPingServiceNotFound)
}

func (r *PostgresPingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ping_services WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete ping service", err)
	}
	return requireRow(result, model.ErrPingServiceNotFound)
}

func (r *PostgresPingRepository) Close() error {
	return r.db.Close()
}

func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("read affected rows", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func scanPingService(row rowScanner) (model.PingService, error) {
	var (
		svc           model.PingService
		lastChecked   sql.NullTime
		lastChangedAt sql.NullTime
	)
	err := row.Scan(&svc.ID, &svc.ProjectID, &svc.Name, &svc.URL, &svc.Interval, pq.Array(&svc.Tags),
		&svc.Status, &lastChecked, &lastChangedAt, &svc.CreatedAt)
	if err != nil {
		return model.PingService{}, err
	}
	if lastChecked.Valid {
		svc.LastCheckedAt = &lastChecked.Time
	}
	if lastChangedAt.Valid {
		svc.LastStatusChangeAt = &lastChangedAt.Time
	}
	return svc, nil
}
