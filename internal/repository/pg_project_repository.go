package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const projectColumns = `id, name, description, log_format, default_tags, custom_tags, notify, access_level, debug_mode, created_at, updated_at`

type PostgresProjectRepository struct {
	db *sql.DB
}

func NewPostgresProjectRepository(connURL string, db *sql.DB) (*PostgresProjectRepository, error) {
	db, err := openPostgres(connURL, db)
	if err != nil {
		return nil, err
	}
	return &PostgresProjectRepository{db: db}, nil
}

func (r *PostgresProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	logFormat, notify, err := encodeProject(project)
	if err != nil {
		return err
	}
	query := `INSERT INTO projects (` + projectColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, logFormat,
		pq.Array(project.DefaultTags), pq.Array(project.CustomTags), notify,
		project.AccessLevel, project.DebugMode, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return unavailable("create project", err)
	}
	return nil
}

func (r *PostgresProjectRepository) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, model.ErrProjectNotFound
		}
		return model.Project{}, unavailable("get project", err)
	}
	return project, nil
}

func (r *PostgresProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, unavailable("scan project", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list projects", err)
	}
	return projects, nil
}

func (r *PostgresProjectRepository) Update(ctx context.Context, project *model.Project) error {
	logFormat, notify, err := encodeProject(project)
	if err != nil {
		return err
	}
	query := `UPDATE projects SET name = $2, description = $3, log_format = $4, default_tags = $5,
              custom_tags = $6, notify = $7, access_level = $8, debug_mode = $9, updated_at = $10
              WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, logFormat,
		pq.Array(project.DefaultTags), pq.Array(project.CustomTags), notify,
		project.AccessLevel, project.DebugMode, project.UpdatedAt,
	)
	if err != nil {
		return unavailable("update project", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *PostgresProjectRepository) Close() error {
	return r.db.Close()
}

func encodeProject(project *model.Project) ([]byte, []byte, error) {
	logFormat, err := json.Marshal(project.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode log format: %w", err)
	}
	notify, err := json.Marshal(project.Notify)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode notify policy: %w", err)
	}
	return logFormat, notify, nil
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p         model.Project
		logFormat []byte
		notify    []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &logFormat,
		pq.Array(&p.DefaultTags), pq.Array(&p.CustomTags), &notify,
		&p.AccessLevel, &p.DebugMode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, err
	}
	if len(logFormat) > 0 {
		if err := json.Unmarshal(logFormat, &p.LogFormat); err != nil {
			return model.Project{}, fmt.Errorf("failed to decode log format: %w", err)
		}
	}
	if len(notify) > 0 {
		if err := json.Unmarshal(notify, &p.Notify); err != nil {
			return model.Project{}, fmt.Errorf("failed to decode notify policy: %w", err)
		}
	}
	return p, nil
}
