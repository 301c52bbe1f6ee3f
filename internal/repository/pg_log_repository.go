package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var logColumns = []string{"id", "project_id", "seq", "pos", "level", "message", "tags", "metadata", "timestamp"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresLogRepository struct {
	db *sql.DB
}

func NewPostgresLogRepository(connURL string, db *sql.DB) (*PostgresLogRepository, error) {
	db, err := openPostgres(connURL, db)
	if err != nil {
		return nil, err
	}
	return &PostgresLogRepository{db: db}, nil
}

// Append bumps the per-project sequence row, which also serializes writers
// of the same project, and inserts the record in the same transaction.
// The project row is share-locked for the duration.
func (r *PostgresLogRepository) Append(ctx context.Context, record *model.LogRecord) (model.RecordID, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return model.RecordID{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RecordID{}, unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	// The share lock holds off a concurrent cascade until this record is
	// committed, or finds the project already gone.
	var live int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = $1 FOR SHARE`, record.ProjectID).Scan(&live)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecordID{}, model.ErrProjectNotFound
		}
		return model.RecordID{}, unavailable("lock project", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO project_log_sequences (project_id, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (project_id) DO UPDATE SET last_seq = project_log_sequences.last_seq + 1
		RETURNING last_seq
	`, record.ProjectID).Scan(&record.Seq)
	if err != nil {
		return model.RecordID{}, unavailable("allocate log sequence", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO logs (id, project_id, seq, level, message, tags, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING pos
	`, record.ID, record.ProjectID, record.Seq, record.Level, record.Message,
		pq.Array(record.Tags), metadata, record.Timestamp).Scan(&record.Pos)
	if err != nil {
		return model.RecordID{}, unavailable("append log", err)
	}

	if err := tx.Commit(); err != nil {
		return model.RecordID{}, unavailable("commit log", err)
	}
	return model.RecordID{ID: record.ID, Seq: record.Seq}, nil
}

// Query materializes the matching rows once; the returned sequence replays them.
func (r *PostgresLogRepository) Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error) {
	builder := psql.Select(logColumns...).From("logs").OrderBy("timestamp ASC", "pos ASC")
	if conds := LogFilterConditions(filter); len(conds) > 0 {
		builder = builder.Where(conds)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build log query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query logs", err)
	}
	defer rows.Close()

	var records []model.LogRecord
	for rows.Next() {
		var (
			rec      model.LogRecord
			metadata []byte
		)
		err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Seq, &rec.Pos, &rec.Level, &rec.Message,
			pq.Array(&rec.Tags), &metadata, &rec.Timestamp)
		if err != nil {
			return nil, unavailable("scan log", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query logs", err)
	}

	return func(yield func(model.LogRecord) bool) {
		for _, rec := range records {
			if !yield(rec.Clone()) {
				return
			}
		}
	}, nil
}

func (r *PostgresLogRepository) DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error) {
	builder := psql.Delete("logs")
	if filter.ProjectID != nil {
		builder = builder.Where(sq.Eq{"project_id": *filter.ProjectID})
	}
	if filter.Level != "" {
		builder = builder.Where(sq.Eq{"level": filter.Level})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build log delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, unavailable("delete logs", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("delete logs", err)
	}
	return int(n), nil
}

// CreatePartition adds the monthly partition for month. Rows of that month
// already sitting in the default partition are moved into the new one, which
// Postgres requires before the range can be attached.
func (r *PostgresLogRepository) CreatePartition(ctx context.Context, month time.Time) error {
	partitionName := fmt.Sprintf("logs_y%04dm%02d", month.Year(), month.Month())
	startDate := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, 0)

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, partitionName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up partition %s: %w", partitionName, err)
	}
	if exists {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to create partition %s: %w", partitionName, err)
	}
	defer tx.Rollback()

	steps := []struct {
		name  string
		query string
		args  []any
	}{
		{"detach default partition", `ALTER TABLE logs DETACH PARTITION logs_default`, nil},
		{"create partition", fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s PARTITION OF logs FOR VALUES FROM ('%s') TO ('%s')`,
			partitionName, startDate.Format("2006-01-02"), endDate.Format("2006-01-02")), nil},
		{"move rows", `INSERT INTO logs SELECT * FROM logs_default WHERE timestamp >= $1 AND timestamp < $2`,
			[]any{startDate, endDate}},
		{"purge moved rows", `DELETE FROM logs_default WHERE timestamp >= $1 AND timestamp < $2`,
			[]any{startDate, endDate}},
		{"attach default partition", `ALTER TABLE logs ATTACH PARTITION logs_default DEFAULT`, nil},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return fmt.Errorf("failed to create partition %s: %s: %w", partitionName, step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to create partition %s: %w", partitionName, err)
	}
	return nil
}

func (r *PostgresLogRepository) Close() error {
	return r.db.Close()
}

// LogFilterConditions translates a filter into squirrel predicates, one per set field.
func LogFilterConditions(filter model.LogFilter) sq.And {
	var conds sq.And
	if filter.ProjectID != nil {
		conds = append(conds, sq.Eq{"project_id": *filter.ProjectID})
	}
	if filter.Level != "" {
		conds = append(conds, sq.Eq{"level": filter.Level})
	}
	if filter.Text != "" {
		conds = append(conds, sq.ILike{"message": "%" + likeEscaper.Replace(filter.Text) + "%"})
	}
	if filter.Tag != "" {
		conds = append(conds, sq.Expr("? = ANY(tags)", filter.Tag))
	}
	metadata := []struct{ key, value string }{
		{model.MetadataService, filter.Service},
		{model.MetadataUser, filter.User},
		{model.MetadataIP, filter.IP},
	}
	for _, m := range metadata {
		if m.value != "" {
			conds = append(conds, sq.Expr("metadata->>'"+m.key+"' = ?", m.value))
		}
	}
	if filter.From != nil {
		conds = append(conds, sq.GtOrEq{"timestamp": *filter.From})
	}
	if filter.To != nil {
		conds = append(conds, sq.LtOrEq{"timestamp": *filter.To})
	}
	return conds
}
