package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

// PostgresStateRepository keeps the collection snapshots in a single table,
// one row per collection. It is the alternative persistence backend for
// deployments that already run Postgres.
type PostgresStateRepository struct {
	db *sql.DB
}

func NewPostgresStateRepository(db *sql.DB) *PostgresStateRepository {
	return &PostgresStateRepository{db: db}
}

// EnsureSchema creates the snapshot table when missing.
func (r *PostgresStateRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			name       TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure snapshots table: %w", err)
	}
	return nil
}

func (r *PostgresStateRepository) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", name, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		name, data)
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", name, err)
	}
	return nil
}

func loadSnapshot[T any](ctx context.Context, db *sql.DB, name string) ([]T, error) {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s snapshot: %w", name, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s snapshot: %w", name, err)
	}
	return out, nil
}

func (r *PostgresStateRepository) SaveStudents(ctx context.Context, students []domain.Student) error {
	return r.save(ctx, "students", students)
}

func (r *PostgresStateRepository) SavePayments(ctx context.Context, payments []domain.Payment) error {
	return r.save(ctx, "payments", payments)
}

func (r *PostgresStateRepository) SaveLogs(ctx context.Context, logs []domain.LogEntry) error {
	return r.save(ctx, "logs", logs)
}

func (r *PostgresStateRepository) LoadAll(ctx context.Context) ([]domain.Student, []domain.Payment, []domain.LogEntry, error) {
	students, err := loadSnapshot[domain.Student](ctx, r.db, "students")
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := loadSnapshot[domain.Payment](ctx, r.db, "payments")
	if err != nil {
		return nil, nil, nil, err
	}
	logs, err := loadSnapshot[domain.LogEntry](ctx, r.db, "logs")
	if err != nil {
		return nil, nil, nil, err
	}
	return students, payments, logs, nil
}
