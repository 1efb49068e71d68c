package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists registration attempts.
type Repository interface {
	Record(ctx context.Context, attempt Attempt) error
	Recent(ctx context.Context, limit int) ([]Attempt, error)
}

const schema = `CREATE TABLE IF NOT EXISTS registration_attempts (
    id          UUID PRIMARY KEY,
    device_id   TEXT NOT NULL,
    username    TEXT NOT NULL,
    mac_address TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    message     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL
)`

// PostgresRepository stores attempts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed attempt repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the attempts table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Record inserts an attempt.
func (r *PostgresRepository) Record(ctx context.Context, attempt Attempt) error {
	if _, err := uuid.Parse(attempt.ID); err != nil {
		return fmt.Errorf("attempt id: %w", err)
	}
	_, err := r.db.Exec(ctx, `INSERT INTO registration_attempts (id, device_id, username, mac_address, outcome, message, created_at)
        VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.DeviceID, attempt.Username, attempt.MACAddress, attempt.Outcome, attempt.Message, attempt.CreatedAt.UTC())
	return err
}

// Recent returns the newest attempts first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, device_id, username, mac_address, outcome, message, created_at
        FROM registration_attempts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			createdAt time.Time
			a         Attempt
		)
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Username, &a.MACAddress, &a.Outcome, &a.Message, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = createdAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
