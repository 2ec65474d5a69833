package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/suhasdasari/S4D5/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresAuditStore implements store.AuditStore using PostgreSQL. The whole
// record is kept in a JSONB column next to the columns it is queried by.
type PostgresAuditStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string `mapstructure:"conn_string"`
	TableName  string `mapstructure:"table"` // Default "audit_records"
}

// NewPostgresAuditStore creates a new Postgres audit store
func NewPostgresAuditStore(ctx context.Context, opts PostgresOptions) (*PostgresAuditStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresAuditStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresAuditStoreWithPool creates a new Postgres audit store with an existing pool
// Useful for testing with mocks
func NewPostgresAuditStoreWithPool(pool DBPool, tableName string) *PostgresAuditStore {
	if tableName == "" {
		tableName = "audit_records"
	}
	return &PostgresAuditStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresAuditStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			record JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_workflow ON %s (workflow, created_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresAuditStore) Close() {
	s.pool.Close()
}

// Save stores a record
func (s *PostgresAuditStore) Save(ctx context.Context, record *store.Record) error {
	if record == nil || record.RunID == "" {
		return fmt.Errorf("record must have a run id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (run_id, workflow, status, created_at, record) VALUES ($1, $2, $3, $4, $5) "+
		"ON CONFLICT (run_id) DO UPDATE SET workflow = EXCLUDED.workflow, status = EXCLUDED.status, "+
		"created_at = EXCLUDED.created_at, record = EXCLUDED.record", s.tableName)

	_, err = s.pool.Exec(ctx, query,
		record.RunID,
		record.Workflow,
		record.Status,
		record.CreatedAt,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load retrieves a record by run ID
func (s *PostgresAuditStore) Load(ctx context.Context, runID string) (*store.Record, error) {
	query := fmt.Sprintf("SELECT record FROM %s WHERE run_id = $1", s.tableName)

	var data []byte
	if err := s.pool.QueryRow(ctx, query, runID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// List returns the records of a workflow
func (s *PostgresAuditStore) List(ctx context.Context, workflow string) ([]*store.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if workflow == "" {
		query := fmt.Sprintf("SELECT record FROM %s ORDER BY created_at ASC, run_id ASC", s.tableName)
		rows, err = s.pool.Query(ctx, query)
	} else {
		query := fmt.Sprintf("SELECT record FROM %s WHERE workflow = $1 ORDER BY created_at ASC, run_id ASC", s.tableName)
		rows, err = s.pool.Query(ctx, query, workflow)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*store.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		var rec store.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}

// Delete removes a record
func (s *PostgresAuditStore) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, runID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	return nil
}
