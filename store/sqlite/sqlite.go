package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/suhasdasari/S4D5/store"
)

// SqliteAuditStore implements store.AuditStore using SQLite
type SqliteAuditStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string `mapstructure:"path"`
	TableName string `mapstructure:"table"` // Default "audit_records"
}

// NewSqliteAuditStore opens the database and creates the table if needed
func NewSqliteAuditStore(opts SqliteOptions) (*SqliteAuditStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "audit_records"
	}

	s := &SqliteAuditStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteAuditStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			record TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_workflow ON %s (workflow, created_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteAuditStore) Close() error {
	return s.db.Close()
}

// Save stores a record
func (s *SqliteAuditStore) Save(ctx context.Context, record *store.Record) error {
	if record == nil || record.RunID == "" {
		return fmt.Errorf("record must have a run id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, workflow, status, created_at, record)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			workflow = excluded.workflow,
			status = excluded.status,
			created_at = excluded.created_at,
			record = excluded.record
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		record.RunID,
		record.Workflow,
		record.Status,
		record.CreatedAt.UnixNano(),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load retrieves a record by run ID
func (s *SqliteAuditStore) Load(ctx context.Context, runID string) (*store.Record, error) {
	query := fmt.Sprintf("SELECT record FROM %s WHERE run_id = ?", s.tableName)

	var data string
	if err := s.db.QueryRowContext(ctx, query, runID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// List returns the records of a workflow
func (s *SqliteAuditStore) List(ctx context.Context, workflow string) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT record FROM %s
		WHERE (? = '' OR workflow = ?)
		ORDER BY created_at ASC, run_id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, workflow, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*store.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		var rec store.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
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
func (s *SqliteAuditStore) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.tableName)
	res, err := s.db.ExecContext(ctx, query, runID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	return nil
}
