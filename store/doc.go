// Package store defines how finished workflow runs are persisted.
//
// A Record captures one run: its status, the path it took, the ordered audit
// trail and the final state. Every backend implements AuditStore:
//
//	type AuditStore interface {
//		Save(ctx context.Context, record *Record) error
//		Load(ctx context.Context, runID string) (*Record, error)
//		List(ctx context.Context, workflow string) ([]*Record, error)
//		Delete(ctx context.Context, runID string) error
//	}
//
// # Available Implementations
//
//   - store/memory: process-local map, the default for tests and the CLI
//   - store/file: one indented JSON document per run in a directory
//   - store/redis: JSON values plus a sorted-set index per workflow, optional TTL
//   - store/postgres: a JSONB table through pgx
//   - store/sqlite: a single-file database through mattn/go-sqlite3
//
// # Usage
//
//	res, err := runnable.Invoke(ctx, map[string]any{"goal": goal})
//	rec := store.FromResult("alpha_strategist", res, err, time.Now())
//	if err := auditStore.Save(ctx, rec); err != nil {
//		return err
//	}
//
// Load and Delete return ErrNotFound (possibly wrapped) for unknown run IDs.
package store
