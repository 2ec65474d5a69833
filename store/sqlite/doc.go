// Package sqlite provides a single-file AuditStore built on mattn/go-sqlite3.
// The driver needs cgo.
//
//	s, err := sqlite.NewSqliteAuditStore(sqlite.SqliteOptions{
//		Path: "./audit.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// Records are stored as JSON text; created_at is kept in Unix nanoseconds so
// List can order by it.
package sqlite
