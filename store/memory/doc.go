// Package memory provides a process-local AuditStore. Records are lost when
// the process exits.
package memory
