// Package file provides an AuditStore that keeps one indented JSON document
// per run in a directory, which makes audit trails easy to inspect and diff.
package file
