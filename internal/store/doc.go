// Package store persists deployment runs and their ledgers in SQLite so a
// finished run can be inspected after the process exits.
package store
