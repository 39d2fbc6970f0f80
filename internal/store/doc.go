// Package store persists simulation run records in SQLite.
//
// A run record is the scalar summary of one pipeline execution: the
// full parameter set (which, with the seed, is sufficient to reproduce
// the run exactly) plus the resulting true and estimated ATEs. The
// matrices themselves are never stored; replay re-derives them from the
// recorded parameters.
//
// The database uses WAL mode with a single-writer connection pool.
// Reads are ordered deterministically (created_at, then id with binary
// collation) so listings are stable across processes.
package store
