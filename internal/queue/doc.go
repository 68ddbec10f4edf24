// Package queue persists uploaded files and conversion jobs in SQLite and
// exposes helpers for driving the job lifecycle.
//
// The Store manages database connections, schema initialization, the file
// registry, and the job status transitions the workflow manager relies on:
// queued -> processing -> done | error. Transitions are one-directional and
// terminal states are never left; ClaimQueued performs the queued ->
// processing move with a guarded UPDATE so concurrent claimers never double
// dispatch a job.
//
// The database is treated as transient storage for in-flight jobs rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
package queue
