// Package postgres provides PostgreSQL-backed implementations of the store
// repositories, for deployments where item records live in a shared relational
// database rather than an embedded store.
//
// The schema is created on open. Status transition checks run inside a row
// lock so concurrent resolvers observe the same state machine the embedded
// backend enforces.
package postgres
