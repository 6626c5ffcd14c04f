// Package store persists the photo collection in SQLite and exposes helpers
// for driving scan results through it.
//
// The Store manages database connections, schema migrations, known-hash
// lookups for duplicate detection, the per-file enrichment transaction, and
// the entity registry tables. Entity links cascade with their photo or
// entity; description history is append-per-model with same-model overwrite.
//
// Treat this package as the single source of truth for collection semantics;
// schema changes add a new file under migrations/.
package store
