// Package database provides catalogue storage for nyapix on SQLite or
// PostgreSQL.
//
// It handles storage and retrieval of:
//   - Content items, their media rows and their facet links
//   - Tags, characters, authors and sources
//   - Albums and album membership
//   - User accounts
//
// Queries are written once with "?" placeholders and rebound per driver
// through sqlx. The schema is managed by goose migrations embedded in the
// binary, one directory per dialect. SQLite runs in WAL mode with foreign keys
// enabled.
//
// Database implements the postings, access and hydration interfaces the
// search engine consumes.
package database
