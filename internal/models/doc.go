// Package models defines the catalogue types shared by the storage layer,
// the search engine and the HTTP handlers.
//
// It covers:
//   - Content items and their single media payload
//   - Facets (tags, characters, authors) and sources
//   - Albums and album search summaries
//   - Users and the paged response envelopes
package models
