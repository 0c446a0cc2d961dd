// Package handlers provides the HTTP handlers of the nyapix API.
//
// It includes handlers for:
//   - Faceted content search and album search
//   - Content upload, editing, deletion and media redirects
//   - Tags, characters, authors and sources
//   - Albums and album membership
//   - Login and the current account
//   - Health checks and version information
//
// Routes are mounted with [Handlers.RegisterRoutes]. The viewer of each
// request is read from the context set by auth.Authenticate; write
// endpoints are wrapped in auth.RequireUser or auth.RequireAdmin.
//
// Errors from the database, search and media packages are mapped to status
// codes in one place and returned as {"error": "..."}.
package handlers
