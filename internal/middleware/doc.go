// Package middleware provides HTTP middleware for the API server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip) for JSON bodies
//   - Prometheus request metrics labelled by route template
package middleware
