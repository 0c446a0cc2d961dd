// Package main provides the entry point for the nyapix server.
//
// Nyapix is a media catalogue: users upload images, video and audio, tag them
// with tags, characters, authors and sources, group them into albums and find
// them again through faceted search.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Sets GOMEMLIMIT from MEMORY_LIMIT, reads .env
//     and environment variables
//  2. Database Initialization: Opens SQLite or PostgreSQL and applies migrations
//  3. Admin Account: Creates the bootstrap admin and prints its password once
//  4. Object Storage: Connects to MinIO when MINIO_ENDPOINT is set
//  5. HTTP Server Setup: Routes, authentication, access log, metrics and
//     compression middleware
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops the servers, the
//     metrics collector and the database
//
// # Background Services
//
//   - Metrics Collector: Refreshes catalogue gauges every STATS_INTERVAL
//   - Metrics Server: Serves Prometheus metrics on METRICS_PORT
//   - Memory Monitor: Refuses uploads while the heap is near its limit
package main
