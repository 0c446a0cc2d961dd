// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig],
// after variables from an optional .env file in the working directory:
//
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATABASE_DRIVER: sqlite3 or pgx (default: sqlite3)
//   - DATABASE_DIR: Directory holding nyapix.db for SQLite (default: /database)
//   - DATABASE_URL: PostgreSQL connection string, required for pgx
//   - ADMIN_USERNAME: Bootstrap admin account (default: admin)
//   - JWT_SECRET: Token signing key (default: random per process)
//   - TOKEN_DURATION: Access token lifetime (default: 24h)
//   - MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY: Object storage;
//     uploads are disabled without an endpoint
//   - MINIO_BUCKET (default: nyapix), MINIO_REGION (default: us-east-1),
//     MINIO_USE_SSL (default: false)
//   - MEDIA_URL_EXPIRY: Presigned playback URL lifetime (default: 1h)
//   - MAX_UPLOAD_SIZE: Upload cap in bytes (default: 512 MiB)
//   - STATS_INTERVAL: Catalogue gauge refresh interval (default: 1m)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit in bytes, used to set GOMEMLIMIT
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap (default: 0.85)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogAdminAccount]: Bootstrap admin credentials, shown once
//   - [LogStorageInit]: Object storage availability
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
