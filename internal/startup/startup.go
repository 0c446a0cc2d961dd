package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/logging"
	"nyapix/internal/media"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

const (
	defaultMaxUploadSize = 512 << 20
	databaseFileName     = "nyapix.db"
)

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	Database      database.Config
	DatabaseDir   string
	AdminUsername string

	JWTSecret          []byte
	JWTSecretGenerated bool
	TokenDuration      time.Duration

	Storage       media.Config
	MaxUploadSize int64
	StatsInterval time.Duration
}

// LoadConfig loads and validates configuration from environment variables.
// Variables in an optional .env file in the working directory are loaded
// first; variables already set in the environment take precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if level, ok := logging.ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		logging.SetLevel(level)
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		TokenDuration:   getEnvDuration("TOKEN_DURATION", 24*time.Hour),
		MaxUploadSize:   getEnvInt64("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		StatsInterval:   getEnvDuration("STATS_INTERVAL", time.Minute),
		Database: database.Config{
			Driver: getEnv("DATABASE_DRIVER", database.DriverSQLite),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Storage: media.Config{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "nyapix"),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			URLExpiry: getEnvDuration("MEDIA_URL_EXPIRY", time.Hour),
		},
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  DATABASE_DRIVER:     %s", config.Database.Driver)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  TOKEN_DURATION:      %s", config.TokenDuration)
	logging.Info("  MINIO_ENDPOINT:      %s", valueOrNone(config.Storage.Endpoint))
	logging.Info("  MINIO_BUCKET:        %s", config.Storage.Bucket)
	logging.Info("  MEDIA_URL_EXPIRY:    %s", config.Storage.URLExpiry)
	logging.Info("  MAX_UPLOAD_SIZE:     %d bytes", config.MaxUploadSize)
	logging.Info("  STATS_INTERVAL:      %s", config.StatsInterval)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWTSecret = []byte(secret)
	} else {
		secret, err := auth.RandomSecret()
		if err != nil {
			return nil, err
		}
		config.JWTSecret = secret
		config.JWTSecretGenerated = true
		logging.Warn("  JWT_SECRET not set, using a random key: tokens will not survive a restart")
	}

	switch config.Database.Driver {
	case database.DriverSQLite:
		if err := setupDatabaseDir(config); err != nil {
			return nil, err
		}
	case database.DriverPostgres:
		if config.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=%s", database.DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", config.Database.Driver)
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (%s)", config.Database.Driver)
	logging.Info("    Uploads:     %s", enabledString(config.Storage.Enabled()))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupDatabaseDir(config *Config) error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dir, err := filepath.Abs(config.DatabaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", dir)

	if err := ensureDirectory(dir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(dir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.DatabaseDir = dir
	config.Database.Path = filepath.Join(dir, databaseFileName)
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogAdminAccount prints the bootstrap admin credentials. The password is
// only shown once, when the account is created.
func LogAdminAccount(username, password string, created bool) {
	if !created {
		logging.Info("  [OK] Admin account %q exists", username)
		return
	}
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ADMIN ACCOUNT CREATED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Username: %s", username)
	logging.Info("  Password: %s", password)
	logging.Info("  Store this password now, it will not be shown again.")
	logging.Info("  Use 'resetpw reset %s' to change it.", username)
}

// LogStorageInit logs object storage initialization
func LogStorageInit(enabled bool, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("OBJECT STORAGE INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	switch {
	case !enabled:
		logging.Warn("  MINIO_ENDPOINT not set, uploads are disabled")
	case err != nil:
		logging.Warn("  Object storage unavailable: %v", err)
		logging.Warn("  Uploads are disabled")
	default:
		logging.Info("  [OK] Object storage ready")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			// Subrouters created with PathPrefix only
			return nil
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
                            _
   _ __  _   _  __ _ _ __ (_)_  __
  | '_ \| | | |/ _' | '_ \| \ \/ /
  | | | | |_| | (_| | |_) | |>  <
  |_| |_|\__, |\__,_| .__/|_/_/\_\
         |___/      |_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid size for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
