package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/handlers"
	"nyapix/internal/logging"
	"nyapix/internal/media"
	"nyapix/internal/memory"
	"nyapix/internal/metrics"
	"nyapix/internal/middleware"
	"nyapix/internal/search"
	"nyapix/internal/startup"
)

func main() {
	startTime := time.Now()

	// Size the heap before anything large is allocated
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.Database)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	password, created, err := db.EnsureAdmin(ctx, config.AdminUsername)
	if err != nil {
		startup.LogFatal("Failed to set up admin account: %v", err)
	}
	startup.LogAdminAccount(config.AdminUsername, password, created)

	// Object storage is optional; without it uploads are rejected
	blobs := setupStorage(ctx, config.Storage)

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(db, config.StatsInterval)
	collector.Start()

	memMonitor := memory.NewMonitor(0, memory.DefaultHighWaterMark)
	memMonitor.Start()

	engine := search.New(db, media.NewResolver(blobs))
	issuer := auth.NewIssuer(config.JWTSecret, config.TokenDuration)
	h := handlers.New(db, engine, issuer, blobs, handlers.Config{
		MaxUploadSize: config.MaxUploadSize,
		Memory:        memMonitor,
	})

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	handler, err := buildHandler(router, issuer, config)
	if err != nil {
		startup.LogFatal("Failed to configure middleware: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(srv, metricsSrv, collector, memMonitor, db, done)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// setupStorage connects to object storage. It returns a nil store when
// storage is not configured or unreachable.
func setupStorage(ctx context.Context, cfg media.Config) media.BlobStore {
	if !cfg.Enabled() {
		startup.LogStorageInit(false, nil)
		return nil
	}
	store, err := media.NewMinIOStore(ctx, cfg)
	startup.LogStorageInit(true, err)
	if err != nil {
		return nil
	}
	return store
}

// buildHandler installs the middleware chain around router. Metrics and
// compression run inside the router so metrics see route templates. The
// access log is outermost so authentication can record the viewer on it.
func buildHandler(router *mux.Router, issuer *auth.Issuer, config *startup.Config) (http.Handler, error) {
	compression, err := middleware.Compression(middleware.DefaultCompressionConfig())
	if err != nil {
		return nil, err
	}
	router.Use(
		mux.MiddlewareFunc(middleware.Metrics(middleware.DefaultMetricsConfig())),
		mux.MiddlewareFunc(compression),
	)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := auth.Authenticate(issuer)(router)
	return middleware.Logger(loggingConfig)(handler), nil
}

func newMetricsServer(port string) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", handlers.MetricsHandler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, memMonitor *memory.Monitor, db *database.Database, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	memMonitor.Stop()

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
