package handlers

import (
	"time"

	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/media"
	"nyapix/internal/memory"
	"nyapix/internal/search"
)

// Config holds the handler settings taken from the application config.
type Config struct {
	MaxUploadSize int64
	// Memory refuses uploads under memory pressure. Nil disables the check.
	Memory *memory.Monitor
}

type Handlers struct {
	db            *database.Database
	engine        *search.Engine
	issuer        *auth.Issuer
	blobs         media.BlobStore
	maxUploadSize int64
	memory        *memory.Monitor
	startTime     time.Time
}

// New creates the API handlers. blobs may be nil, in which case uploads are
// rejected with 503.
func New(db *database.Database, engine *search.Engine, issuer *auth.Issuer, blobs media.BlobStore, config Config) *Handlers {
	maxUpload := config.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadSize
	}
	return &Handlers{
		db:            db,
		engine:        engine,
		issuer:        issuer,
		blobs:         blobs,
		maxUploadSize: maxUpload,
		memory:        config.Memory,
		startTime:     time.Now(),
	}
}
