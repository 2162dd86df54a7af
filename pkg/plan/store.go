package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when no plan is stored under a name.
	ErrNotFound = errors.New("plan not found")
	// ErrExists is returned when saving over an existing name.
	ErrExists = errors.New("plan already exists")
	// ErrInvalidName is returned for names outside [a-zA-Z0-9_].
	ErrInvalidName = errors.New("invalid plan name")
	// ErrNoPlan is returned when a nil plan is passed to Save.
	ErrNoPlan = errors.New("plan is required")
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Store persists plans by name. Stores are append-only: saving an existing
// name fails until it is deleted.
type Store interface {
	Save(ctx context.Context, name string, p *Plan) error
	Load(ctx context.Context, name string) (*Plan, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// StoreConfig selects and configures a backend.
type StoreConfig struct {
	Backend string
	Path    string
	Logger  zerolog.Logger
}

// NewStore opens the configured backend.
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		return NewSQLiteStore(cfg.Path, cfg.Logger)
	case BackendFile:
		return NewFileStore(cfg.Path, cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown plan store backend: %s", cfg.Backend)
	}
}
