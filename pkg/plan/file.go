package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/internal/observability"
)

// FileStore keeps one JSON document per plan in a directory.
type FileStore struct {
	dir    string
	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	observability.EnsureRegistered()

	if dir == "" {
		return nil, errors.New("plan directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plan directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes p to a temp file and hard-links it into place. The link fails
// when the name is taken, which keeps saves append-only across processes
// sharing the directory.
func (s *FileStore) Save(ctx context.Context, name string, p *Plan) (err error) {
	defer func() { observability.RecordPlanStoreOp(BackendFile, "save", err == nil) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	named, err := p.WithName(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(named, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempFile := tmp.Name()
	defer os.Remove(tempFile)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempFile, 0644); err != nil {
		return fmt.Errorf("failed to set plan permissions: %w", err)
	}

	target := s.path(name)
	if err := os.Link(tempFile, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return fmt.Errorf("failed to link plan file: %w", err)
	}

	s.logger.Info().Str("plan", name).Str("path", target).Int("steps", named.Len()).Msg("Plan saved")
	return nil
}

// Load reads the plan stored under name.
func (s *FileStore) Load(ctx context.Context, name string) (p *Plan, err error) {
	defer func() { observability.RecordPlanStoreOp(BackendFile, "load", err == nil) }()

	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(name))
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	p = &Plan{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", name, err)
	}
	return p, nil
}

// Delete removes the plan file.
func (s *FileStore) Delete(ctx context.Context, name string) (err error) {
	defer func() { observability.RecordPlanStoreOp(BackendFile, "delete", err == nil) }()

	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	s.logger.Info().Str("plan", name).Msg("Plan deleted")
	return nil
}

// List returns summaries ordered by name. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) (out []Summary, err error) {
	defer func() { observability.RecordPlanStoreOp(BackendFile, "list", err == nil) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan directory: %w", err)
	}

	out = []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable plan")
			continue
		}
		var p Plan
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid plan")
			continue
		}
		out = append(out, p.Summary())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
