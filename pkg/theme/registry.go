package theme

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider is the read-only theme source used by the core.
type Provider interface {
	Themes(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (Theme, error)
}

// Registry holds the built-in themes plus any loaded from a directory.
// Directory themes override built-ins with the same id.
type Registry struct {
	logger   zerolog.Logger
	dir      string
	debounce time.Duration

	mu     sync.RWMutex
	themes map[string]Theme
}

// NewRegistry creates a registry with the built-in themes. When dir is set
// its *.json themes are loaded too.
func NewRegistry(logger zerolog.Logger, dir string) (*Registry, error) {
	r := &Registry{
		logger: logger,
		dir:    dir,
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the theme set from the built-ins and the directory. On
// error the previous set is kept.
func (r *Registry) Reload() error {
	themes := make(map[string]Theme)
	for _, t := range Builtin() {
		themes[t.ID] = t
	}

	loaded, err := loadDir(r.dir)
	if err != nil {
		return err
	}
	for _, t := range loaded {
		themes[t.ID] = t
	}

	r.mu.Lock()
	r.themes = themes
	r.mu.Unlock()

	r.logger.Debug().Int("themes", len(themes)).Str("dir", r.dir).Msg("Themes loaded")
	return nil
}

func loadDir(dir string) ([]Theme, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read themes dir: %w", err)
	}

	var out []Theme
	for _, entry := range entries {
		if entry.IsDir() || !isThemeFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read theme %s: %w", entry.Name(), err)
		}
		var t Theme
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse theme %s: %w", entry.Name(), err)
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("theme %s: %w", entry.Name(), err)
		}
		out = append(out, t)
	}
	return out, nil
}

func isThemeFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

// Themes implements Provider. Results are sorted by id.
func (r *Registry) Themes(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get implements Provider.
func (r *Registry) Get(ctx context.Context, id string) (Theme, error) {
	if err := ctx.Err(); err != nil {
		return Theme{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.themes[strings.TrimSpace(id)]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Has reports whether id is a known theme.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.themes[strings.TrimSpace(id)]
	return ok
}
