package fund

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is an in-memory Provider seeded with the built-in sample funds
// and, optionally, profiles loaded from a directory of JSON files.
type Registry struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	funds map[string]*Profile
}

// NewRegistry creates a registry holding the built-in sample funds.
func NewRegistry(logger zerolog.Logger) *Registry {
	r := &Registry{
		logger: logger,
		funds:  make(map[string]*Profile),
	}
	for _, p := range SampleProfiles() {
		r.funds[p.FundID] = p
	}
	return r
}

// Register adds or replaces a profile.
func (r *Registry) Register(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	id := strings.TrimSpace(p.FundID)
	if id == "" {
		return fmt.Errorf("fund id is required")
	}
	if p.Returns.Months == 0 && len(p.MonthlyReturns) > 0 {
		p.Returns = ComputeReturnStats(p.MonthlyReturns)
	}
	if len(p.Portfolio) == 0 && len(p.MonthlyReturns) > 0 {
		p.Portfolio = Compound(p.MonthlyReturns, 100)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.funds[id] = p
	return nil
}

// LoadDir registers every *.json profile in dir. A missing directory is not
// an error.
func (r *Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read funds dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read fund %s: %w", entry.Name(), err)
		}

		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to parse fund %s: %w", entry.Name(), err)
		}
		if p.FundID == "" {
			p.FundID = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		if err := r.Register(&p); err != nil {
			return fmt.Errorf("fund %s: %w", entry.Name(), err)
		}
		r.logger.Debug().Str("fund_id", p.FundID).Str("file", path).Msg("Loaded fund profile")
	}
	return nil
}

// Profile implements Provider.
func (r *Registry) Profile(ctx context.Context, fundID string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.funds[strings.TrimSpace(fundID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fundID)
	}
	return p, nil
}

// Funds implements Provider. Results are sorted by id.
func (r *Registry) Funds(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.funds))
	for id, p := range r.funds {
		out = append(out, Summary{ID: id, Name: p.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
