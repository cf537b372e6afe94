package persist

import (
	"context"
	"math/rand"
	"sync"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"
)

// MemoryService keeps everything in process memory. It backs tests and
// runs without a database; saves do not survive a restart.
type MemoryService struct {
	mu    sync.Mutex
	cat   catalog.Catalog
	saves map[string]progress.SaveState
	auth  *authority
}

type MemoryOptions struct {
	// Catalog defaults to the built-in seed.
	Catalog            catalog.Catalog
	AscensionThreshold float64
	Clock              progress.Clock
	Rand               *rand.Rand
}

func NewMemoryService(opts MemoryOptions) *MemoryService {
	if opts.Catalog.Empty() {
		opts.Catalog = catalog.Seed()
	}
	return &MemoryService{
		cat:   opts.Catalog,
		saves: map[string]progress.SaveState{},
		auth:  newAuthority(opts.Catalog, opts.AscensionThreshold, opts.Clock, opts.Rand),
	}
}

func (m *MemoryService) FetchStaticCatalogs(context.Context) (catalog.Catalog, error) {
	return m.cat, nil
}

func (m *MemoryService) LoadProgress(_ context.Context, credential string) (progress.SaveState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.saves[credential]
	if !ok {
		return progress.SaveState{}, ErrNoSave
	}
	return st.Clone(), nil
}

func (m *MemoryService) SaveProgress(_ context.Context, credential string, st progress.SaveState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.saves[credential]; ok && st.LastUpdate.Before(prev.LastUpdate) {
		return nil
	}
	m.saves[credential] = st.Clone()
	return nil
}

func (m *MemoryService) ConfirmPurchase(_ context.Context, credential string, kind progress.ConfirmKind, id string) (progress.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.saves[credential]
	if !ok {
		return progress.Confirmation{}, ErrNoSave
	}
	next, conf, err := m.auth.apply(st.Clone(), kind, id)
	if err != nil {
		return progress.Confirmation{}, err
	}
	m.saves[credential] = next
	return conf, nil
}

func (m *MemoryService) Close() error { return nil }
