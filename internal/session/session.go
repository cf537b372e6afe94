// Package session composes one running game engine per player: the
// progression store plus the tick loop, surge scheduler, automation
// runners and telemetry, all wired to the persistence collaborator
// under the player's credential.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"manaforge/internal/automation"
	"manaforge/internal/catalog"
	"manaforge/internal/config"
	"manaforge/internal/loop"
	"manaforge/internal/persist"
	"manaforge/internal/production"
	"manaforge/internal/progress"
	"manaforge/internal/surge"
	"manaforge/internal/telemetry"
)

// OfflineCap bounds how much absence is credited when a save is
// resumed.
const OfflineCap = 8 * time.Hour

type Session struct {
	Credential string
	Store      *progress.Store
	Scheduler  *surge.Scheduler

	runner  *loop.Runner
	clicker *automation.Clicker
	buyer   *automation.Buyer
	detach  func()
}

// NoteActivity marks a player-driven action for surge luck purposes.
func (s *Session) NoteActivity() {
	s.Scheduler.NoteActivity()
}

func (s *Session) stop(ctx context.Context) {
	s.clicker.Stop()
	s.buyer.Stop()
	s.Scheduler.Stop()
	s.runner.Stop(ctx)
	if s.detach != nil {
		s.detach()
	}
}

// Manager owns the live sessions. Get starts an engine on first use of
// a credential; Close stops every engine and flushes final saves.
type Manager struct {
	svc    persist.Service
	cfg    *config.Config
	logger *log.Logger
	events telemetry.Repository
	clock  progress.Clock

	mu       sync.Mutex
	catalog  *catalog.Catalog
	sessions map[string]*Session
}

type ManagerOptions struct {
	Service persist.Service
	Config  *config.Config
	Logger  *log.Logger
	// Events may be nil to disable telemetry.
	Events telemetry.Repository
	Clock  progress.Clock
}

func NewManager(opts ManagerOptions) *Manager {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = progress.RealClock{}
	}
	return &Manager{
		svc:      opts.Service,
		cfg:      opts.Config,
		logger:   opts.Logger,
		events:   opts.Events,
		clock:    opts.Clock,
		sessions: map[string]*Session{},
	}
}

// Get returns the running session for the credential, starting one if
// needed.
func (m *Manager) Get(ctx context.Context, credential string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[credential]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	cat, err := m.catalogOnce(ctx)
	if err != nil {
		return nil, err
	}
	st, err := m.svc.LoadProgress(ctx, credential)
	switch {
	case errors.Is(err, persist.ErrNoSave):
		st = progress.DefaultSaveState()
	case err != nil:
		return nil, err
	default:
		m.creditOffline(&st, cat)
	}

	s := m.build(credential, cat, st)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[credential]; ok {
		// Lost the race; the winner's engine stands.
		go s.stop(context.Background())
		return existing, nil
	}
	m.sessions[credential] = s
	s.runner.Start()
	s.Scheduler.Start()
	s.clicker.Start()
	s.buyer.Start()
	return s, nil
}

func (m *Manager) build(credential string, cat catalog.Catalog, st progress.SaveState) *Session {
	store := progress.NewStore(progress.Options{
		Catalog:            cat,
		Initial:            st,
		Clock:              m.clock,
		Confirmer:          m.confirmerFor(credential),
		Logger:             m.logger,
		AscensionThreshold: m.cfg.Engine.AscensionThreshold,
	})
	s := &Session{
		Credential: credential,
		Store:      store,
		Scheduler: surge.NewScheduler(surge.Options{
			Store:   store,
			Catalog: cat,
			Config: surge.Config{
				MinDelay:       m.cfg.Surges.MinDelay(),
				MaxDelay:       m.cfg.Surges.MaxDelay(),
				RuneFactor:     m.cfg.Surges.RuneFactor,
				TalentFactor:   m.cfg.Surges.TalentFactor,
				ActivityFactor: m.cfg.Surges.ActivityFactor,
				ActivityWindow: m.cfg.Surges.ActivityWindow(),
			},
			Clock:  m.clock,
			Logger: m.logger,
		}),
		runner: loop.NewRunner(loop.Options{
			Store:        store,
			Saver:        saverFor(m.svc, credential),
			Logger:       m.logger,
			TickInterval: m.cfg.Engine.TickInterval(),
			SaveInterval: m.cfg.Engine.AutosaveInterval(),
		}),
		clicker: automation.NewClicker(store, m.logger),
		buyer:   automation.NewBuyer(store, m.logger),
	}
	if m.events != nil {
		s.detach = telemetry.NewTracker(m.events).Attach(store)
	}
	return s
}

// confirmerFor saves the engine's state first so the collaborator
// validates against what the player actually has, then confirms.
func (m *Manager) confirmerFor(credential string) progress.ConfirmerFunc {
	return func(ctx context.Context, kind progress.ConfirmKind, id string, state progress.SaveState) (progress.Confirmation, error) {
		state.LastUpdate = m.clock.Now()
		if err := m.svc.SaveProgress(ctx, credential, state); err != nil {
			return progress.Confirmation{}, err
		}
		return m.svc.ConfirmPurchase(ctx, credential, kind, id)
	}
}

// creditOffline grants passive production for the time the save sat
// idle, capped at OfflineCap.
func (m *Manager) creditOffline(st *progress.SaveState, cat catalog.Catalog) {
	if st.LastUpdate.IsZero() {
		return
	}
	away := m.clock.Now().Sub(st.LastUpdate)
	if away <= 0 {
		return
	}
	if away > OfflineCap {
		away = OfflineCap
	}
	st.Normalize()
	rates := production.Compute(st.ProductionInput(), cat, m.clock.Now())
	earned := rates.PerTick * away.Seconds()
	st.Mana += earned
	st.TotalManaEarned += earned
}

func (m *Manager) catalogOnce(ctx context.Context) (catalog.Catalog, error) {
	m.mu.Lock()
	if m.catalog != nil {
		cat := *m.catalog
		m.mu.Unlock()
		return cat, nil
	}
	m.mu.Unlock()

	cat, err := m.svc.FetchStaticCatalogs(ctx)
	if err != nil {
		return catalog.Catalog{}, err
	}
	m.mu.Lock()
	m.catalog = &cat
	m.mu.Unlock()
	return cat, nil
}

// Close stops every session; each stop flushes a final save.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range sessions {
		s.stop(ctx)
	}
}

type saverFunc func(ctx context.Context, st progress.SaveState) error

func (f saverFunc) SaveProgress(ctx context.Context, st progress.SaveState) error {
	return f(ctx, st)
}

func saverFor(svc persist.Service, credential string) loop.Saver {
	return saverFunc(func(ctx context.Context, st progress.SaveState) error {
		return svc.SaveProgress(ctx, credential, st)
	})
}
