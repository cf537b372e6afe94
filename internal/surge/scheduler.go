// Package surge schedules transient bonus events. The scheduler only
// decides WHEN to attempt a spawn; the progression store decides
// whether the attempt lands (it refuses while a claim window is open)
// and which surge type appears.
package surge

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"
)

type Config struct {
	// MinDelay and MaxDelay bound the uniform base delay between
	// spawn attempts.
	MinDelay time.Duration
	MaxDelay time.Duration
	// RuneFactor scales the delay once while a surge-frequency rune is
	// owned.
	RuneFactor float64
	// TalentFactor is the fallback delay scale for a surge-luck talent
	// that carries no value of its own.
	TalentFactor float64
	// ActivityFactor scales the delay when the player acted within
	// ActivityWindow of the draw.
	ActivityFactor float64
	ActivityWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinDelay:       5 * time.Minute,
		MaxDelay:       15 * time.Minute,
		RuneFactor:     0.75,
		TalentFactor:   0.85,
		ActivityFactor: 0.7,
		ActivityWindow: 30 * time.Second,
	}
}

// Scheduler drives spawn attempts against the store on a randomized
// interval. It is safe to NoteActivity from any goroutine.
type Scheduler struct {
	store  *progress.Store
	cat    catalog.Catalog
	cfg    Config
	clock  progress.Clock
	rng    *rand.Rand
	logger *log.Logger

	mu           sync.Mutex
	lastActivity time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type Options struct {
	Store   *progress.Store
	Catalog catalog.Catalog
	Config  Config
	Clock   progress.Clock
	Rand    *rand.Rand
	Logger  *log.Logger
}

func NewScheduler(opts Options) *Scheduler {
	if opts.Config.MinDelay <= 0 || opts.Config.MaxDelay < opts.Config.MinDelay {
		opts.Config = DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = progress.RealClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Scheduler{
		store:  opts.Store,
		cat:    opts.Catalog,
		cfg:    opts.Config,
		clock:  opts.Clock,
		rng:    opts.Rand,
		logger: opts.Logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// NoteActivity records a player action; a draw shortly after it uses
// the shortened activity delay.
func (s *Scheduler) NoteActivity() {
	s.mu.Lock()
	s.lastActivity = s.clock.Now()
	s.mu.Unlock()
}

// Start launches the spawn loop. Stop ends it and waits for exit; it
// is safe on a scheduler that was never started.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) run() {
	defer close(s.done)
	timer := time.NewTimer(s.drawDelay())
	defer timer.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			// The store refuses while a claim window is open; the
			// attempt is simply retried after the next delay.
			s.store.SpawnSurge()
			timer.Reset(s.drawDelay())
		}
	}
}

func (s *Scheduler) drawDelay() time.Duration {
	snap := s.store.Snapshot()
	s.mu.Lock()
	last := s.lastActivity
	s.mu.Unlock()
	return s.nextDelay(snap.SaveState, last)
}

// nextDelay draws uniformly in [MinDelay, MaxDelay] and applies the
// luck modifiers from the given state.
func (s *Scheduler) nextDelay(st progress.SaveState, lastActivity time.Time) time.Duration {
	base := float64(s.cfg.MinDelay) + s.rng.Float64()*float64(s.cfg.MaxDelay-s.cfg.MinDelay)
	return time.Duration(base * s.luckFactor(st, lastActivity))
}

func (s *Scheduler) luckFactor(st progress.SaveState, lastActivity time.Time) float64 {
	factor := 1.0
	for _, def := range s.cat.Runes {
		if def.Effect.Kind == catalog.RuneSurgeFrequency && st.RuneLevel(def.ID) > 0 {
			factor *= s.cfg.RuneFactor
		}
	}
	for _, def := range s.cat.Talents {
		if def.Effect.Kind != catalog.TalentSurgeLuck || !st.HasTalent(def.ID) {
			continue
		}
		if def.Effect.Value > 0 {
			factor *= def.Effect.Value
		} else {
			factor *= s.cfg.TalentFactor
		}
	}
	if !lastActivity.IsZero() && s.clock.Now().Sub(lastActivity) <= s.cfg.ActivityWindow {
		factor *= s.cfg.ActivityFactor
	}
	return factor
}
