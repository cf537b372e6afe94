// Package loop drives passive time: the production tick that credits
// mana and the periodic autosave to the persistence collaborator.
package loop

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"manaforge/internal/progress"
)

const (
	DefaultTickInterval = time.Second
	DefaultSaveInterval = 30 * time.Second

	saveTimeout = 10 * time.Second
)

// Saver persists a snapshot of progression state. An autosave failure
// never interrupts play; it is logged (throttled) and retried on the
// next interval.
type Saver interface {
	SaveProgress(ctx context.Context, st progress.SaveState) error
}

type Runner struct {
	store  *progress.Store
	saver  Saver
	logger *log.Logger

	tickEvery time.Duration
	saveEvery time.Duration

	saveFailLog rate.Sometimes

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type Options struct {
	Store *progress.Store
	// Saver may be nil; the loop then only ticks.
	Saver        Saver
	Logger       *log.Logger
	TickInterval time.Duration
	SaveInterval time.Duration
}

func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = DefaultSaveInterval
	}
	return &Runner{
		store:       opts.Store,
		saver:       opts.Saver,
		logger:      opts.Logger,
		tickEvery:   opts.TickInterval,
		saveEvery:   opts.SaveInterval,
		saveFailLog: rate.Sometimes{Interval: time.Minute},
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (r *Runner) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run()
}

// Stop ends the loop, waits for it, and flushes one final save. A
// runner that was never started returns immediately and saves nothing,
// so a discarded engine cannot overwrite the live one.
func (r *Runner) Stop(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.stop) })
	if !r.started.Load() {
		return
	}
	<-r.done
	if r.saver != nil {
		if err := r.saver.SaveProgress(ctx, r.store.SaveState()); err != nil {
			r.logger.Printf("final save failed: %v", err)
		}
	}
}

func (r *Runner) run() {
	defer close(r.done)
	tick := time.NewTicker(r.tickEvery)
	defer tick.Stop()
	save := time.NewTicker(r.saveEvery)
	defer save.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-tick.C:
			r.tickOnce()
		case <-save.C:
			go r.saveOnce()
		}
	}
}

// tickOnce credits one interval's worth of passive production.
func (r *Runner) tickOnce() {
	snap := r.store.Snapshot()
	amount := snap.Rates.PerTick * r.tickEvery.Seconds()
	if amount > 0 {
		r.store.IncrementMana(amount)
	}
}

func (r *Runner) saveOnce() {
	if r.saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.saver.SaveProgress(ctx, r.store.SaveState()); err != nil {
		r.saveFailLog.Do(func() {
			r.logger.Printf("autosave failed: %v", err)
		})
	}
}
