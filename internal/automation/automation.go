// Package automation runs the unlockable background helpers: the
// auto-clicker and the auto-buyer. Both are thin timer loops around
// the progression store; the store stays the single writer and every
// purchase is re-validated there at buy time.
package automation

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"manaforge/internal/progress"
)

// ClickEfficiency is the share of a manual click an automated click is
// worth.
const ClickEfficiency = 0.25

// BuyInterval is how often the auto-buyer considers a purchase.
const BuyInterval = time.Second

// Clicker clicks automatically while unlocked and enabled. Its level
// is clicks per second, so the interval is a second divided by level.
type Clicker struct {
	store  *progress.Store
	logger *log.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewClicker(store *progress.Store, logger *log.Logger) *Clicker {
	if logger == nil {
		logger = log.Default()
	}
	return &Clicker{
		store:  store,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (c *Clicker) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run()
}

// Stop waits for the loop to exit. Safe on a clicker that was never
// started; done is only closed by a loop that actually ran.
func (c *Clicker) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Clicker) run() {
	defer close(c.done)

	// Wake on store commits so enabling, disabling, or a haste rune
	// takes effect without polling while the clicker sits idle.
	wake := make(chan struct{}, 1)
	cancel := c.store.Subscribe(func(progress.Snapshot) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer cancel()

	var ticker *time.Ticker
	var interval time.Duration
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
	}
	defer stopTicker()

	for {
		snap := c.store.Snapshot()
		if snap.AutoClicker.Unlocked && snap.AutoClicker.Enabled {
			// Only recreate the ticker when the cadence changed, so
			// frequent commits cannot starve it of a full period.
			if next := clickInterval(snap.AutoClicker); ticker == nil || next != interval {
				stopTicker()
				interval = next
				ticker = time.NewTicker(interval)
			}
		} else {
			stopTicker()
		}

		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C
		}
		select {
		case <-c.stop:
			return
		case <-wake:
		case <-tick:
			snap = c.store.Snapshot()
			if snap.AutoClicker.Unlocked && snap.AutoClicker.Enabled {
				c.store.IncrementMana(snap.Rates.PerAction * ClickEfficiency)
			}
		}
	}
}

func clickInterval(ac progress.AutoClicker) time.Duration {
	level := ac.Level
	if level < 1 {
		level = 1
	}
	return time.Second / time.Duration(level)
}

// Buyer buys one building per interval according to the configured
// strategy, never spending more than the allowed share of current mana.
type Buyer struct {
	store  *progress.Store
	logger *log.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewBuyer(store *progress.Store, logger *log.Logger) *Buyer {
	if logger == nil {
		logger = log.Default()
	}
	return &Buyer{
		store:  store,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (b *Buyer) Start() {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	go b.run()
}

// Stop waits for the loop to exit. Safe on a buyer that was never
// started.
func (b *Buyer) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	if b.started.Load() {
		<-b.done
	}
}

func (b *Buyer) run() {
	defer close(b.done)

	wake := make(chan struct{}, 1)
	cancel := b.store.Subscribe(func(progress.Snapshot) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer cancel()

	var ticker *time.Ticker
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
	}
	defer stopTicker()

	for {
		snap := b.store.Snapshot()
		if snap.AutoBuyer.Unlocked && snap.AutoBuyer.Enabled {
			if ticker == nil {
				ticker = time.NewTicker(BuyInterval)
			}
		} else {
			stopTicker()
		}

		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C
		}
		select {
		case <-b.stop:
			return
		case <-wake:
		case <-tick:
			b.buyOnce()
		}
	}
}

func (b *Buyer) buyOnce() {
	snap := b.store.Snapshot()
	if !snap.AutoBuyer.Unlocked || !snap.AutoBuyer.Enabled {
		return
	}
	id := SelectTarget(b.store.Catalog(), snap.SaveState)
	if id == "" {
		return
	}
	// One unit at a time; the store re-checks affordability against
	// live state, so a race with the player at worst skips a beat.
	b.store.BuyBuilding(id)
}
