package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu     sync.Mutex
	states []progress.SaveState
	err    error
}

func (s *recordingSaver) SaveProgress(_ context.Context, st progress.SaveState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
	return s.err
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func tickStore(initial progress.SaveState) *progress.Store {
	return progress.NewStore(progress.Options{
		Catalog: catalog.Seed(),
		Initial: initial,
		Clock:   progress.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestTickOnce_CreditsPassiveRate(t *testing.T) {
	// 10 wisps at 0.5/s = 5 per one-second tick.
	store := tickStore(progress.SaveState{Buildings: map[string]int{"wisp": 10}})
	r := NewRunner(Options{Store: store})
	r.tickOnce()

	snap := store.Snapshot()
	assert.Equal(t, 5.0, snap.Mana)
	assert.Equal(t, 5.0, snap.TotalManaEarned)
}

func TestTickOnce_ZeroRateNoCommit(t *testing.T) {
	store := tickStore(progress.SaveState{})
	notified := 0
	store.Subscribe(func(progress.Snapshot) { notified++ })

	NewRunner(Options{Store: store}).tickOnce()
	assert.Zero(t, notified)
	assert.Zero(t, store.Snapshot().Mana)
}

func TestTickOnce_ScalesWithInterval(t *testing.T) {
	store := tickStore(progress.SaveState{Buildings: map[string]int{"wisp": 10}})
	r := NewRunner(Options{Store: store, TickInterval: 250 * time.Millisecond})
	r.tickOnce()
	assert.InDelta(t, 1.25, store.Snapshot().Mana, 1e-9)
}

func TestSaveOnce_PersistsCurrentState(t *testing.T) {
	store := tickStore(progress.SaveState{Mana: 42})
	saver := &recordingSaver{}
	r := NewRunner(Options{Store: store, Saver: saver})
	r.saveOnce()

	require.Equal(t, 1, saver.count())
	assert.Equal(t, 42.0, saver.states[0].Mana)
	assert.False(t, saver.states[0].LastUpdate.IsZero())
}

func TestSaveOnce_FailureDoesNotPanic(t *testing.T) {
	store := tickStore(progress.SaveState{})
	saver := &recordingSaver{err: errors.New("disk full")}
	r := NewRunner(Options{Store: store, Saver: saver})
	r.saveOnce()
	r.saveOnce()
	assert.Equal(t, 2, saver.count())
}

func TestStop_FlushesFinalSave(t *testing.T) {
	store := tickStore(progress.SaveState{Mana: 7})
	saver := &recordingSaver{}
	r := NewRunner(Options{Store: store, Saver: saver, TickInterval: time.Hour, SaveInterval: time.Hour})
	r.Start()
	r.Stop(context.Background())
	assert.Equal(t, 1, saver.count())
}

func TestStopWithoutStart_ReturnsWithoutSaving(t *testing.T) {
	store := tickStore(progress.SaveState{Mana: 7})
	saver := &recordingSaver{}
	r := NewRunner(Options{Store: store, Saver: saver, TickInterval: time.Hour, SaveInterval: time.Hour})

	done := make(chan struct{})
	go func() {
		r.Stop(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a runner that was never started")
	}
	// A discarded runner must not flush state over the live one.
	assert.Equal(t, 0, saver.count())
}
