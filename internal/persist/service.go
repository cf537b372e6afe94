// Package persist is the persistence collaborator: it serves the
// static catalogs, stores per-player progression keyed by an opaque
// credential, and confirms the progression operations that must not be
// decided client-side. Two backends implement the same contract, an
// in-memory one for tests and single-process play and a SQL one for
// durable storage.
package persist

import (
	"context"
	"errors"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"
)

var (
	// ErrNoSave means no progression exists for the credential yet.
	// Callers start such a player from the default state.
	ErrNoSave = errors.New("persist: no save for credential")
	// ErrRejected means a confirmation failed validation against the
	// stored state. The operation must not be applied.
	ErrRejected = errors.New("persist: confirmation rejected")
)

// Service is what the game engine and the HTTP layer consume.
type Service interface {
	// FetchStaticCatalogs returns every static definition table in one
	// round trip.
	FetchStaticCatalogs(ctx context.Context) (catalog.Catalog, error)

	// LoadProgress returns the stored progression, or ErrNoSave.
	LoadProgress(ctx context.Context, credential string) (progress.SaveState, error)

	// SaveProgress overwrites the stored progression. A late arrival
	// with an older LastUpdate than the stored row is dropped silently.
	SaveProgress(ctx context.Context, credential string, st progress.SaveState) error

	// ConfirmPurchase validates a progression operation against the
	// stored state, applies its server-side effect, and returns any
	// authoritative outcome. Validation failures are ErrRejected.
	ConfirmPurchase(ctx context.Context, credential string, kind progress.ConfirmKind, id string) (progress.Confirmation, error)

	Close() error
}
