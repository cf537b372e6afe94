package progress

import "context"

// ConfirmKind names the side-effecting operations the persistence
// collaborator validates server-side.
type ConfirmKind string

const (
	ConfirmAscend             ConfirmKind = "ascend"
	ConfirmBuyTalent          ConfirmKind = "buy-talent"
	ConfirmResetTalents       ConfirmKind = "reset-talents"
	ConfirmBuyRune            ConfirmKind = "buy-rune"
	ConfirmToggleAutoClicker  ConfirmKind = "toggle-auto-clicker"
	ConfirmConfigureAutoBuyer ConfirmKind = "configure-auto-buyer"
	ConfirmClaimSurge         ConfirmKind = "claim-surge"
)

// Confirmation carries whatever the collaborator decided. Nil fields
// mean "no server opinion, keep the local prediction". Non-nil fields
// are authoritative and overwrite local math.
type Confirmation struct {
	// RefundedEssence is set for reset-talents.
	RefundedEssence *float64 `json:"refundedEssence,omitempty"`
	// Reward is set for claim-surge of an instant-reward type.
	Reward *float64 `json:"reward,omitempty"`
	// State is the full post-operation state, set for ascend.
	State *SaveState `json:"state,omitempty"`
}

// Confirmer fronts the collaborator's confirmPurchase call. The state
// passed is the engine's current view; implementations typically sync
// it server-side before deciding. A nil Confirmer means every local
// prediction stands.
type Confirmer interface {
	Confirm(ctx context.Context, kind ConfirmKind, id string, state SaveState) (Confirmation, error)
}

// ConfirmerFunc adapts a closure to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, kind ConfirmKind, id string, state SaveState) (Confirmation, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, kind ConfirmKind, id string, state SaveState) (Confirmation, error) {
	return f(ctx, kind, id, state)
}
