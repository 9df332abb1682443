package types

import (
	errorsmod "cosmossdk.io/errors"
)

// GenesisState is the exported module state. Pending continuations are
// transient and never exported.
type GenesisState struct {
	Config        *Config        `json:"config,omitempty"`
	Setup         *SetupState    `json:"setup,omitempty"`
	Subscriptions []Subscription `json:"subscriptions"`
	Hacks         []HackRecord   `json:"hacks"`
	FeeBalances   []FeeBalance   `json:"fee_balances"`
	// LastContinuationID is the last continuation id handed out. Ids are
	// never reused across an export, so replies still in flight for
	// dropped continuations stay unknown.
	LastContinuationID uint64 `json:"last_continuation_id"`
}

// DefaultGenesis returns an uninitialized module state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Subscriptions: []Subscription{},
		Hacks:         []HackRecord{},
		FeeBalances:   []FeeBalance{},
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if gs.Config != nil {
		if err := gs.Config.Validate(); err != nil {
			return err
		}
	} else if len(gs.Hacks) > 0 || len(gs.FeeBalances) > 0 {
		return errorsmod.Wrap(ErrConfigNotInitialized, "genesis settlements require a config")
	}

	entities := make(map[string]struct{}, len(gs.Subscriptions))
	for i, sub := range gs.Subscriptions {
		if err := sub.Validate(); err != nil {
			return errorsmod.Wrapf(err, "subscription at index %d", i)
		}
		if _, dup := entities[sub.ProtectedEntity]; dup {
			return errorsmod.Wrapf(ErrValidation, "duplicate subscription for %s", sub.ProtectedEntity)
		}
		entities[sub.ProtectedEntity] = struct{}{}
	}

	ids := make(map[uint64]struct{}, len(gs.Hacks))
	for i, hack := range gs.Hacks {
		if err := hack.Validate(); err != nil {
			return errorsmod.Wrapf(err, "hack at index %d", i)
		}
		if _, dup := ids[hack.ID]; dup {
			return errorsmod.Wrapf(ErrValidation, "duplicate hack id %d", hack.ID)
		}
		ids[hack.ID] = struct{}{}
	}

	assets := make(map[string]struct{}, len(gs.FeeBalances))
	for _, bal := range gs.FeeBalances {
		if bal.AssetModule == "" {
			return errorsmod.Wrap(ErrValidation, "fee balance asset module cannot be empty")
		}
		if bal.Amount.IsNil() || bal.Amount.IsNegative() {
			return errorsmod.Wrapf(ErrValidation, "fee balance for %s must be non-negative", bal.AssetModule)
		}
		if _, dup := assets[bal.AssetModule]; dup {
			return errorsmod.Wrapf(ErrValidation, "duplicate fee balance for %s", bal.AssetModule)
		}
		assets[bal.AssetModule] = struct{}{}
	}

	return nil
}
