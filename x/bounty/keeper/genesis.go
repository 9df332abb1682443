package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// setupInterruptedReason marks a setup that was awaiting a reply when state
// was exported. Its continuation is gone, so only a retry can finish it.
const setupInterruptedReason = "setup interrupted by genesis export"

// InitGenesis loads the module state. Sequences resume after the highest
// imported ids.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if gs == nil {
		gs = types.DefaultGenesis()
	}
	if err := gs.Validate(); err != nil {
		return err
	}

	if gs.Config != nil {
		if err := k.SaveConfig(ctx, *gs.Config); err != nil {
			return err
		}
	}

	lastContinuation := gs.LastContinuationID
	if gs.Setup != nil {
		setup := *gs.Setup
		if setup.Status == types.SetupStatusAwaitingReply {
			setup.Status = types.SetupStatusFailed
			setup.FailureReason = setupInterruptedReason
		}
		if err := k.Setup.Set(ctx, setup); err != nil {
			return err
		}
		if setup.ContinuationID > lastContinuation {
			lastContinuation = setup.ContinuationID
		}
	}
	if err := k.ContinuationSeq.Set(ctx, lastContinuation); err != nil {
		return err
	}

	for _, sub := range gs.Subscriptions {
		if err := k.Subscriptions.Set(ctx, sub.ProtectedEntity, sub); err != nil {
			return err
		}
	}

	var maxID uint64
	for _, rec := range gs.Hacks {
		if err := k.storeHack(ctx, rec); err != nil {
			return err
		}
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	if err := k.HackSeq.Set(ctx, maxID); err != nil {
		return err
	}

	for _, bal := range gs.FeeBalances {
		if bal.Amount.IsZero() {
			continue
		}
		if err := k.FeeBalances.Set(ctx, bal.AssetModule, bal.Amount); err != nil {
			return err
		}
	}

	return nil
}

// ExportGenesis exports the module state. Pending continuations are left
// out, but the id sequence is kept.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()

	lastContinuation, err := k.ContinuationSeq.Peek(ctx)
	if err != nil {
		return nil, err
	}
	gs.LastContinuationID = lastContinuation

	exists, err := k.Config.Has(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		cfg, err := k.LoadConfig(ctx)
		if err != nil {
			return nil, err
		}
		gs.Config = &cfg
	}

	exists, err = k.Setup.Has(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		setup, err := k.Setup.Get(ctx)
		if err != nil {
			return nil, err
		}
		gs.Setup = &setup
	}

	if err := k.Subscriptions.Walk(ctx, nil, func(_ string, sub types.Subscription) (bool, error) {
		gs.Subscriptions = append(gs.Subscriptions, sub)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.IterateHacks(ctx, nil, func(rec types.HackRecord) (bool, error) {
		gs.Hacks = append(gs.Hacks, rec)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.FeeBalances.Walk(ctx, nil, func(asset string, amount sdkmath.Int) (bool, error) {
		gs.FeeBalances = append(gs.FeeBalances, types.FeeBalance{AssetModule: asset, Amount: amount})
		return false, nil
	}); err != nil {
		return nil, err
	}

	return gs, nil
}
