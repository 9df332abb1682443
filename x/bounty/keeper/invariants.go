package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// RegisterInvariants registers all module invariants with the invariant registry.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "fee-balances", FeeBalancesInvariant(k))
	ir.RegisterRoute(types.ModuleName, "ledger-index", LedgerIndexInvariant(k))
}

// AllInvariants runs all invariants of the bounty module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		invariants := []sdk.Invariant{
			FeeBalancesInvariant(k),
			LedgerIndexInvariant(k),
		}

		for _, inv := range invariants {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// FeeBalancesInvariant checks that no fee accumulator is negative and that
// the accumulated fees never exceed the fees recorded in the ledger for the
// same asset module.
func FeeBalancesInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var msg string
		broken := false

		recorded := make(map[string]sdkmath.Int)
		_ = k.IterateHacks(ctx, nil, func(rec types.HackRecord) (bool, error) {
			total, ok := recorded[rec.AssetModule]
			if !ok {
				total = sdkmath.ZeroInt()
			}
			recorded[rec.AssetModule] = total.Add(rec.ProtocolFee)
			return false, nil
		})

		_ = k.FeeBalances.Walk(ctx, nil, func(asset string, amount sdkmath.Int) (bool, error) {
			if amount.IsNegative() {
				msg += fmt.Sprintf("INVARIANT BROKEN: fee balance for %s is negative: %s\n", asset, amount)
				broken = true
				return false, nil
			}
			total, ok := recorded[asset]
			if !ok {
				total = sdkmath.ZeroInt()
			}
			if amount.GT(total) {
				msg += fmt.Sprintf("INVARIANT BROKEN: fee balance for %s is %s but ledger fees total %s\n", asset, amount, total)
				broken = true
			}
			return false, nil
		})

		if broken {
			return sdk.FormatInvariant(types.ModuleName, "fee-balances", msg), true
		}
		return "", false
	}
}

// LedgerIndexInvariant checks that every hack has a well-formed split and
// exactly one reporter index entry, and that the index has no orphans.
func LedgerIndexInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var msg string
		broken := false
		hackCount := 0

		_ = k.IterateHacks(ctx, nil, func(rec types.HackRecord) (bool, error) {
			hackCount++
			if err := rec.Validate(); err != nil {
				msg += fmt.Sprintf("INVARIANT BROKEN: hack %d is malformed: %v\n", rec.ID, err)
				broken = true
			}
			has, err := k.HacksByReporter.Has(ctx, collections.Join3(rec.Reporter, rec.TimestampUnix, rec.ID))
			if err != nil || !has {
				msg += fmt.Sprintf("INVARIANT BROKEN: hack %d has no reporter index entry\n", rec.ID)
				broken = true
			}
			return false, nil
		})

		indexCount := 0
		_ = k.HacksByReporter.Walk(ctx, nil, func(key collections.Triple[string, int64, uint64]) (bool, error) {
			indexCount++
			rec, err := k.Hacks.Get(ctx, key.K3())
			if err != nil {
				msg += fmt.Sprintf("INVARIANT BROKEN: reporter index points at missing hack %d\n", key.K3())
				broken = true
				return false, nil
			}
			if rec.Reporter != key.K1() || rec.TimestampUnix != key.K2() {
				msg += fmt.Sprintf("INVARIANT BROKEN: reporter index entry for hack %d does not match the record\n", rec.ID)
				broken = true
			}
			return false, nil
		})

		if indexCount != hackCount {
			msg += fmt.Sprintf("INVARIANT BROKEN: %d hacks but %d reporter index entries\n", hackCount, indexCount)
			broken = true
		}

		if broken {
			return sdk.FormatInvariant(types.ModuleName, "ledger-index", msg), true
		}
		return "", false
	}
}
