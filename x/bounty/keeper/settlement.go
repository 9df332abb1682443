package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// Receive is the receive hook of a fungible asset module. The asset module
// has already moved msg.Amount to this module; the payload says what for.
func (k Keeper) Receive(ctx context.Context, msg types.MsgReceive) (*types.Response, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	payload, err := types.ParseReceivePayload(msg.Msg)
	if err != nil {
		return nil, err
	}
	return k.Deposit(ctx, msg.Amount, msg.Sender, payload.ProtectedEntity, msg.AssetModule)
}

// Deposit settles recovered funds: it splits amount between the reporter,
// the protocol and the subscription beneficiary, records the event in the ledger
// and requests a provenance token for the reporter. The returned effects
// must be dispatched together.
func (k Keeper) Deposit(
	ctx context.Context,
	amount sdkmath.Int,
	reporter string,
	protectedEntity string,
	assetModule string,
) (*types.Response, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, errorsmod.Wrap(types.ErrValidation, "deposit amount must be positive")
	}
	if err := k.validateAddress("reporter", reporter); err != nil {
		return nil, err
	}

	sub, err := k.GetSubscription(ctx, protectedEntity)
	if err != nil {
		return nil, err
	}
	cfg, err := k.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.HasTokenModule() {
		return nil, types.ErrTokenModuleNotLinked
	}

	split, err := types.ComputeSplit(amount, sub.CommissionBps, cfg.ProtocolFeeBps, sub.MinBounty)
	if err != nil {
		return nil, err
	}

	sdkCtx, now := contextNow(ctx)
	rec, err := k.appendHack(ctx, types.HackRecord{
		TimestampUnix:   now.Unix(),
		ProtectedEntity: protectedEntity,
		AssetModule:     assetModule,
		TotalAmount:     amount,
		Bounty:          split.Bounty,
		ProtocolFee:     split.Fee,
		Remainder:       split.Remainder,
		Reporter:        reporter,
		Beneficiary:     sub.RemainderRecipient(),
	})
	if err != nil {
		return nil, err
	}

	if err := k.creditFee(ctx, assetModule, split.Fee); err != nil {
		return nil, err
	}

	mintID, err := nextID(ctx, k.ContinuationSeq)
	if err != nil {
		return nil, err
	}
	if err := k.PendingContinuations.Set(ctx, mintID, types.PendingContinuation{
		ID:            mintID,
		Kind:          types.ContinuationMintProvenance,
		HackID:        rec.ID,
		CreatedAtUnix: now.Unix(),
	}); err != nil {
		return nil, err
	}

	res := types.NewResponse("deposit").AddEffects(
		types.TransferEffect{AssetModule: assetModule, Recipient: reporter, Amount: split.Bounty},
		types.TransferEffect{AssetModule: assetModule, Recipient: sub.RemainderRecipient(), Amount: split.Remainder},
		types.MintEffect{
			TokenModule:    cfg.TokenModule,
			ContinuationID: mintID,
			TokenID:        rec.TokenID,
			Owner:          reporter,
			Metadata:       rec.ProvenanceMetadata(),
		},
	)
	res.Hack = &rec

	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeDeposit,
		sdk.NewAttribute("hack_id", rec.TokenID),
		sdk.NewAttribute("protected_entity", protectedEntity),
		sdk.NewAttribute("reporter", reporter),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("bounty", split.Bounty.String()),
		sdk.NewAttribute("protocol_fee", split.Fee.String()),
	))
	k.Logger(ctx).Info("deposit settled",
		"hack_id", rec.ID,
		"protected_entity", protectedEntity,
		"reporter", reporter,
		"amount", amount.String(),
		"bounty", split.Bounty.String(),
		"protocol_fee", split.Fee.String(),
	)

	return res, nil
}

func (k Keeper) creditFee(ctx context.Context, assetModule string, fee sdkmath.Int) error {
	if fee.IsZero() {
		return nil
	}
	bal, err := k.GetFeeBalance(ctx, assetModule)
	if err != nil {
		return err
	}
	next, err := bal.SafeAdd(fee)
	if err != nil {
		return errorsmod.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	return k.FeeBalances.Set(ctx, assetModule, next)
}

// Withdraw pays accumulated protocol fees of one asset module to the owner
// or a recipient the owner names.
func (k Keeper) Withdraw(ctx context.Context, msg types.MsgWithdraw) (*types.Response, error) {
	cfg, err := k.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Sender != cfg.Owner {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the owner may withdraw fees")
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	recipient := msg.Recipient
	if recipient == "" {
		recipient = cfg.Owner
	}
	if err := k.validateAddress("recipient", recipient); err != nil {
		return nil, err
	}

	bal, err := k.GetFeeBalance(ctx, msg.AssetModule)
	if err != nil {
		return nil, err
	}
	amount := bal
	if msg.Amount != nil {
		amount = *msg.Amount
	}
	if amount.IsZero() {
		return nil, types.ErrNothingToWithdraw
	}
	left, err := bal.SafeSub(amount)
	if err != nil || left.IsNegative() {
		return nil, errorsmod.Wrapf(types.ErrInsufficientFees, "requested %s, accumulated %s", amount, bal)
	}

	if left.IsZero() {
		err = k.FeeBalances.Remove(ctx, msg.AssetModule)
	} else {
		err = k.FeeBalances.Set(ctx, msg.AssetModule, left)
	}
	if err != nil {
		return nil, err
	}

	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeWithdraw,
		sdk.NewAttribute("asset_module", msg.AssetModule),
		sdk.NewAttribute("recipient", recipient),
		sdk.NewAttribute("amount", amount.String()),
	))
	k.Logger(ctx).Info("protocol fees withdrawn",
		"asset_module", msg.AssetModule,
		"recipient", recipient,
		"amount", amount.String(),
	)

	return types.NewResponse("withdraw").AddEffects(
		types.TransferEffect{AssetModule: msg.AssetModule, Recipient: recipient, Amount: amount},
	), nil
}

// GetFeeBalance returns the accumulated fee for assetModule, zero if none.
func (k Keeper) GetFeeBalance(ctx context.Context, assetModule string) (sdkmath.Int, error) {
	bal, err := k.FeeBalances.Get(ctx, assetModule)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return bal, err
}

// ListFeeBalances returns all non-zero fee accumulators by asset module.
func (k Keeper) ListFeeBalances(ctx context.Context) ([]types.FeeBalance, error) {
	var out []types.FeeBalance
	err := k.FeeBalances.Walk(ctx, nil, func(asset string, amount sdkmath.Int) (bool, error) {
		out = append(out, types.FeeBalance{AssetModule: asset, Amount: amount})
		return false, nil
	})
	return out, err
}
