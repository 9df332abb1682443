package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

type replyHandler func(k Keeper, ctx context.Context, pending types.PendingContinuation, result types.ReplyResult) (*types.Response, error)

// replyHandlers dispatches a reply on the kind recorded with its pending
// continuation.
var replyHandlers = map[types.ContinuationKind]replyHandler{
	types.ContinuationInstantiateTokenModule: Keeper.handleInstantiateReply,
	types.ContinuationMintProvenance:         Keeper.handleMintReply,
}

// Instantiate stores the initial config and starts instantiating the
// provenance token module. It returns before the module exists; the address
// is bound when the reply arrives through HandleReply.
func (k Keeper) Instantiate(ctx context.Context, msg types.MsgInstantiate) (*types.Response, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := k.validateAddress("sender", msg.Sender); err != nil {
		return nil, err
	}
	if msg.Token.Admin != "" {
		if err := k.validateAddress("token admin", msg.Token.Admin); err != nil {
			return nil, err
		}
	}

	exists, err := k.Config.Has(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.ErrAlreadyInitialized
	}

	cfg := types.Config{
		Owner:          msg.Sender,
		ProtocolFeeBps: msg.ProtocolFeeBps,
	}
	if err := k.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}

	effect, err := k.beginTokenModuleSetup(ctx, msg.Token)
	if err != nil {
		return nil, err
	}

	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeInstantiate,
		sdk.NewAttribute("owner", cfg.Owner),
		sdk.NewAttribute("protocol_fee_bps", fmt.Sprintf("%d", cfg.ProtocolFeeBps)),
		sdk.NewAttribute("continuation_id", fmt.Sprintf("%d", effect.ContinuationID)),
	))

	return types.NewResponse("instantiate").AddEffects(effect), nil
}

// RetryTokenModuleSetup opens a new setup attempt after the previous one
// failed. Nothing retries automatically.
func (k Keeper) RetryTokenModuleSetup(ctx context.Context, msg types.MsgRetryTokenModuleSetup) (*types.Response, error) {
	cfg, err := k.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Sender != cfg.Owner {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the owner may retry token module setup")
	}
	if cfg.HasTokenModule() {
		return nil, errorsmod.Wrapf(types.ErrTokenModuleAlreadyLinked, "linked to %s", cfg.TokenModule)
	}

	state, err := k.GetSetupState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Status != types.SetupStatusFailed {
		return nil, errorsmod.Wrapf(types.ErrSetupNotRetryable, "setup is %s", state.Status)
	}

	effect, err := k.beginTokenModuleSetup(ctx, state.Params)
	if err != nil {
		return nil, err
	}
	return types.NewResponse("retry_token_module_setup").AddEffects(effect), nil
}

func (k Keeper) beginTokenModuleSetup(ctx context.Context, params types.TokenModuleParams) (types.InstantiateEffect, error) {
	_, now := contextNow(ctx)

	state, err := k.Setup.Get(ctx)
	switch {
	case errors.Is(err, collections.ErrNotFound):
		state = types.SetupState{Status: types.SetupStatusInit}
	case err != nil:
		return types.InstantiateEffect{}, err
	}
	if !state.Status.CanTransitionTo(types.SetupStatusAwaitingReply) {
		return types.InstantiateEffect{}, errorsmod.Wrapf(types.ErrSetupNotRetryable, "setup is %s", state.Status)
	}

	id, err := nextID(ctx, k.ContinuationSeq)
	if err != nil {
		return types.InstantiateEffect{}, err
	}
	pending := types.PendingContinuation{
		ID:            id,
		Kind:          types.ContinuationInstantiateTokenModule,
		CreatedAtUnix: now.Unix(),
	}
	if err := k.PendingContinuations.Set(ctx, id, pending); err != nil {
		return types.InstantiateEffect{}, err
	}

	next := types.SetupState{
		Status:         types.SetupStatusAwaitingReply,
		ContinuationID: id,
		Params:         params,
		Attempts:       state.Attempts + 1,
		UpdatedAtUnix:  now.Unix(),
	}
	if err := k.Setup.Set(ctx, next); err != nil {
		return types.InstantiateEffect{}, err
	}

	k.Logger(ctx).Info("token module setup started",
		"continuation_id", id,
		"code_id", params.CodeID,
		"attempt", next.Attempts,
	)

	return types.InstantiateEffect{
		ContinuationID: id,
		CodeID:         params.CodeID,
		Label:          params.Label,
		Admin:          params.Admin,
		Msg: types.TokenInstantiateMsg{
			Name:   params.Name,
			Symbol: params.Symbol,
			Minter: k.selfAddress,
		},
	}, nil
}

// HandleReply completes the pending continuation registered under reply.ID.
// An unknown id fails only this callback. A reply that reports an error, or
// that cannot be parsed, ends its continuation: the outcome is committed and
// surfaced through Response.Failure rather than as a returned error.
func (k Keeper) HandleReply(ctx context.Context, reply types.Reply) (*types.Response, error) {
	pending, err := k.PendingContinuations.Get(ctx, reply.ID)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, types.NewContinuationError(reply.ID, "", types.ErrUnknownContinuationID)
	}
	if err != nil {
		return nil, err
	}

	handler, ok := replyHandlers[pending.Kind]
	if !ok {
		return nil, types.NewContinuationError(
			reply.ID,
			pending.Kind,
			errorsmod.Wrapf(types.ErrUnknownContinuationID, "no handler for kind %q", pending.Kind),
		)
	}

	res, err := handler(k, ctx, pending, reply.Result)
	if err != nil {
		return nil, err
	}
	if err := k.PendingContinuations.Remove(ctx, reply.ID); err != nil {
		return nil, err
	}
	return res, nil
}

func (k Keeper) handleInstantiateReply(
	ctx context.Context,
	pending types.PendingContinuation,
	result types.ReplyResult,
) (*types.Response, error) {
	state, err := k.GetSetupState(ctx)
	if err != nil {
		return nil, types.NewContinuationError(pending.ID, pending.Kind, err)
	}
	if state.ContinuationID != pending.ID || state.Status != types.SetupStatusAwaitingReply {
		return nil, types.NewContinuationError(
			pending.ID,
			pending.Kind,
			errorsmod.Wrapf(types.ErrUnknownContinuationID, "setup is waiting on %d (%s)", state.ContinuationID, state.Status),
		)
	}

	if !result.IsOK() {
		return k.failTokenModuleSetup(ctx, pending, state, errorsmod.Wrap(types.ErrContinuationFailed, result.Error))
	}

	res, err := types.ParseInstantiateResponse(result.Data)
	if err != nil {
		return k.failTokenModuleSetup(ctx, pending, state, errorsmod.Wrap(types.ErrContinuationParse, err.Error()))
	}
	if err := k.validateAddress("token module", res.Address); err != nil {
		return k.failTokenModuleSetup(ctx, pending, state, errorsmod.Wrap(types.ErrContinuationParse, err.Error()))
	}

	if err := k.linkTokenModule(ctx, res.Address); err != nil {
		return nil, types.NewContinuationError(pending.ID, pending.Kind, err)
	}

	sdkCtx, now := contextNow(ctx)
	state.Status = types.SetupStatusResolved
	state.TokenModule = res.Address
	state.FailureReason = ""
	state.UpdatedAtUnix = now.Unix()
	if err := k.Setup.Set(ctx, state); err != nil {
		return nil, err
	}

	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeTokenModuleLinked,
		sdk.NewAttribute("continuation_id", fmt.Sprintf("%d", pending.ID)),
		sdk.NewAttribute("token_module", res.Address),
	))
	k.Logger(ctx).Info("token module linked",
		"continuation_id", pending.ID,
		"token_module", res.Address,
	)

	return types.NewResponse("instantiate_token_module_reply"), nil
}

func (k Keeper) failTokenModuleSetup(
	ctx context.Context,
	pending types.PendingContinuation,
	state types.SetupState,
	cause error,
) (*types.Response, error) {
	_, now := contextNow(ctx)
	state.Status = types.SetupStatusFailed
	state.FailureReason = cause.Error()
	state.UpdatedAtUnix = now.Unix()
	if err := k.Setup.Set(ctx, state); err != nil {
		return nil, err
	}

	res := types.NewResponse("instantiate_token_module_reply")
	res.Failure = types.NewContinuationFailure(pending.ID, pending.Kind, cause)
	k.reportFailure(ctx, res.Failure)
	return res, nil
}

// handleMintReply consumes the mint continuation of a deposit. A failed mint
// does not reverse the deposit's transfers.
func (k Keeper) handleMintReply(
	ctx context.Context,
	pending types.PendingContinuation,
	result types.ReplyResult,
) (*types.Response, error) {
	res := types.NewResponse("mint_provenance_reply")
	if result.IsOK() {
		k.Logger(ctx).Debug("provenance token minted",
			"continuation_id", pending.ID,
			"hack_id", pending.HackID,
		)
		return res, nil
	}

	// TODO: decide whether a failed mint should claw back the bounty transfer
	// or queue a re-mint; today the ledger entry stands without a token.
	res.Failure = types.NewContinuationFailure(
		pending.ID,
		pending.Kind,
		errorsmod.Wrapf(types.ErrContinuationFailed, "mint for hack %d: %s", pending.HackID, result.Error),
	)
	k.reportFailure(ctx, res.Failure)
	return res, nil
}

func (k Keeper) reportFailure(ctx context.Context, failure *types.ContinuationFailure) {
	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeContinuationFailed,
		sdk.NewAttribute("continuation_id", fmt.Sprintf("%d", failure.ID)),
		sdk.NewAttribute("kind", string(failure.Kind)),
		sdk.NewAttribute("reason", failure.Reason),
	))
	k.Logger(ctx).Warn("continuation failed",
		"continuation_id", failure.ID,
		"kind", failure.Kind,
		"reason", failure.Reason,
	)
}

// GetSetupState returns the latest token module setup attempt.
func (k Keeper) GetSetupState(ctx context.Context) (types.SetupState, error) {
	state, err := k.Setup.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.SetupState{Status: types.SetupStatusInit}, nil
	}
	return state, err
}

// ListPendingContinuations returns outstanding continuations by id.
func (k Keeper) ListPendingContinuations(ctx context.Context) ([]types.PendingContinuation, error) {
	var out []types.PendingContinuation
	err := k.PendingContinuations.Walk(ctx, nil, func(_ uint64, p types.PendingContinuation) (bool, error) {
		out = append(out, p)
		return false, nil
	})
	return out, err
}
