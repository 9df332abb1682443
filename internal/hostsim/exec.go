package hostsim

import (
	"fmt"
	"maps"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

type callFn func(ctx sdk.Context) (*types.Response, error)

// execute runs fn and dispatches its effects on a branch of the committed
// state. The branch is written only if everything succeeds. Replies produced
// by the effects are queued and, unless replies are manual, delivered next.
func (h *Host) execute(fn callFn) (*Outcome, error) {
	res, replies, err := h.executeAtomic(fn)
	if err != nil {
		return nil, err
	}
	h.pending = append(h.pending, replies...)

	out := &Outcome{Response: res}
	if !h.cfg.ManualReplies {
		out.Replies = h.DeliverReplies()
	}
	return out, nil
}

func (h *Host) executeAtomic(fn callFn) (*types.Response, []types.Reply, error) {
	faults := h.saveFaults()
	cacheCtx, write := h.ctx.CacheContext()
	res, err := fn(cacheCtx)
	if err != nil {
		h.restoreFaults(faults)
		return nil, nil, err
	}
	replies, err := h.dispatch(cacheCtx, res)
	if err != nil {
		h.restoreFaults(faults)
		return nil, nil, err
	}
	write()
	return res, replies, nil
}

// faultState is the host state kept outside the store. It is restored
// whenever a branch is discarded.
type faultState struct {
	instances       uint64
	failInstantiate []string
	failMints       map[string]string
}

func (h *Host) saveFaults() faultState {
	return faultState{
		instances:       h.instances,
		failInstantiate: h.failInstantiate,
		failMints:       maps.Clone(h.failMints),
	}
}

func (h *Host) restoreFaults(s faultState) {
	h.instances = s.instances
	h.failInstantiate = s.failInstantiate
	h.failMints = s.failMints
}

func (h *Host) dispatch(ctx sdk.Context, res *types.Response) ([]types.Reply, error) {
	if res == nil {
		return nil, nil
	}
	var replies []types.Reply
	for _, effect := range res.Effects {
		switch e := effect.(type) {
		case types.TransferEffect:
			if err := h.ledger.transfer(ctx, e.AssetModule, h.self, e.Recipient, e.Amount); err != nil {
				return nil, errorsmod.Wrapf(err, "dispatch transfer to %s", e.Recipient)
			}
		case types.InstantiateEffect:
			replies = append(replies, h.instantiateModule(ctx, e))
		case types.MintEffect:
			replies = append(replies, h.mintToken(ctx, e))
		default:
			return nil, fmt.Errorf("unsupported effect %T", effect)
		}
	}
	return replies, nil
}

func (h *Host) instantiateModule(ctx sdk.Context, e types.InstantiateEffect) types.Reply {
	if len(h.failInstantiate) > 0 {
		reason := h.failInstantiate[0]
		h.failInstantiate = h.failInstantiate[1:]
		return types.Reply{ID: e.ContinuationID, Result: types.ReplyResult{Error: reason}}
	}

	h.instances++
	addr, err := h.deriveAddress("instance", strconv.FormatUint(h.instances, 10))
	if err == nil {
		err = h.ledger.Instances.Set(ctx, addr, e.CodeID)
	}
	if err != nil {
		return types.Reply{ID: e.ContinuationID, Result: types.ReplyResult{Error: err.Error()}}
	}
	return types.Reply{
		ID:     e.ContinuationID,
		Result: types.ReplyResult{Data: types.InstantiateResponse{Address: addr}.Marshal()},
	}
}

// mintToken runs the mint as a sub-call: a failure is reported through the
// reply and leaves the rest of the batch in place.
func (h *Host) mintToken(ctx sdk.Context, e types.MintEffect) types.Reply {
	fail := func(err error) types.Reply {
		return types.Reply{ID: e.ContinuationID, Result: types.ReplyResult{Error: err.Error()}}
	}
	if reason, ok := h.failMints[e.TokenID]; ok {
		delete(h.failMints, e.TokenID)
		return fail(errorsmod.Wrap(ErrMintRejected, reason))
	}

	subCtx, write := ctx.CacheContext()
	if err := h.ledger.issueToken(subCtx, e.TokenModule, e.TokenID, Token{Owner: e.Owner, Metadata: e.Metadata}); err != nil {
		return fail(err)
	}
	write()
	return types.Reply{ID: e.ContinuationID}
}

// DeliverReplies delivers every queued reply, each as its own call, in
// the order they were produced. Replies produced while delivering are
// delivered too.
func (h *Host) DeliverReplies() []ReplyOutcome {
	var out []ReplyOutcome
	for len(h.pending) > 0 {
		reply := h.pending[0]
		h.pending = h.pending[1:]
		out = append(out, h.deliver(reply))
	}
	return out
}

// DeliverReply delivers one reply as a top-level call, whether or not the
// host produced it.
func (h *Host) DeliverReply(reply types.Reply) ReplyOutcome {
	for i, queued := range h.pending {
		if queued.ID == reply.ID {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			break
		}
	}
	return h.deliver(reply)
}

func (h *Host) deliver(reply types.Reply) ReplyOutcome {
	res, replies, err := h.executeAtomic(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.HandleReply(ctx, reply)
	})
	outcome := ReplyOutcome{Reply: reply, Response: res}
	if err != nil {
		outcome.Err = err.Error()
		h.ctx.Logger().Error("reply rejected", "continuation_id", reply.ID, "err", err)
		return outcome
	}
	if ferr := res.Err(); ferr != nil {
		outcome.Err = ferr.Error()
	}
	h.pending = append(h.pending, replies...)
	return outcome
}

// Instantiate creates the bounty module config.
func (h *Host) Instantiate(msg types.MsgInstantiate) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.Instantiate(ctx, msg)
	})
}

// RetryTokenModuleSetup retries a failed token module instantiation.
func (h *Host) RetryTokenModuleSetup(msg types.MsgRetryTokenModuleSetup) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.RetryTokenModuleSetup(ctx, msg)
	})
}

// UpdateConfig changes the module config.
func (h *Host) UpdateConfig(msg types.MsgUpdateConfig) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.UpdateConfig(ctx, msg)
	})
}

// Subscribe enrolls a protected entity.
func (h *Host) Subscribe(msg types.MsgSubscribe) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.Subscribe(ctx, msg)
	})
}

// UpdateSubscription changes subscription terms.
func (h *Host) UpdateSubscription(msg types.MsgUpdateSubscription) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.UpdateSubscription(ctx, msg)
	})
}

// Unsubscribe removes a subscription.
func (h *Host) Unsubscribe(msg types.MsgUnsubscribe) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.Unsubscribe(ctx, msg)
	})
}

// Withdraw pays out accumulated protocol fees.
func (h *Host) Withdraw(msg types.MsgWithdraw) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		return h.keeper.Withdraw(ctx, msg)
	})
}

// Send moves amount of asset from sender to the bounty module and invokes its
// receive hook with payload, as a fungible asset module does. If the hook
// fails the transfer is undone.
func (h *Host) Send(asset, sender string, amount sdkmath.Int, payload []byte) (*Outcome, error) {
	return h.execute(func(ctx sdk.Context) (*types.Response, error) {
		if err := h.ledger.transfer(ctx, asset, sender, h.self, amount); err != nil {
			return nil, err
		}
		return h.keeper.Receive(ctx, types.MsgReceive{
			AssetModule: asset,
			Sender:      sender,
			Amount:      amount,
			Msg:         payload,
		})
	})
}
