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

// Subscribe enrolls a protected entity with its commission terms.
func (k Keeper) Subscribe(ctx context.Context, msg types.MsgSubscribe) (*types.Response, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	entity := msg.ProtectedEntity
	if entity == "" {
		entity = msg.Sender
	}
	if err := k.validateAddress("protected entity", entity); err != nil {
		return nil, err
	}
	beneficiary := msg.Beneficiary
	if beneficiary == "" {
		beneficiary = entity
	}
	if err := k.validateAddress("beneficiary", beneficiary); err != nil {
		return nil, err
	}

	switch k.subscribePolicy {
	case types.SubscribePolicySelf:
		if entity != msg.Sender {
			return nil, errorsmod.Wrap(types.ErrUnauthorized, "an entity may only subscribe itself")
		}
	case types.SubscribePolicyCurated:
		cfg, err := k.LoadConfig(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Sender != cfg.Owner {
			return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the owner may register protected entities")
		}
	}

	exists, err := k.Subscriptions.Has(ctx, entity)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadySubscribed, "%s", entity)
	}

	sdkCtx, now := contextNow(ctx)
	sub := types.Subscription{
		ProtectedEntity: entity,
		Owner:           entity,
		Beneficiary:     beneficiary,
		CommissionBps:   msg.CommissionBps,
		MinBounty:       msg.MinBounty,
		CreatedAtUnix:   now.Unix(),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := k.Subscriptions.Set(ctx, entity, sub); err != nil {
		return nil, err
	}

	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeSubscribed,
		sdk.NewAttribute("protected_entity", entity),
		sdk.NewAttribute("beneficiary", beneficiary),
		sdk.NewAttribute("commission_bps", fmt.Sprintf("%d", sub.CommissionBps)),
	))
	k.Logger(ctx).Info("protected entity subscribed",
		"protected_entity", entity,
		"beneficiary", beneficiary,
		"commission_bps", sub.CommissionBps,
	)

	return types.NewResponse("subscribe"), nil
}

// UpdateSubscription changes the commission, minimum bounty or beneficiary
// of an existing subscription. Only the subscription owner may call it.
func (k Keeper) UpdateSubscription(ctx context.Context, msg types.MsgUpdateSubscription) (*types.Response, error) {
	entity := msg.ProtectedEntity
	if entity == "" {
		entity = msg.Sender
	}
	sub, err := k.GetSubscription(ctx, entity)
	if err != nil {
		return nil, err
	}
	if msg.Sender != sub.Owner {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the subscription owner may update it")
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	next := sub
	if msg.NewCommissionBps != nil {
		next.CommissionBps = *msg.NewCommissionBps
	}
	if msg.NewMinBounty != nil {
		floor := *msg.NewMinBounty
		next.MinBounty = &floor
	}
	if msg.NewBeneficiary != nil {
		if err := k.validateAddress("beneficiary", *msg.NewBeneficiary); err != nil {
			return nil, err
		}
		next.Beneficiary = *msg.NewBeneficiary
	}
	if next.CommissionBps == sub.CommissionBps &&
		types.EqualOptionalInt(next.MinBounty, sub.MinBounty) &&
		next.RemainderRecipient() == sub.RemainderRecipient() {
		return nil, errorsmod.Wrap(types.ErrNothingToUpdate, "subscription already has these terms")
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := k.Subscriptions.Set(ctx, entity, next); err != nil {
		return nil, err
	}

	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeSubscriptionUpdate,
		sdk.NewAttribute("protected_entity", entity),
		sdk.NewAttribute("beneficiary", next.RemainderRecipient()),
		sdk.NewAttribute("commission_bps", fmt.Sprintf("%d", next.CommissionBps)),
	))

	return types.NewResponse("update_subscription"), nil
}

// Unsubscribe removes a subscription. It is idempotent: removing an entity
// that is not subscribed succeeds without changes.
func (k Keeper) Unsubscribe(ctx context.Context, msg types.MsgUnsubscribe) (*types.Response, error) {
	entity := msg.ProtectedEntity
	if entity == "" {
		entity = msg.Sender
	}
	sub, err := k.Subscriptions.Get(ctx, entity)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewResponse("unsubscribe"), nil
	}
	if err != nil {
		return nil, err
	}
	if msg.Sender != sub.Owner {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the subscription owner may remove it")
	}
	if err := k.Subscriptions.Remove(ctx, entity); err != nil {
		return nil, err
	}

	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeUnsubscribed,
		sdk.NewAttribute("protected_entity", entity),
	))
	k.Logger(ctx).Info("protected entity unsubscribed", "protected_entity", entity)

	return types.NewResponse("unsubscribe"), nil
}

// GetSubscription returns the subscription of entity.
func (k Keeper) GetSubscription(ctx context.Context, entity string) (types.Subscription, error) {
	sub, err := k.Subscriptions.Get(ctx, entity)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Subscription{}, errorsmod.Wrapf(types.ErrNotSubscribed, "%s", entity)
	}
	return sub, err
}

// ListSubscriptions returns all subscriptions ordered by protected entity.
func (k Keeper) ListSubscriptions(ctx context.Context) ([]types.Subscription, error) {
	var out []types.Subscription
	err := k.Subscriptions.Walk(ctx, nil, func(_ string, sub types.Subscription) (bool, error) {
		out = append(out, sub)
		return false, nil
	})
	return out, err
}
