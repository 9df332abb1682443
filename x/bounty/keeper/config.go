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

// LoadConfig returns the module config. A missing config means Instantiate
// never ran.
func (k Keeper) LoadConfig(ctx context.Context) (types.Config, error) {
	cfg, err := k.Config.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Config{}, types.ErrConfigNotInitialized
	}
	if err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// SaveConfig validates and stores cfg.
func (k Keeper) SaveConfig(ctx context.Context, cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return k.Config.Set(ctx, cfg)
}

// UpdateConfig changes the owner and/or protocol fee. Only the current owner
// may call it, and the resolved config must differ from the stored one.
func (k Keeper) UpdateConfig(ctx context.Context, msg types.MsgUpdateConfig) (*types.Response, error) {
	cfg, err := k.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Sender != cfg.Owner {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the owner may update the config")
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	next := cfg
	if msg.NewOwner != nil {
		if err := k.validateAddress("new owner", *msg.NewOwner); err != nil {
			return nil, err
		}
		next.Owner = *msg.NewOwner
	}
	if msg.NewProtocolFeeBps != nil {
		next.ProtocolFeeBps = *msg.NewProtocolFeeBps
	}
	if next == cfg {
		return nil, errorsmod.Wrap(types.ErrNothingToUpdate, "config already has these values")
	}

	if err := k.SaveConfig(ctx, next); err != nil {
		return nil, err
	}

	sdkCtx, _ := contextNow(ctx)
	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		types.EventTypeConfigUpdated,
		sdk.NewAttribute("owner", next.Owner),
		sdk.NewAttribute("protocol_fee_bps", fmt.Sprintf("%d", next.ProtocolFeeBps)),
	))
	k.Logger(ctx).Info("bounty config updated",
		"owner", next.Owner,
		"protocol_fee_bps", next.ProtocolFeeBps,
	)

	return types.NewResponse("update_config"), nil
}

// linkTokenModule binds the provenance token module. The address moves from
// unset to set exactly once.
func (k Keeper) linkTokenModule(ctx context.Context, addr string) error {
	cfg, err := k.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.HasTokenModule() {
		return errorsmod.Wrapf(types.ErrTokenModuleAlreadyLinked, "linked to %s", cfg.TokenModule)
	}
	cfg.TokenModule = addr
	return k.SaveConfig(ctx, cfg)
}
