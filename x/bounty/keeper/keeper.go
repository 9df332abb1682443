package keeper

import (
	"context"
	"strings"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/address"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// Keeper owns the bounty module state: config, subscriptions, the settlement
// ledger, pending continuations and the protocol fee accumulator.
type Keeper struct {
	storeService    store.KVStoreService
	addressCodec    address.Codec
	logger          log.Logger
	selfAddress     string
	subscribePolicy types.SubscribePolicy

	Schema               collections.Schema
	Config               collections.Item[types.Config]
	Subscriptions        collections.Map[string, types.Subscription]
	Hacks                collections.Map[uint64, types.HackRecord]
	HacksByReporter      collections.KeySet[collections.Triple[string, int64, uint64]]
	HackSeq              collections.Sequence
	PendingContinuations collections.Map[uint64, types.PendingContinuation]
	ContinuationSeq      collections.Sequence
	Setup                collections.Item[types.SetupState]
	FeeBalances          collections.Map[string, sdkmath.Int]
}

// NewKeeper creates a new bounty keeper. selfAddress is the module's own
// account; it holds deposits and mints provenance tokens.
func NewKeeper(
	storeService store.KVStoreService,
	addressCodec address.Codec,
	logger log.Logger,
	selfAddress string,
	policy types.SubscribePolicy,
) Keeper {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService:    storeService,
		addressCodec:    addressCodec,
		logger:          logger.With(log.ModuleKey, "x/"+types.ModuleName),
		selfAddress:     selfAddress,
		subscribePolicy: policy,
		Config: collections.NewItem(
			sb,
			collections.NewPrefix(types.ConfigKey),
			"config",
			types.JSONValue[types.Config](),
		),
		Subscriptions: collections.NewMap(
			sb,
			collections.NewPrefix(types.SubscriptionKeyPrefix),
			"subscriptions",
			collections.StringKey,
			types.JSONValue[types.Subscription](),
		),
		Hacks: collections.NewMap(
			sb,
			collections.NewPrefix(types.HackKeyPrefix),
			"hacks",
			collections.Uint64Key,
			types.JSONValue[types.HackRecord](),
		),
		HacksByReporter: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.HackByReporterKeyPrefix),
			"hacks_by_reporter",
			collections.TripleKeyCodec(collections.StringKey, collections.Int64Key, collections.Uint64Key),
		),
		HackSeq: collections.NewSequence(
			sb,
			collections.NewPrefix(types.HackSeqKey),
			"hack_seq",
		),
		PendingContinuations: collections.NewMap(
			sb,
			collections.NewPrefix(types.PendingContinuationKeyPrefix),
			"pending_continuations",
			collections.Uint64Key,
			types.JSONValue[types.PendingContinuation](),
		),
		ContinuationSeq: collections.NewSequence(
			sb,
			collections.NewPrefix(types.ContinuationSeqKey),
			"continuation_seq",
		),
		Setup: collections.NewItem(
			sb,
			collections.NewPrefix(types.SetupStateKey),
			"setup_state",
			types.JSONValue[types.SetupState](),
		),
		FeeBalances: collections.NewMap(
			sb,
			collections.NewPrefix(types.FeeBalanceKeyPrefix),
			"fee_balances",
			collections.StringKey,
			sdk.IntValue,
		),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema

	return k
}

// SelfAddress returns the module account address.
func (k Keeper) SelfAddress() string {
	return k.selfAddress
}

// SubscribePolicy returns the configured subscribe authorization policy.
func (k Keeper) SubscribePolicy() types.SubscribePolicy {
	return k.subscribePolicy
}

// Logger returns a module-scoped logger, preferring the block context logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	if sdkCtx, ok := unwrapSDKContext(ctx); ok && sdkCtx.Logger() != nil {
		return sdkCtx.Logger().With(log.ModuleKey, "x/"+types.ModuleName)
	}
	return k.logger
}

func (k Keeper) validateAddress(field, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errorsmod.Wrapf(types.ErrInvalidAddress, "%s cannot be empty", field)
	}
	if _, err := k.addressCodec.StringToBytes(addr); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidAddress, "%s %q: %s", field, addr, err)
	}
	return nil
}

// nextID draws a 1-based id from seq.
func nextID(ctx context.Context, seq collections.Sequence) (uint64, error) {
	n, err := seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

func unwrapSDKContext(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

func contextNow(ctx context.Context) (sdk.Context, time.Time) {
	if sdkCtx, ok := unwrapSDKContext(ctx); ok {
		return sdkCtx, sdkCtx.BlockTime()
	}
	return sdk.Context{}, time.Now().UTC()
}

func emitEventIfPossible(ctx sdk.Context, event sdk.Event) {
	if em := ctx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}
