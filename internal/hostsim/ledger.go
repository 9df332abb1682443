package hostsim

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

const codespace = "hostsim"

var (
	ErrInsufficientFunds = errorsmod.Register(codespace, 2, "insufficient funds")
	ErrUnknownModule     = errorsmod.Register(codespace, 3, "unknown module")
	ErrTokenExists       = errorsmod.Register(codespace, 4, "token already minted")
	ErrMintRejected      = errorsmod.Register(codespace, 5, "mint rejected")
)

var (
	balanceKeyPrefix  = []byte{0x01}
	instanceKeyPrefix = []byte{0x02}
	tokenKeyPrefix    = []byte{0x03}
)

// Token is a provenance token held by a token-issuing module.
type Token struct {
	Owner    string         `json:"owner"`
	Metadata types.Metadata `json:"metadata"`
}

// hostLedger is the host side state: fungible balances per asset module,
// instantiated modules, and tokens they issued. It lives in the same
// multistore as the bounty module so a discarded call discards both.
type hostLedger struct {
	Balances  collections.Map[collections.Pair[string, string], sdkmath.Int]
	Instances collections.Map[string, uint64]
	Tokens    collections.Map[collections.Pair[string, string], Token]
}

func newHostLedger(storeService store.KVStoreService) (hostLedger, error) {
	sb := collections.NewSchemaBuilder(storeService)
	l := hostLedger{
		Balances: collections.NewMap(
			sb,
			collections.NewPrefix(balanceKeyPrefix),
			"balances",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
			sdk.IntValue,
		),
		Instances: collections.NewMap(
			sb,
			collections.NewPrefix(instanceKeyPrefix),
			"instances",
			collections.StringKey,
			collections.Uint64Value,
		),
		Tokens: collections.NewMap(
			sb,
			collections.NewPrefix(tokenKeyPrefix),
			"tokens",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
			types.JSONValue[Token](),
		),
	}
	if _, err := sb.Build(); err != nil {
		return hostLedger{}, err
	}
	return l, nil
}

func (l hostLedger) balance(ctx context.Context, asset, addr string) (sdkmath.Int, error) {
	bal, err := l.Balances.Get(ctx, collections.Join(asset, addr))
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return bal, err
}

func (l hostLedger) mint(ctx context.Context, asset, addr string, amount sdkmath.Int) error {
	bal, err := l.balance(ctx, asset, addr)
	if err != nil {
		return err
	}
	return l.Balances.Set(ctx, collections.Join(asset, addr), bal.Add(amount))
}

func (l hostLedger) transfer(ctx context.Context, asset, from, to string, amount sdkmath.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := l.balance(ctx, asset, from)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return errorsmod.Wrapf(ErrInsufficientFunds, "%s has %s %s, needs %s", from, bal, asset, amount)
	}
	if err := l.Balances.Set(ctx, collections.Join(asset, from), bal.Sub(amount)); err != nil {
		return err
	}
	return l.mint(ctx, asset, to, amount)
}

func (l hostLedger) issueToken(ctx context.Context, module, tokenID string, token Token) error {
	known, err := l.Instances.Has(ctx, module)
	if err != nil {
		return err
	}
	if !known {
		return errorsmod.Wrapf(ErrUnknownModule, "%s", module)
	}
	key := collections.Join(module, tokenID)
	exists, err := l.Tokens.Has(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(ErrTokenExists, "%s/%s", module, tokenID)
	}
	return l.Tokens.Set(ctx, key, token)
}
