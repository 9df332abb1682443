// Package hostsim runs the bounty keeper inside a simulated host. Every
// top-level call executes on a branched store and is written back only when
// the call and all of its effects succeed. Sub-call replies are delivered
// afterwards as separate top-level calls.
package hostsim

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/address"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/whitehat-labs/sombrero/x/bounty/keeper"
	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

const (
	DefaultBech32Prefix = "whitehat"
	DefaultChainID      = "bountysim-1"
	hostStoreKey        = "hostsim"
)

// DefaultGenesisTime is the block time of a fresh host.
var DefaultGenesisTime = time.Unix(1_770_000_000, 0).UTC()

// Config configures a Host.
type Config struct {
	Bech32Prefix    string
	ChainID         string
	GenesisTime     time.Time
	SubscribePolicy types.SubscribePolicy
	Logger          log.Logger
	// ManualReplies queues replies instead of delivering them after each call.
	ManualReplies bool
}

func (c Config) withDefaults() Config {
	if c.Bech32Prefix == "" {
		c.Bech32Prefix = DefaultBech32Prefix
	}
	if c.ChainID == "" {
		c.ChainID = DefaultChainID
	}
	if c.GenesisTime.IsZero() {
		c.GenesisTime = DefaultGenesisTime
	}
	if c.SubscribePolicy == "" {
		c.SubscribePolicy = types.SubscribePolicySelf
	}
	if c.Logger == nil {
		c.Logger = log.NewNopLogger()
	}
	return c
}

// ReplyOutcome is the result of delivering one reply.
type ReplyOutcome struct {
	Reply    types.Reply     `json:"reply"`
	Response *types.Response `json:"response,omitempty"`
	Err      string          `json:"error,omitempty"`
}

// Outcome is the result of one top-level call and of the replies delivered
// after it.
type Outcome struct {
	Response *types.Response `json:"response,omitempty"`
	Replies  []ReplyOutcome  `json:"replies,omitempty"`
}

// Host is a single-threaded simulated execution environment.
type Host struct {
	cfg    Config
	ctx    sdk.Context
	codec  address.Codec
	keeper keeper.Keeper
	ledger hostLedger
	self   string

	instances       uint64
	pending         []types.Reply
	failInstantiate []string
	failMints       map[string]string
}

// New builds a host over an in-memory multistore.
func New(cfg Config) (*Host, error) {
	cfg = cfg.withDefaults()

	bountyKey := storetypes.NewKVStoreKey(types.StoreKey)
	hostKey := storetypes.NewKVStoreKey(hostStoreKey)

	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, cfg.Logger, storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(bountyKey, storetypes.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(hostKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load multistore: %w", err)
	}

	header := tmproto.Header{
		ChainID: cfg.ChainID,
		Height:  1,
		Time:    cfg.GenesisTime,
	}

	h := &Host{
		cfg:       cfg,
		ctx:       sdk.NewContext(cms, header, false, cfg.Logger),
		codec:     addresscodec.NewBech32Codec(cfg.Bech32Prefix),
		failMints: make(map[string]string),
	}

	self, err := h.deriveAddress("module", types.ModuleName)
	if err != nil {
		return nil, err
	}
	h.self = self

	ledger, err := newHostLedger(runtime.NewKVStoreService(hostKey))
	if err != nil {
		return nil, fmt.Errorf("build host ledger: %w", err)
	}
	h.ledger = ledger
	h.keeper = keeper.NewKeeper(
		runtime.NewKVStoreService(bountyKey),
		h.codec,
		cfg.Logger,
		self,
		cfg.SubscribePolicy,
	)
	return h, nil
}

// Keeper returns the bounty keeper for queries.
func (h *Host) Keeper() keeper.Keeper { return h.keeper }

// Context returns the committed context.
func (h *Host) Context() sdk.Context { return h.ctx }

// ModuleAddress returns the bounty module account.
func (h *Host) ModuleAddress() string { return h.self }

// Address returns the deterministic account address for name.
func (h *Host) Address(name string) string {
	addr, err := h.deriveAddress("account", name)
	if err != nil {
		panic(err)
	}
	return addr
}

func (h *Host) deriveAddress(kind, name string) (string, error) {
	sum := sha256.Sum256([]byte(kind + "/" + name))
	return h.codec.BytesToString(sum[:20])
}

// AdvanceTime moves to the next block, d later.
func (h *Host) AdvanceTime(d time.Duration) {
	h.ctx = h.ctx.
		WithBlockHeight(h.ctx.BlockHeight() + 1).
		WithBlockTime(h.ctx.BlockTime().Add(d))
}

// FailNextInstantiate makes the next module instantiation reply with reason.
func (h *Host) FailNextInstantiate(reason string) {
	h.failInstantiate = append(h.failInstantiate, reason)
}

// FailMint makes minting tokenID reply with reason.
func (h *Host) FailMint(tokenID, reason string) {
	h.failMints[tokenID] = reason
}

// Fund credits amount of asset to addr outside of any call.
func (h *Host) Fund(asset, addr string, amount sdkmath.Int) error {
	return h.ledger.mint(h.ctx, asset, addr, amount)
}

// Balance returns addr's balance of asset.
func (h *Host) Balance(asset, addr string) (sdkmath.Int, error) {
	return h.ledger.balance(h.ctx, asset, addr)
}

// Token returns a token issued by module, if any.
func (h *Host) Token(module, tokenID string) (Token, bool, error) {
	tok, err := h.ledger.Tokens.Get(h.ctx, collections.Join(module, tokenID))
	if errors.Is(err, collections.ErrNotFound) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	return tok, true, nil
}

// PendingReplies returns replies waiting for delivery.
func (h *Host) PendingReplies() []types.Reply {
	return append([]types.Reply(nil), h.pending...)
}
