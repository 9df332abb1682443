package keeper_test

import (
	"testing"
	"time"

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
	"github.com/stretchr/testify/require"

	"github.com/whitehat-labs/sombrero/x/bounty/keeper"
	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

const (
	testBech32Prefix = "whitehat"
	testAssetModule  = "asset-usdx"
)

var testBlockTime = time.Unix(1_770_000_000, 0).UTC()

type fixture struct {
	k     keeper.Keeper
	ctx   sdk.Context
	codec address.Codec

	self        string
	owner       string
	protocol    string
	reporter    string
	beneficiary string
	stranger    string
	tokenModule string
}

func setupKeeper(t *testing.T) *fixture {
	return setupKeeperWithPolicy(t, types.SubscribePolicySelf)
}

func setupKeeperWithPolicy(t *testing.T, policy types.SubscribePolicy) *fixture {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "whitehat-test-1",
		Height:  1,
		Time:    testBlockTime,
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	cdc := addresscodec.NewBech32Codec(testBech32Prefix)
	f := &fixture{ctx: ctx, codec: cdc}
	f.self = testAddress(t, cdc, "bounty-module")
	f.owner = testAddress(t, cdc, "owner")
	f.protocol = testAddress(t, cdc, "protocol")
	f.reporter = testAddress(t, cdc, "reporter")
	f.beneficiary = testAddress(t, cdc, "beneficiary")
	f.stranger = testAddress(t, cdc, "stranger")
	f.tokenModule = testAddress(t, cdc, "provenance-nft")

	f.k = keeper.NewKeeper(
		runtime.NewKVStoreService(storeKey),
		cdc,
		log.NewNopLogger(),
		f.self,
		policy,
	)
	return f
}

func testAddress(t *testing.T, cdc address.Codec, name string) string {
	t.Helper()
	bz := make([]byte, 20)
	copy(bz, name)
	addr, err := cdc.BytesToString(bz)
	require.NoError(t, err)
	return addr
}

func testTokenParams() types.TokenModuleParams {
	return types.TokenModuleParams{
		CodeID: 7,
		Name:   "Sombrero Provenance",
		Symbol: "SMB",
		Label:  "sombrero-provenance",
	}
}

// instantiate creates the config with feeBps and returns the setup continuation id.
func (f *fixture) instantiate(t *testing.T, feeBps uint32) uint64 {
	t.Helper()
	res, err := f.k.Instantiate(f.ctx, types.MsgInstantiate{
		Sender:         f.owner,
		ProtocolFeeBps: feeBps,
		Token:          testTokenParams(),
	})
	require.NoError(t, err)
	inst := res.Instantiations()
	require.Len(t, inst, 1)
	return inst[0].ContinuationID
}

// linkTokenModule acknowledges the setup continuation with a valid reply.
func (f *fixture) linkTokenModule(t *testing.T, id uint64) {
	t.Helper()
	res, err := f.k.HandleReply(f.ctx, types.Reply{
		ID:     id,
		Result: types.ReplyResult{Data: types.InstantiateResponse{Address: f.tokenModule}.Marshal()},
	})
	require.NoError(t, err)
	require.NoError(t, res.Err())
}

// ready instantiates, links the token module and subscribes the beneficiary.
func (f *fixture) ready(t *testing.T, feeBps, commissionBps uint32) {
	t.Helper()
	f.linkTokenModule(t, f.instantiate(t, feeBps))
	_, err := f.k.Subscribe(f.ctx, types.MsgSubscribe{
		Sender:        f.beneficiary,
		CommissionBps: commissionBps,
	})
	require.NoError(t, err)
}

func intPtr(v int64) *sdkmath.Int {
	i := sdkmath.NewInt(v)
	return &i
}

func u32Ptr(v uint32) *uint32 {
	return &v
}

func strPtr(v string) *string {
	return &v
}
