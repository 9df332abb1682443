package types_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

func validHack(id uint64) types.HackRecord {
	return types.HackRecord{
		ID:              id,
		ProtectedEntity: "entity",
		Reporter:        "reporter",
		TotalAmount:     sdkmath.NewInt(100),
		Bounty:          sdkmath.NewInt(20),
		ProtocolFee:     sdkmath.NewInt(10),
		Remainder:       sdkmath.NewInt(70),
	}
}

func TestGenesisValidate(t *testing.T) {
	cfg := &types.Config{Owner: "owner", ProtocolFeeBps: 1000}

	require.NoError(t, types.DefaultGenesis().Validate())
	require.NoError(t, types.GenesisState{Config: cfg, Hacks: []types.HackRecord{validHack(1), validHack(2)}}.Validate())

	cases := map[string]types.GenesisState{
		"hacks without config": {Hacks: []types.HackRecord{validHack(1)}},
		"bad config fee":       {Config: &types.Config{Owner: "owner", ProtocolFeeBps: 10_001}},
		"duplicate hack id":    {Config: cfg, Hacks: []types.HackRecord{validHack(1), validHack(1)}},
		"split mismatch": {Config: cfg, Hacks: []types.HackRecord{func() types.HackRecord {
			h := validHack(1)
			h.Remainder = sdkmath.NewInt(71)
			return h
		}()}},
		"duplicate subscription": {Subscriptions: []types.Subscription{
			{ProtectedEntity: "e", Owner: "e"},
			{ProtectedEntity: "e", Owner: "e"},
		}},
		"negative fee balance": {Config: cfg, FeeBalances: []types.FeeBalance{{AssetModule: "x", Amount: sdkmath.NewInt(-1)}}},
		"duplicate fee asset": {Config: cfg, FeeBalances: []types.FeeBalance{
			{AssetModule: "x", Amount: sdkmath.NewInt(1)},
			{AssetModule: "x", Amount: sdkmath.NewInt(2)},
		}},
	}
	for name, gs := range cases {
		require.Error(t, gs.Validate(), name)
	}
}

func TestProvenanceMetadataTraits(t *testing.T) {
	h := validHack(9)
	h.TimestampUnix = 1_770_000_000

	md := h.ProvenanceMetadata()
	require.Contains(t, md.Name, "#9")

	got := make([]string, 0, len(md.Attributes))
	for _, tr := range md.Attributes {
		got = append(got, tr.TraitType+"="+tr.Value)
	}
	require.Equal(t, []string{
		"timestamp=1770000000",
		"protected_entity=entity",
		"total_amount=100",
		"bounty=20",
		"recipient=reporter",
	}, got)
}
