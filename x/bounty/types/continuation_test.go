package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

func TestSetupStatusTransitions(t *testing.T) {
	allowed := map[[2]types.SetupStatus]bool{
		{types.SetupStatusInit, types.SetupStatusAwaitingReply}:     true,
		{types.SetupStatusAwaitingReply, types.SetupStatusResolved}: true,
		{types.SetupStatusAwaitingReply, types.SetupStatusFailed}:   true,
		{types.SetupStatusFailed, types.SetupStatusAwaitingReply}:   true,
	}
	all := []types.SetupStatus{
		types.SetupStatusInit,
		types.SetupStatusAwaitingReply,
		types.SetupStatusResolved,
		types.SetupStatusFailed,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]types.SetupStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestParseInstantiateResponse(t *testing.T) {
	res, err := types.ParseInstantiateResponse(types.InstantiateResponse{
		Address: "whitehat1token",
		Data:    []byte{0x01, 0x02},
	}.Marshal())
	require.NoError(t, err)
	require.Equal(t, "whitehat1token", res.Address)
	require.Equal(t, []byte{0x01, 0x02}, res.Data)
}

func TestParseInstantiateResponseSkipsUnknownFields(t *testing.T) {
	var bz []byte
	bz = protowire.AppendTag(bz, 5, protowire.VarintType)
	bz = protowire.AppendVarint(bz, 99)
	bz = append(bz, types.InstantiateResponse{Address: "whitehat1token"}.Marshal()...)
	bz = protowire.AppendTag(bz, 9, protowire.BytesType)
	bz = protowire.AppendString(bz, "ignored")

	res, err := types.ParseInstantiateResponse(bz)
	require.NoError(t, err)
	require.Equal(t, "whitehat1token", res.Address)
	require.Nil(t, res.Data)
}

func TestParseInstantiateResponseErrors(t *testing.T) {
	truncated := protowire.AppendTag(nil, 1, protowire.BytesType)
	truncated = protowire.AppendVarint(truncated, 10)
	truncated = append(truncated, 'a')

	for name, bz := range map[string][]byte{
		"empty":       nil,
		"bad tag":     {0xff},
		"truncated":   truncated,
		"no address":  protowire.AppendBytes(protowire.AppendTag(nil, 2, protowire.BytesType), []byte("x")),
		"blank value": types.InstantiateResponse{Address: "  "}.Marshal(),
	} {
		_, err := types.ParseInstantiateResponse(bz)
		require.Error(t, err, name)
	}
}

func TestContinuationErrorUnwraps(t *testing.T) {
	err := types.NewContinuationError(4, types.ContinuationMintProvenance, types.ErrContinuationParse)
	require.ErrorIs(t, err, types.ErrContinuationParse)
	require.Contains(t, err.Error(), "continuation 4 (mint_provenance)")

	var contErr *types.ContinuationError
	require.True(t, errors.As(error(err), &contErr))
	require.Equal(t, uint64(4), contErr.ID)
}

func TestResponseErr(t *testing.T) {
	var empty *types.Response
	require.NoError(t, empty.Err())
	require.NoError(t, types.NewResponse("deposit").Err())

	res := types.NewResponse("reply")
	res.Failure = types.NewContinuationFailure(3, types.ContinuationInstantiateTokenModule, types.ErrContinuationParse)
	require.ErrorIs(t, res.Err(), types.ErrContinuationParse)

	// A failure decoded from JSON has lost its cause and falls back to the
	// generic failure kind.
	res.Failure = &types.ContinuationFailure{ID: 3, Kind: types.ContinuationMintProvenance, Reason: "boom"}
	require.ErrorIs(t, res.Err(), types.ErrContinuationFailed)
}
