package keeper_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

func TestInstantiateStartsTokenModuleSetup(t *testing.T) {
	f := setupKeeper(t)

	res, err := f.k.Instantiate(f.ctx, types.MsgInstantiate{
		Sender:         f.owner,
		ProtocolFeeBps: 1000,
		Token:          testTokenParams(),
	})
	require.NoError(t, err)

	inst := res.Instantiations()
	require.Len(t, inst, 1)
	require.Equal(t, uint64(1), inst[0].ContinuationID)
	require.Equal(t, uint64(7), inst[0].CodeID)
	require.Equal(t, f.self, inst[0].Msg.Minter)
	require.Equal(t, "SMB", inst[0].Msg.Symbol)

	cfg, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.owner, cfg.Owner)
	require.Equal(t, uint32(1000), cfg.ProtocolFeeBps)
	require.False(t, cfg.HasTokenModule())

	state, err := f.k.GetSetupState(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.SetupStatusAwaitingReply, state.Status)
	require.Equal(t, uint64(1), state.ContinuationID)
	require.Equal(t, uint32(1), state.Attempts)

	pending, err := f.k.ListPendingContinuations(f.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.ContinuationInstantiateTokenModule, pending[0].Kind)
}

func TestInstantiateRejectsInvalidInput(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.k.Instantiate(f.ctx, types.MsgInstantiate{
		Sender:         f.owner,
		ProtocolFeeBps: 10_001,
		Token:          testTokenParams(),
	})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = f.k.Instantiate(f.ctx, types.MsgInstantiate{
		Sender: "not-an-address",
		Token:  testTokenParams(),
	})
	require.ErrorIs(t, err, types.ErrInvalidAddress)

	_, err = f.k.GetConfig(f.ctx)
	require.ErrorIs(t, err, types.ErrConfigNotInitialized)
}

func TestInstantiateTwiceFails(t *testing.T) {
	f := setupKeeper(t)
	f.instantiate(t, 0)

	_, err := f.k.Instantiate(f.ctx, types.MsgInstantiate{
		Sender: f.stranger,
		Token:  testTokenParams(),
	})
	require.ErrorIs(t, err, types.ErrAlreadyInitialized)

	cfg, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.owner, cfg.Owner)
}

func TestHandleReplyLinksTokenModule(t *testing.T) {
	f := setupKeeper(t)
	id := f.instantiate(t, 500)

	res, err := f.k.HandleReply(f.ctx, types.Reply{
		ID: id,
		Result: types.ReplyResult{
			Data: types.InstantiateResponse{Address: f.tokenModule, Data: []byte("ok")}.Marshal(),
		},
	})
	require.NoError(t, err)
	require.Nil(t, res.Failure)

	cfg, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.tokenModule, cfg.TokenModule)
	require.Equal(t, uint32(500), cfg.ProtocolFeeBps)

	state, err := f.k.GetSetupState(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.SetupStatusResolved, state.Status)
	require.Equal(t, f.tokenModule, state.TokenModule)

	pending, err := f.k.ListPendingContinuations(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	// The same reply delivered again is no longer pending.
	_, err = f.k.HandleReply(f.ctx, types.Reply{
		ID:     id,
		Result: types.ReplyResult{Data: types.InstantiateResponse{Address: f.stranger}.Marshal()},
	})
	require.ErrorIs(t, err, types.ErrUnknownContinuationID)

	cfg, err = f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.tokenModule, cfg.TokenModule)
}

func TestHandleReplyUnknownIDLeavesStateUnchanged(t *testing.T) {
	f := setupKeeper(t)
	f.instantiate(t, 250)

	before, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)

	_, err = f.k.HandleReply(f.ctx, types.Reply{
		ID:     99,
		Result: types.ReplyResult{Data: types.InstantiateResponse{Address: f.tokenModule}.Marshal()},
	})
	require.ErrorIs(t, err, types.ErrUnknownContinuationID)

	var contErr *types.ContinuationError
	require.True(t, errors.As(err, &contErr))
	require.Equal(t, uint64(99), contErr.ID)

	after, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	state, err := f.k.GetSetupState(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.SetupStatusAwaitingReply, state.Status)
}

func TestHandleReplyParseFailureMarksSetupFailed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{name: "truncated tag", data: []byte{0xff}},
		{name: "missing address", data: []byte{}},
		{name: "address not bech32", data: types.InstantiateResponse{Address: "provenance-nft"}.Marshal()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			id := f.instantiate(t, 0)

			res, err := f.k.HandleReply(f.ctx, types.Reply{ID: id, Result: types.ReplyResult{Data: tc.data}})
			require.NoError(t, err)
			require.NotNil(t, res.Failure)
			require.Equal(t, id, res.Failure.ID)
			require.ErrorIs(t, res.Err(), types.ErrContinuationParse)

			var contErr *types.ContinuationError
			require.True(t, errors.As(res.Err(), &contErr))
			require.Equal(t, id, contErr.ID)

			cfg, err := f.k.GetConfig(f.ctx)
			require.NoError(t, err)
			require.False(t, cfg.HasTokenModule())

			state, err := f.k.GetSetupState(f.ctx)
			require.NoError(t, err)
			require.Equal(t, types.SetupStatusFailed, state.Status)
			require.NotEmpty(t, state.FailureReason)

			pending, err := f.k.ListPendingContinuations(f.ctx)
			require.NoError(t, err)
			require.Empty(t, pending)
		})
	}
}

func TestHandleReplyErrorThenRetry(t *testing.T) {
	f := setupKeeper(t)
	id := f.instantiate(t, 0)

	_, err := f.k.RetryTokenModuleSetup(f.ctx, types.MsgRetryTokenModuleSetup{Sender: f.owner})
	require.ErrorIs(t, err, types.ErrSetupNotRetryable)

	res, err := f.k.HandleReply(f.ctx, types.Reply{ID: id, Result: types.ReplyResult{Error: "code id not found"}})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), types.ErrContinuationFailed)
	require.Contains(t, res.Failure.Reason, "code id not found")

	state, err := f.k.GetSetupState(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.SetupStatusFailed, state.Status)

	_, err = f.k.RetryTokenModuleSetup(f.ctx, types.MsgRetryTokenModuleSetup{Sender: f.stranger})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	retry, err := f.k.RetryTokenModuleSetup(f.ctx, types.MsgRetryTokenModuleSetup{Sender: f.owner})
	require.NoError(t, err)
	inst := retry.Instantiations()
	require.Len(t, inst, 1)
	require.Equal(t, id+1, inst[0].ContinuationID)
	require.Equal(t, testTokenParams().Label, inst[0].Label)

	state, err = f.k.GetSetupState(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.SetupStatusAwaitingReply, state.Status)
	require.Equal(t, uint32(2), state.Attempts)
	require.Empty(t, state.FailureReason)

	// A late reply for the abandoned attempt is rejected.
	_, err = f.k.HandleReply(f.ctx, types.Reply{
		ID:     id,
		Result: types.ReplyResult{Data: types.InstantiateResponse{Address: f.stranger}.Marshal()},
	})
	require.ErrorIs(t, err, types.ErrUnknownContinuationID)

	f.linkTokenModule(t, inst[0].ContinuationID)

	cfg, err := f.k.GetConfig(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.tokenModule, cfg.TokenModule)

	_, err = f.k.RetryTokenModuleSetup(f.ctx, types.MsgRetryTokenModuleSetup{Sender: f.owner})
	require.ErrorIs(t, err, types.ErrTokenModuleAlreadyLinked)
}

func TestMintReplyFailureKeepsSettlement(t *testing.T) {
	f := setupKeeper(t)
	f.ready(t, 1000, 2000)

	res, err := f.k.Receive(f.ctx, types.MsgReceive{
		AssetModule: testAssetModule,
		Sender:      f.reporter,
		Amount:      *intPtr(1_000_000),
		Msg:         types.NewDepositPayload(f.beneficiary),
	})
	require.NoError(t, err)
	mints := res.Mints()
	require.Len(t, mints, 1)

	reply, err := f.k.HandleReply(f.ctx, types.Reply{
		ID:     mints[0].ContinuationID,
		Result: types.ReplyResult{Error: "token id already claimed"},
	})
	require.NoError(t, err)
	require.ErrorIs(t, reply.Err(), types.ErrContinuationFailed)
	require.Equal(t, types.ContinuationMintProvenance, reply.Failure.Kind)

	hack, err := f.k.GetHack(f.ctx, res.Hack.ID)
	require.NoError(t, err)
	require.Equal(t, res.Hack.ID, hack.ID)
	require.True(t, hack.Bounty.Equal(res.Hack.Bounty))
	require.True(t, hack.Remainder.Equal(res.Hack.Remainder))

	bal, err := f.k.GetFeeBalance(f.ctx, testAssetModule)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), bal.Int64())

	pending, err := f.k.ListPendingContinuations(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestMintReplySuccessClearsPending(t *testing.T) {
	f := setupKeeper(t)
	f.ready(t, 0, 2000)

	res, err := f.k.Deposit(f.ctx, *intPtr(500), f.reporter, f.beneficiary, testAssetModule)
	require.NoError(t, err)

	pending, err := f.k.ListPendingContinuations(f.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, res.Hack.ID, pending[0].HackID)

	reply, err := f.k.HandleReply(f.ctx, types.Reply{ID: res.Mints()[0].ContinuationID})
	require.NoError(t, err)
	require.NoError(t, reply.Err())

	pending, err = f.k.ListPendingContinuations(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}
