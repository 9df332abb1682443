package keeper

import (
	"context"
	"errors"
	"math"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// appendHack assigns the next sequence id to rec and stores it together with
// its reporter index entry. Two deposits in the same block by the same
// reporter get distinct ids and never overwrite each other.
func (k Keeper) appendHack(ctx context.Context, rec types.HackRecord) (types.HackRecord, error) {
	id, err := nextID(ctx, k.HackSeq)
	if err != nil {
		return types.HackRecord{}, err
	}
	rec.ID = id
	rec.TokenID = strconv.FormatUint(id, 10)
	if err := rec.Validate(); err != nil {
		return types.HackRecord{}, err
	}
	if err := k.storeHack(ctx, rec); err != nil {
		return types.HackRecord{}, err
	}
	return rec, nil
}

func (k Keeper) storeHack(ctx context.Context, rec types.HackRecord) error {
	if err := k.Hacks.Set(ctx, rec.ID, rec); err != nil {
		return err
	}
	return k.HacksByReporter.Set(ctx, collections.Join3(rec.Reporter, rec.TimestampUnix, rec.ID))
}

// GetHack returns a ledger entry by id.
func (k Keeper) GetHack(ctx context.Context, id uint64) (types.HackRecord, error) {
	rec, err := k.Hacks.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return types.HackRecord{}, errorsmod.Wrapf(collections.ErrNotFound, "hack %d", id)
	}
	return rec, err
}

// IterateHacks walks the ledger in id order, starting after startAfter when
// it is set. fn returns true to stop.
func (k Keeper) IterateHacks(ctx context.Context, startAfter *uint64, fn func(types.HackRecord) (bool, error)) error {
	var rng collections.Ranger[uint64]
	if startAfter != nil {
		rng = new(collections.Range[uint64]).StartExclusive(*startAfter)
	}
	return k.Hacks.Walk(ctx, rng, func(_ uint64, rec types.HackRecord) (bool, error) {
		return fn(rec)
	})
}

// ListHacks returns one page of the ledger. NextKey is set when more entries
// follow the page.
func (k Keeper) ListHacks(ctx context.Context, req types.QueryHacksRequest) (types.QueryHacksResponse, error) {
	limit := req.EffectiveLimit()
	resp := types.QueryHacksResponse{Hacks: []types.HackRecord{}}
	err := k.IterateHacks(ctx, req.StartAfter, func(rec types.HackRecord) (bool, error) {
		if len(resp.Hacks) == limit {
			last := resp.Hacks[limit-1].ID
			resp.NextKey = &last
			return true, nil
		}
		resp.Hacks = append(resp.Hacks, rec)
		return false, nil
	})
	if err != nil {
		return types.QueryHacksResponse{}, err
	}
	return resp, nil
}

// ListHacksByReporter returns the reporter's entries with timestamps in
// [fromUnix, toUnix], oldest first.
func (k Keeper) ListHacksByReporter(ctx context.Context, reporter string, fromUnix, toUnix int64) ([]types.HackRecord, error) {
	if fromUnix > toUnix {
		return nil, errorsmod.Wrapf(types.ErrValidation, "empty time range [%d, %d]", fromUnix, toUnix)
	}
	rng := new(collections.Range[collections.Triple[string, int64, uint64]]).
		StartInclusive(collections.Join3(reporter, fromUnix, uint64(0))).
		EndInclusive(collections.Join3(reporter, toUnix, uint64(math.MaxUint64)))

	iter, err := k.HacksByReporter.Iterate(ctx, rng)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []types.HackRecord
	for ; iter.Valid(); iter.Next() {
		key, err := iter.Key()
		if err != nil {
			return nil, err
		}
		rec, err := k.Hacks.Get(ctx, key.K3())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
