package types_test

import (
	"errors"
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

func intPtr(v int64) *sdkmath.Int {
	i := sdkmath.NewInt(v)
	return &i
}

// =============================================================================
// SPLIT: arithmetic
// =============================================================================

func TestComputeSplit_Table(t *testing.T) {
	cases := []struct {
		name          string
		amount        int64
		commissionBps uint32
		feeBps        uint32
		minBounty     *sdkmath.Int
		bounty        int64
		fee           int64
		remainder     int64
	}{
		{name: "commission and fee", amount: 1_000_000, commissionBps: 2000, feeBps: 1000, bounty: 200_000, fee: 100_000, remainder: 700_000},
		{name: "commission only", amount: 500_000, commissionBps: 2000, bounty: 100_000, remainder: 400_000},
		{name: "ten percent fee", amount: 900_000, commissionBps: 2000, feeBps: 1000, bounty: 180_000, fee: 90_000, remainder: 630_000},
		{name: "floors round down", amount: 9_999, commissionBps: 1, feeBps: 1, remainder: 9_999},
		{name: "full commission", amount: 77, commissionBps: 10_000, bounty: 77},
		{name: "full fee", amount: 77, feeBps: 10_000, fee: 77},
		{name: "floor raises bounty", amount: 1_000, commissionBps: 100, feeBps: 1000, minBounty: intPtr(50), bounty: 50, fee: 100, remainder: 850},
		{name: "floor capped by amount minus fee", amount: 40, commissionBps: 100, feeBps: 1000, minBounty: intPtr(50), bounty: 36, fee: 4},
		{name: "floor below computed bounty", amount: 1_000, commissionBps: 5000, minBounty: intPtr(10), bounty: 500, remainder: 500},
		{name: "zero amount", amount: 0, commissionBps: 5000, feeBps: 5000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount := sdkmath.NewInt(tc.amount)
			split, err := types.ComputeSplit(amount, tc.commissionBps, tc.feeBps, tc.minBounty)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if split.Bounty.Int64() != tc.bounty || split.Fee.Int64() != tc.fee || split.Remainder.Int64() != tc.remainder {
				t.Fatalf("got bounty=%s fee=%s remainder=%s, want %d/%d/%d",
					split.Bounty, split.Fee, split.Remainder, tc.bounty, tc.fee, tc.remainder)
			}
			if !split.Total().Equal(amount) {
				t.Fatalf("split total %s != amount %s", split.Total(), amount)
			}
		})
	}
}

func TestComputeSplit_Underflow(t *testing.T) {
	_, err := types.ComputeSplit(sdkmath.NewInt(1_000), 6000, 5000, nil)
	if !errors.Is(err, types.ErrArithmeticUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestComputeSplit_Overflow(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	_, err := types.ComputeSplit(sdkmath.NewIntFromBigInt(maxUint256), 2, 0, nil)
	if !errors.Is(err, types.ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestComputeSplit_RejectsOutOfRangeInput(t *testing.T) {
	if _, err := types.ComputeSplit(sdkmath.NewInt(1), 10_001, 0, nil); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for commission, got %v", err)
	}
	if _, err := types.ComputeSplit(sdkmath.NewInt(1), 0, 10_001, nil); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for fee, got %v", err)
	}
	if _, err := types.ComputeSplit(sdkmath.NewInt(-1), 0, 0, nil); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
	if _, err := types.ComputeSplit(sdkmath.NewInt(1), 0, 0, intPtr(-5)); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for negative floor, got %v", err)
	}
}

func TestComputeSplit_SumsExactly(t *testing.T) {
	amounts := []int64{1, 7, 99, 10_000, 123_457, 1_000_000_007}
	rates := []uint32{0, 1, 333, 2500, 9999, 10_000}

	for _, a := range amounts {
		amount := sdkmath.NewInt(a)
		for _, commission := range rates {
			for _, fee := range rates {
				split, err := types.ComputeSplit(amount, commission, fee, nil)
				if uint64(commission)+uint64(fee) > types.BpsDenominator {
					// May legitimately underflow once the rates exceed the whole.
					if err != nil && !errors.Is(err, types.ErrArithmeticUnderflow) {
						t.Fatalf("amount=%d commission=%d fee=%d: unexpected error %v", a, commission, fee, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("amount=%d commission=%d fee=%d: %v", a, commission, fee, err)
				}
				if !split.Total().Equal(amount) {
					t.Fatalf("amount=%d commission=%d fee=%d: total %s", a, commission, fee, split.Total())
				}
			}
		}
	}
}
