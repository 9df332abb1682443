package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Split is the three-way division of a recovered deposit.
type Split struct {
	Bounty    sdkmath.Int `json:"bounty"`
	Fee       sdkmath.Int `json:"fee"`
	Remainder sdkmath.Int `json:"remainder"`
}

// Total returns bounty + fee + remainder.
func (s Split) Total() sdkmath.Int {
	return s.Bounty.Add(s.Fee).Add(s.Remainder)
}

// ComputeSplit divides amount using one basis-point scale for both rates:
//
//	bounty    = floor(amount * commissionBps / 10000)
//	fee       = floor(amount * feeBps / 10000)
//	remainder = amount - bounty - fee
//
// A minimum bounty floor raises the bounty up to min(floor, amount-fee). All
// steps are checked; a negative remainder is an underflow.
func ComputeSplit(amount sdkmath.Int, commissionBps, feeBps uint32, minBounty *sdkmath.Int) (Split, error) {
	if amount.IsNil() || amount.IsNegative() {
		return Split{}, errorsmod.Wrap(ErrValidation, "amount must be non-negative")
	}
	if err := ValidateBps("commission", commissionBps); err != nil {
		return Split{}, err
	}
	if err := ValidateBps("protocol fee", feeBps); err != nil {
		return Split{}, err
	}
	if err := ValidateMinBounty(minBounty); err != nil {
		return Split{}, err
	}

	bounty, err := bpsShare(amount, commissionBps)
	if err != nil {
		return Split{}, err
	}
	fee, err := bpsShare(amount, feeBps)
	if err != nil {
		return Split{}, err
	}

	if minBounty != nil && bounty.LT(*minBounty) {
		ceiling, err := amount.SafeSub(fee)
		if err != nil {
			return Split{}, errorsmod.Wrap(ErrArithmeticOverflow, err.Error())
		}
		if floor := sdkmath.MinInt(*minBounty, ceiling); floor.GT(bounty) {
			bounty = floor
		}
	}

	remainder, err := amount.SafeSub(bounty)
	if err != nil {
		return Split{}, errorsmod.Wrap(ErrArithmeticOverflow, err.Error())
	}
	remainder, err = remainder.SafeSub(fee)
	if err != nil {
		return Split{}, errorsmod.Wrap(ErrArithmeticOverflow, err.Error())
	}
	if remainder.IsNegative() {
		return Split{}, errorsmod.Wrapf(
			ErrArithmeticUnderflow,
			"bounty %s plus fee %s exceeds amount %s", bounty, fee, amount,
		)
	}

	return Split{Bounty: bounty, Fee: fee, Remainder: remainder}, nil
}

func bpsShare(amount sdkmath.Int, bps uint32) (sdkmath.Int, error) {
	product, err := amount.SafeMul(sdkmath.NewIntFromUint64(uint64(bps)))
	if err != nil {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrArithmeticOverflow, "%s * %d bps", amount, bps)
	}
	share, err := product.SafeQuo(sdkmath.NewInt(BpsDenominator))
	if err != nil {
		return sdkmath.Int{}, errorsmod.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return share, nil
}
