package types

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// SubscribePolicy decides who may register a protected entity.
type SubscribePolicy string

const (
	// SubscribePolicySelf lets any account register itself, and only itself.
	SubscribePolicySelf SubscribePolicy = "self"

	// SubscribePolicyCurated lets only the config owner register entities,
	// acting for an auditor or DAO that vets protected contracts.
	SubscribePolicyCurated SubscribePolicy = "curated"
)

// Validate rejects unknown policies.
func (p SubscribePolicy) Validate() error {
	switch p {
	case SubscribePolicySelf, SubscribePolicyCurated:
		return nil
	default:
		return errorsmod.Wrapf(ErrValidation, "unknown subscribe policy %q", string(p))
	}
}

// Subscription holds the commission terms of one protected entity.
type Subscription struct {
	ProtectedEntity string `json:"protected_entity"`
	// Owner controls the subscription. It never changes after creation.
	Owner string `json:"owner"`
	// Beneficiary receives the settlement remainder. Empty means Owner.
	Beneficiary   string       `json:"beneficiary,omitempty"`
	CommissionBps uint32       `json:"commission_bps"`
	MinBounty     *sdkmath.Int `json:"min_bounty,omitempty"`
	CreatedAtUnix int64        `json:"created_at_unix"`
}

// RemainderRecipient returns the account paid the settlement remainder.
func (s Subscription) RemainderRecipient() string {
	if s.Beneficiary != "" {
		return s.Beneficiary
	}
	return s.Owner
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.ProtectedEntity) == "" {
		return errorsmod.Wrap(ErrValidation, "protected entity cannot be empty")
	}
	if strings.TrimSpace(s.Owner) == "" {
		return errorsmod.Wrap(ErrValidation, "subscription owner cannot be empty")
	}
	if err := ValidateBps("commission", s.CommissionBps); err != nil {
		return err
	}
	return ValidateMinBounty(s.MinBounty)
}

// ValidateMinBounty accepts an absent floor or a non-negative one.
func ValidateMinBounty(minBounty *sdkmath.Int) error {
	if minBounty == nil {
		return nil
	}
	if minBounty.IsNil() || minBounty.IsNegative() {
		return errorsmod.Wrap(ErrValidation, "minimum bounty must be non-negative")
	}
	return nil
}

// EqualOptionalInt compares two optional amounts.
func EqualOptionalInt(a, b *sdkmath.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
