package types

import (
	"fmt"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Provenance token trait names.
const (
	TraitTimestamp       = "timestamp"
	TraitProtectedEntity = "protected_entity"
	TraitTotalAmount     = "total_amount"
	TraitBounty          = "bounty"
	TraitRecipient       = "recipient"
)

// HackRecord is an immutable ledger entry for one settled deposit.
type HackRecord struct {
	ID              uint64      `json:"id"`
	TimestampUnix   int64       `json:"timestamp_unix"`
	ProtectedEntity string      `json:"protected_entity"`
	AssetModule     string      `json:"asset_module"`
	TotalAmount     sdkmath.Int `json:"total_amount"`
	Bounty          sdkmath.Int `json:"bounty"`
	ProtocolFee     sdkmath.Int `json:"protocol_fee"`
	Remainder       sdkmath.Int `json:"remainder"`
	Reporter        string      `json:"reporter"`
	Beneficiary     string      `json:"beneficiary"`
	TokenID         string      `json:"token_id"`
}

func (h HackRecord) Validate() error {
	if strings.TrimSpace(h.ProtectedEntity) == "" {
		return errorsmod.Wrap(ErrValidation, "hack protected entity cannot be empty")
	}
	if strings.TrimSpace(h.Reporter) == "" {
		return errorsmod.Wrap(ErrValidation, "hack reporter cannot be empty")
	}
	amounts := []struct {
		name  string
		value sdkmath.Int
	}{
		{"total amount", h.TotalAmount},
		{"bounty", h.Bounty},
		{"protocol fee", h.ProtocolFee},
		{"remainder", h.Remainder},
	}
	for _, a := range amounts {
		if a.value.IsNil() || a.value.IsNegative() {
			return errorsmod.Wrapf(ErrValidation, "hack %d %s must be non-negative", h.ID, a.name)
		}
	}
	if !h.Bounty.Add(h.ProtocolFee).Add(h.Remainder).Equal(h.TotalAmount) {
		return errorsmod.Wrapf(ErrValidation, "hack %d split does not sum to total", h.ID)
	}
	return nil
}

// Trait is a single provenance token attribute.
type Trait struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Metadata is the on-token description of a settlement event.
type Metadata struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Attributes  []Trait `json:"attributes"`
}

// ProvenanceMetadata snapshots the record into token metadata.
func (h HackRecord) ProvenanceMetadata() Metadata {
	return Metadata{
		Name:        fmt.Sprintf("Bounty settlement #%d", h.ID),
		Description: fmt.Sprintf("Recovery of %s from %s", h.TotalAmount, h.ProtectedEntity),
		Attributes: []Trait{
			{TraitType: TraitTimestamp, Value: strconv.FormatInt(h.TimestampUnix, 10)},
			{TraitType: TraitProtectedEntity, Value: h.ProtectedEntity},
			{TraitType: TraitTotalAmount, Value: h.TotalAmount.String()},
			{TraitType: TraitBounty, Value: h.Bounty.String()},
			{TraitType: TraitRecipient, Value: h.Reporter},
		},
	}
}

// FeeBalance is the protocol fee accumulated for one asset module.
type FeeBalance struct {
	AssetModule string      `json:"asset_module"`
	Amount      sdkmath.Int `json:"amount"`
}
