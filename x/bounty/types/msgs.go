package types

import (
	"encoding/json"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// MsgInstantiate creates the module config and starts the token module setup.
type MsgInstantiate struct {
	Sender         string            `json:"sender"`
	ProtocolFeeBps uint32            `json:"protocol_fee_bps"`
	Token          TokenModuleParams `json:"token"`
}

func (m MsgInstantiate) ValidateBasic() error {
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if err := ValidateBps("protocol fee", m.ProtocolFeeBps); err != nil {
		return err
	}
	return m.Token.Validate()
}

// MsgRetryTokenModuleSetup starts a new setup attempt after a failed one.
type MsgRetryTokenModuleSetup struct {
	Sender string `json:"sender"`
}

// MsgUpdateConfig changes the owner and/or protocol fee.
type MsgUpdateConfig struct {
	Sender            string  `json:"sender"`
	NewOwner          *string `json:"new_owner,omitempty"`
	NewProtocolFeeBps *uint32 `json:"new_protocol_fee_bps,omitempty"`
}

func (m MsgUpdateConfig) ValidateBasic() error {
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if m.NewOwner == nil && m.NewProtocolFeeBps == nil {
		return ErrNothingToUpdate
	}
	if m.NewProtocolFeeBps != nil {
		return ValidateBps("protocol fee", *m.NewProtocolFeeBps)
	}
	return nil
}

// MsgSubscribe enrolls a protected entity. ProtectedEntity defaults to Sender
// and Beneficiary to the protected entity.
type MsgSubscribe struct {
	Sender          string       `json:"sender"`
	ProtectedEntity string       `json:"protected_entity,omitempty"`
	Beneficiary     string       `json:"beneficiary,omitempty"`
	CommissionBps   uint32       `json:"commission_bps"`
	MinBounty       *sdkmath.Int `json:"min_bounty,omitempty"`
}

func (m MsgSubscribe) ValidateBasic() error {
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if err := ValidateBps("commission", m.CommissionBps); err != nil {
		return err
	}
	return ValidateMinBounty(m.MinBounty)
}

// MsgUpdateSubscription changes the terms of an existing subscription.
type MsgUpdateSubscription struct {
	Sender           string       `json:"sender"`
	ProtectedEntity  string       `json:"protected_entity,omitempty"`
	NewCommissionBps *uint32      `json:"new_commission_bps,omitempty"`
	NewMinBounty     *sdkmath.Int `json:"new_min_bounty,omitempty"`
	NewBeneficiary   *string      `json:"new_beneficiary,omitempty"`
}

func (m MsgUpdateSubscription) ValidateBasic() error {
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if m.NewCommissionBps == nil && m.NewMinBounty == nil && m.NewBeneficiary == nil {
		return ErrNothingToUpdate
	}
	if m.NewBeneficiary != nil && strings.TrimSpace(*m.NewBeneficiary) == "" {
		return errorsmod.Wrap(ErrValidation, "new beneficiary cannot be empty")
	}
	if m.NewCommissionBps != nil {
		if err := ValidateBps("commission", *m.NewCommissionBps); err != nil {
			return err
		}
	}
	return ValidateMinBounty(m.NewMinBounty)
}

// MsgUnsubscribe removes a subscription. Removing an absent one is a no-op.
type MsgUnsubscribe struct {
	Sender          string `json:"sender"`
	ProtectedEntity string `json:"protected_entity,omitempty"`
}

// MsgReceive is the receive hook called by a fungible asset module after it
// moved Amount from Sender to this module.
type MsgReceive struct {
	// AssetModule is the calling asset module.
	AssetModule string          `json:"asset_module"`
	Sender      string          `json:"sender"`
	Amount      sdkmath.Int     `json:"amount"`
	Msg         json.RawMessage `json:"msg"`
}

func (m MsgReceive) ValidateBasic() error {
	if strings.TrimSpace(m.AssetModule) == "" {
		return errorsmod.Wrap(ErrValidation, "asset module cannot be empty")
	}
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if m.Amount.IsNil() || !m.Amount.IsPositive() {
		return errorsmod.Wrap(ErrValidation, "deposit amount must be positive")
	}
	return nil
}

// ReceivePayload is the opaque hook payload.
type ReceivePayload struct {
	Deposit *DepositPayload `json:"deposit,omitempty"`
}

// DepositPayload names the protected entity the recovered funds belong to.
type DepositPayload struct {
	ProtectedEntity string `json:"protected_entity"`
}

// NewDepositPayload encodes a deposit hook payload.
func NewDepositPayload(protectedEntity string) json.RawMessage {
	bz, _ := json.Marshal(ReceivePayload{Deposit: &DepositPayload{ProtectedEntity: protectedEntity}})
	return bz
}

// ParseReceivePayload decodes a hook payload and requires a deposit.
func ParseReceivePayload(raw json.RawMessage) (DepositPayload, error) {
	if len(raw) == 0 {
		return DepositPayload{}, errorsmod.Wrap(ErrInvalidPayload, "empty payload")
	}
	var payload ReceivePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return DepositPayload{}, errorsmod.Wrap(ErrInvalidPayload, err.Error())
	}
	if payload.Deposit == nil {
		return DepositPayload{}, errorsmod.Wrap(ErrInvalidPayload, "unsupported hook message")
	}
	if strings.TrimSpace(payload.Deposit.ProtectedEntity) == "" {
		return DepositPayload{}, errorsmod.Wrap(ErrInvalidPayload, "protected entity is required")
	}
	return *payload.Deposit, nil
}

// MsgWithdraw moves accumulated protocol fees out of the module.
type MsgWithdraw struct {
	Sender      string       `json:"sender"`
	AssetModule string       `json:"asset_module"`
	Amount      *sdkmath.Int `json:"amount,omitempty"`
	Recipient   string       `json:"recipient,omitempty"`
}

func (m MsgWithdraw) ValidateBasic() error {
	if strings.TrimSpace(m.Sender) == "" {
		return errorsmod.Wrap(ErrValidation, "sender cannot be empty")
	}
	if strings.TrimSpace(m.AssetModule) == "" {
		return errorsmod.Wrap(ErrValidation, "asset module cannot be empty")
	}
	if m.Amount != nil && (m.Amount.IsNil() || m.Amount.IsNegative()) {
		return errorsmod.Wrap(ErrValidation, "withdraw amount must be non-negative")
	}
	return nil
}
