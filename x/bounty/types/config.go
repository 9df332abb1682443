package types

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
)

// Config is the singleton module configuration.
type Config struct {
	Owner          string `json:"owner"`
	ProtocolFeeBps uint32 `json:"protocol_fee_bps"`
	// TokenModule is empty until the instantiation continuation resolves.
	TokenModule string `json:"token_module,omitempty"`
}

// Validate checks the config bounds. Out of range fees are rejected, never clamped.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return errorsmod.Wrap(ErrValidation, "owner cannot be empty")
	}
	return ValidateBps("protocol fee", c.ProtocolFeeBps)
}

// HasTokenModule reports whether the provenance token module has been linked.
func (c Config) HasTokenModule() bool {
	return c.TokenModule != ""
}

// ValidateBps rejects rates above MaxBps.
func ValidateBps(field string, bps uint32) error {
	if bps > MaxBps {
		return errorsmod.Wrapf(ErrValidation, "%s must be at most %d bps, got %d", field, MaxBps, bps)
	}
	return nil
}
