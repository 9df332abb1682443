package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// x/bounty module errors. Code 1 is reserved by the SDK.
var (
	ErrUnauthorized             = errorsmod.Register(ModuleName, 2, "unauthorized")
	ErrValidation               = errorsmod.Register(ModuleName, 3, "validation failed")
	ErrNothingToUpdate          = errorsmod.Register(ModuleName, 4, "nothing to update")
	ErrNotSubscribed            = errorsmod.Register(ModuleName, 5, "protected entity is not subscribed")
	ErrArithmeticOverflow       = errorsmod.Register(ModuleName, 6, "arithmetic overflow")
	ErrArithmeticUnderflow      = errorsmod.Register(ModuleName, 7, "arithmetic underflow")
	ErrUnknownContinuationID    = errorsmod.Register(ModuleName, 8, "unknown continuation id")
	ErrContinuationParse        = errorsmod.Register(ModuleName, 9, "cannot parse continuation reply")
	ErrNothingToWithdraw        = errorsmod.Register(ModuleName, 10, "nothing to withdraw")
	ErrConfigNotInitialized     = errorsmod.Register(ModuleName, 11, "config is not initialized")
	ErrAlreadyInitialized       = errorsmod.Register(ModuleName, 12, "config is already initialized")
	ErrAlreadySubscribed        = errorsmod.Register(ModuleName, 13, "protected entity is already subscribed")
	ErrTokenModuleNotLinked     = errorsmod.Register(ModuleName, 14, "token module is not linked")
	ErrTokenModuleAlreadyLinked = errorsmod.Register(ModuleName, 15, "token module is already linked")
	ErrInvalidPayload           = errorsmod.Register(ModuleName, 16, "invalid receive payload")
	ErrInsufficientFees         = errorsmod.Register(ModuleName, 17, "insufficient accumulated fees")
	ErrContinuationFailed       = errorsmod.Register(ModuleName, 18, "continuation reported failure")
	ErrInvalidAddress           = errorsmod.Register(ModuleName, 19, "invalid address")
	ErrSetupNotRetryable        = errorsmod.Register(ModuleName, 20, "token module setup is not in a failed state")
)

// ContinuationError is returned from reply handling. It carries the id of the
// continuation that broke so callers can tell which pending sub-call failed.
type ContinuationError struct {
	ID   uint64
	Kind ContinuationKind
	Err  error
}

// NewContinuationError wraps err with the continuation id and kind.
func NewContinuationError(id uint64, kind ContinuationKind, err error) *ContinuationError {
	return &ContinuationError{ID: id, Kind: kind, Err: err}
}

func (e *ContinuationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("continuation %d: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("continuation %d (%s): %v", e.ID, e.Kind, e.Err)
}

func (e *ContinuationError) Unwrap() error {
	return e.Err
}
