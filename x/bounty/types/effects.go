package types

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Effect is a request the module hands to the host. The host dispatches all
// effects of one response together or none of them.
type Effect interface {
	EffectType() string
}

const (
	EffectTypeTransfer    = "transfer"
	EffectTypeMint        = "mint"
	EffectTypeInstantiate = "instantiate"
)

// TransferEffect moves Amount of the asset held by the module to Recipient.
type TransferEffect struct {
	AssetModule string      `json:"asset_module"`
	Recipient   string      `json:"recipient"`
	Amount      sdkmath.Int `json:"amount"`
}

func (TransferEffect) EffectType() string { return EffectTypeTransfer }

// MintEffect asks the token module to mint a provenance token. The reply is
// delivered under ContinuationID.
type MintEffect struct {
	TokenModule    string   `json:"token_module"`
	ContinuationID uint64   `json:"continuation_id"`
	TokenID        string   `json:"token_id"`
	Owner          string   `json:"owner"`
	Metadata       Metadata `json:"metadata"`
}

func (MintEffect) EffectType() string { return EffectTypeMint }

// TokenInstantiateMsg is the init message of the provenance token module.
type TokenInstantiateMsg struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Minter string `json:"minter"`
}

// InstantiateEffect asks the host to create the token module. The reply is
// delivered under ContinuationID.
type InstantiateEffect struct {
	ContinuationID uint64              `json:"continuation_id"`
	CodeID         uint64              `json:"code_id"`
	Label          string              `json:"label"`
	Admin          string              `json:"admin,omitempty"`
	Msg            TokenInstantiateMsg `json:"msg"`
}

func (InstantiateEffect) EffectType() string { return EffectTypeInstantiate }

// ContinuationFailure describes a continuation that ended without success,
// either because the sub-call replied with an error or because its reply
// could not be parsed.
type ContinuationFailure struct {
	ID     uint64           `json:"id"`
	Kind   ContinuationKind `json:"kind"`
	Reason string           `json:"reason"`

	cause error
}

// NewContinuationFailure records cause as the failure of continuation id.
func NewContinuationFailure(id uint64, kind ContinuationKind, cause error) *ContinuationFailure {
	return &ContinuationFailure{ID: id, Kind: kind, Reason: cause.Error(), cause: cause}
}

// Response is the outcome of one top-level operation.
type Response struct {
	Action  string   `json:"action"`
	Effects []Effect `json:"-"`
	// Hack is set by deposits.
	Hack *HackRecord `json:"hack,omitempty"`
	// Failure is set when a reply reported an error. State changes made while
	// handling the failure are kept.
	Failure *ContinuationFailure `json:"failure,omitempty"`
}

// NewResponse starts an empty response for action.
func NewResponse(action string) *Response {
	return &Response{Action: action}
}

// AddEffects appends effects in dispatch order.
func (r *Response) AddEffects(effects ...Effect) *Response {
	r.Effects = append(r.Effects, effects...)
	return r
}

// Err surfaces a reported continuation failure as an error carrying its id.
func (r *Response) Err() error {
	if r == nil || r.Failure == nil {
		return nil
	}
	cause := r.Failure.cause
	if cause == nil {
		cause = errorsmod.Wrap(ErrContinuationFailed, r.Failure.Reason)
	}
	return NewContinuationError(r.Failure.ID, r.Failure.Kind, cause)
}

// Transfers returns the transfer effects in order.
func (r *Response) Transfers() []TransferEffect {
	var out []TransferEffect
	for _, e := range r.Effects {
		if t, ok := e.(TransferEffect); ok {
			out = append(out, t)
		}
	}
	return out
}

// Mints returns the mint effects in order.
func (r *Response) Mints() []MintEffect {
	var out []MintEffect
	for _, e := range r.Effects {
		if m, ok := e.(MintEffect); ok {
			out = append(out, m)
		}
	}
	return out
}

// Instantiations returns the instantiate effects in order.
func (r *Response) Instantiations() []InstantiateEffect {
	var out []InstantiateEffect
	for _, e := range r.Effects {
		if i, ok := e.(InstantiateEffect); ok {
			out = append(out, i)
		}
	}
	return out
}

type effectEnvelope struct {
	Type   string `json:"type"`
	Effect Effect `json:"effect"`
}

// MarshalJSON renders effects with their type tag.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	envelopes := make([]effectEnvelope, 0, len(r.Effects))
	for _, e := range r.Effects {
		envelopes = append(envelopes, effectEnvelope{Type: e.EffectType(), Effect: e})
	}
	return json.Marshal(struct {
		plain
		Effects []effectEnvelope `json:"effects"`
	}{plain: plain(r), Effects: envelopes})
}
