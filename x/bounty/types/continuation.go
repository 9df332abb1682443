package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ContinuationKind tags what a pending sub-call is waiting to finish.
type ContinuationKind string

const (
	ContinuationInstantiateTokenModule ContinuationKind = "instantiate_token_module"
	ContinuationMintProvenance         ContinuationKind = "mint_provenance"
)

// PendingContinuation correlates a continuation id with the operation waiting
// on its reply. It lives only until the reply arrives.
type PendingContinuation struct {
	ID            uint64           `json:"id"`
	Kind          ContinuationKind `json:"kind"`
	HackID        uint64           `json:"hack_id,omitempty"`
	CreatedAtUnix int64            `json:"created_at_unix"`
}

// SetupStatus is the state of one token module setup attempt.
type SetupStatus string

const (
	SetupStatusInit          SetupStatus = "init"
	SetupStatusAwaitingReply SetupStatus = "awaiting_reply"
	SetupStatusResolved      SetupStatus = "resolved"
	SetupStatusFailed        SetupStatus = "failed"
)

var setupTransitions = map[SetupStatus][]SetupStatus{
	SetupStatusInit:          {SetupStatusAwaitingReply},
	SetupStatusAwaitingReply: {SetupStatusResolved, SetupStatusFailed},
	// A failed attempt is terminal; only an explicit retry opens a new one.
	SetupStatusFailed: {SetupStatusAwaitingReply},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s SetupStatus) CanTransitionTo(next SetupStatus) bool {
	for _, allowed := range setupTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TokenModuleParams describe the provenance token module to instantiate.
type TokenModuleParams struct {
	CodeID uint64 `json:"code_id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Label  string `json:"label"`
	Admin  string `json:"admin,omitempty"`
}

func (p TokenModuleParams) Validate() error {
	if p.CodeID == 0 {
		return errorsmod.Wrap(ErrValidation, "token module code id must be set")
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Symbol) == "" {
		return errorsmod.Wrap(ErrValidation, "token module name and symbol are required")
	}
	if strings.TrimSpace(p.Label) == "" {
		return errorsmod.Wrap(ErrValidation, "token module label is required")
	}
	return nil
}

// SetupState tracks the latest token module setup attempt.
type SetupState struct {
	Status         SetupStatus       `json:"status"`
	ContinuationID uint64            `json:"continuation_id"`
	Params         TokenModuleParams `json:"params"`
	TokenModule    string            `json:"token_module,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	Attempts       uint32            `json:"attempts"`
	UpdatedAtUnix  int64             `json:"updated_at_unix"`
}

// Reply is the asynchronous result of a dispatched sub-call, keyed by the id
// the module chose when it enqueued the call.
type Reply struct {
	ID     uint64      `json:"id"`
	Result ReplyResult `json:"result"`
}

// ReplyResult holds either response data or an error string.
type ReplyResult struct {
	Data  []byte `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (r ReplyResult) IsOK() bool {
	return r.Error == ""
}

// InstantiateResponse is the protobuf message a host returns for a module
// instantiation: field 1 is the new address, field 2 optional data.
type InstantiateResponse struct {
	Address string
	Data    []byte
}

// Marshal encodes the response in protobuf wire format.
func (r InstantiateResponse) Marshal() []byte {
	var bz []byte
	bz = protowire.AppendTag(bz, 1, protowire.BytesType)
	bz = protowire.AppendString(bz, r.Address)
	if len(r.Data) > 0 {
		bz = protowire.AppendTag(bz, 2, protowire.BytesType)
		bz = protowire.AppendBytes(bz, r.Data)
	}
	return bz
}

// ParseInstantiateResponse decodes an instantiation reply payload. Unknown
// fields are skipped.
func ParseInstantiateResponse(bz []byte) (InstantiateResponse, error) {
	var res InstantiateResponse
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return InstantiateResponse{}, fmt.Errorf("read tag: %w", protowire.ParseError(n))
		}
		bz = bz[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(bz)
			if m < 0 {
				return InstantiateResponse{}, fmt.Errorf("read address: %w", protowire.ParseError(m))
			}
			res.Address = string(v)
			bz = bz[m:]
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(bz)
			if m < 0 {
				return InstantiateResponse{}, fmt.Errorf("read data: %w", protowire.ParseError(m))
			}
			res.Data = append([]byte(nil), v...)
			bz = bz[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, bz)
			if m < 0 {
				return InstantiateResponse{}, fmt.Errorf("skip field %d: %w", num, protowire.ParseError(m))
			}
			bz = bz[m:]
		}
	}
	if strings.TrimSpace(res.Address) == "" {
		return InstantiateResponse{}, fmt.Errorf("instantiate response has no address")
	}
	return res, nil
}
