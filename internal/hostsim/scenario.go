package hostsim

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// Scenario ops.
const (
	OpInstantiate         = "instantiate"
	OpRetrySetup          = "retry_setup"
	OpUpdateConfig        = "update_config"
	OpSubscribe           = "subscribe"
	OpUpdateSubscription  = "update_subscription"
	OpUnsubscribe         = "unsubscribe"
	OpDeposit             = "deposit"
	OpWithdraw            = "withdraw"
	OpAdvance             = "advance"
	OpFailNextInstantiate = "fail_next_instantiate"
	OpFailMint            = "fail_mint"
)

// Scenario is a scripted sequence of calls against a fresh host. Accounts are
// referenced by name and mapped to deterministic addresses.
type Scenario struct {
	SubscribePolicy types.SubscribePolicy `json:"subscribe_policy,omitempty"`
	Funds           []Funding             `json:"funds,omitempty"`
	Steps           []Step                `json:"steps"`
}

// Funding credits an account before the first step.
type Funding struct {
	Account string      `json:"account"`
	Asset   string      `json:"asset"`
	Amount  sdkmath.Int `json:"amount"`
}

// Step is one scenario call. Which fields apply depends on Op.
type Step struct {
	Op            string                   `json:"op"`
	Actor         string                   `json:"actor,omitempty"`
	Entity        string                   `json:"entity,omitempty"`
	FeeBps        *uint32                  `json:"fee_bps,omitempty"`
	CommissionBps *uint32                  `json:"commission_bps,omitempty"`
	MinBounty     *sdkmath.Int             `json:"min_bounty,omitempty"`
	NewOwner      string                   `json:"new_owner,omitempty"`
	Beneficiary   string                   `json:"beneficiary,omitempty"`
	Asset         string                   `json:"asset,omitempty"`
	Amount        *sdkmath.Int             `json:"amount,omitempty"`
	Recipient     string                   `json:"recipient,omitempty"`
	Seconds       int64                    `json:"seconds,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	TokenID       string                   `json:"token_id,omitempty"`
	Token         *types.TokenModuleParams `json:"token,omitempty"`
	// ExpectError, when set, must be a substring of the step's error.
	ExpectError string `json:"expect_error,omitempty"`
}

// StepReport records what one step did.
type StepReport struct {
	Index   int      `json:"index"`
	Op      string   `json:"op"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// State is a snapshot of the module and host after a scenario.
type State struct {
	Config        *types.Config                `json:"config,omitempty"`
	Setup         types.SetupState             `json:"setup"`
	Subscriptions []types.Subscription         `json:"subscriptions"`
	Hacks         []types.HackRecord           `json:"hacks"`
	FeeBalances   []types.FeeBalance           `json:"fee_balances"`
	Balances      map[string]map[string]string `json:"balances"`
	Tokens        map[string]Token             `json:"tokens"`
}

// Report is the full result of a scenario run.
type Report struct {
	Accounts map[string]string `json:"accounts"`
	Steps    []StepReport      `json:"steps"`
	Final    State             `json:"final"`
}

// DecodeScenario reads a JSON scenario and rejects unknown fields.
func DecodeScenario(r io.Reader) (Scenario, error) {
	var sc Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no steps")
	}
	return sc, nil
}

// DefaultTokenParams describe the provenance token module used when an
// instantiate step names none.
func DefaultTokenParams() types.TokenModuleParams {
	return types.TokenModuleParams{
		CodeID: 1,
		Name:   "Bounty Provenance",
		Symbol: "BNTY",
		Label:  "bounty-provenance",
	}
}

type runner struct {
	h        *Host
	accounts map[string]string
	assets   map[string]struct{}
}

// Run executes sc against h. A step that fails without expecting to, or
// that expected an error it did not get, stops the run with an error; the
// partial report is still returned.
func Run(h *Host, sc Scenario) (*Report, error) {
	r := &runner{
		h:        h,
		accounts: make(map[string]string),
		assets:   make(map[string]struct{}),
	}
	r.accounts["module"] = h.ModuleAddress()

	report := &Report{Accounts: r.accounts}
	for _, f := range sc.Funds {
		if err := h.Fund(f.Asset, r.addr(f.Account), f.Amount); err != nil {
			return report, fmt.Errorf("fund %s: %w", f.Account, err)
		}
		r.assets[f.Asset] = struct{}{}
	}

	var runErr error
	for i, step := range sc.Steps {
		out, err := r.step(step)
		sr := StepReport{Index: i, Op: step.Op, Outcome: out}
		if err != nil {
			sr.Error = err.Error()
		}
		report.Steps = append(report.Steps, sr)

		switch {
		case err != nil && step.ExpectError == "":
			runErr = fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		case err == nil && step.ExpectError != "":
			runErr = fmt.Errorf("step %d (%s): expected error %q", i, step.Op, step.ExpectError)
		case err != nil && !strings.Contains(err.Error(), step.ExpectError):
			runErr = fmt.Errorf("step %d (%s): error %q does not contain %q", i, step.Op, err, step.ExpectError)
		}
		if runErr != nil {
			break
		}
	}

	final, err := r.snapshot()
	if err != nil {
		return report, err
	}
	report.Final = final
	return report, runErr
}

func (r *runner) addr(name string) string {
	if name == "" {
		return ""
	}
	if addr, ok := r.accounts[name]; ok {
		return addr
	}
	addr := r.h.Address(name)
	r.accounts[name] = addr
	return addr
}

func (r *runner) step(s Step) (*Outcome, error) {
	switch s.Op {
	case OpInstantiate:
		token := DefaultTokenParams()
		if s.Token != nil {
			token = *s.Token
		}
		var fee uint32
		if s.FeeBps != nil {
			fee = *s.FeeBps
		}
		return r.h.Instantiate(types.MsgInstantiate{Sender: r.addr(s.Actor), ProtocolFeeBps: fee, Token: token})
	case OpRetrySetup:
		return r.h.RetryTokenModuleSetup(types.MsgRetryTokenModuleSetup{Sender: r.addr(s.Actor)})
	case OpUpdateConfig:
		msg := types.MsgUpdateConfig{Sender: r.addr(s.Actor), NewProtocolFeeBps: s.FeeBps}
		if s.NewOwner != "" {
			owner := r.addr(s.NewOwner)
			msg.NewOwner = &owner
		}
		return r.h.UpdateConfig(msg)
	case OpSubscribe:
		var commission uint32
		if s.CommissionBps != nil {
			commission = *s.CommissionBps
		}
		return r.h.Subscribe(types.MsgSubscribe{
			Sender:          r.addr(s.Actor),
			ProtectedEntity: r.addr(s.Entity),
			Beneficiary:     r.addr(s.Beneficiary),
			CommissionBps:   commission,
			MinBounty:       s.MinBounty,
		})
	case OpUpdateSubscription:
		msg := types.MsgUpdateSubscription{
			Sender:           r.addr(s.Actor),
			ProtectedEntity:  r.addr(s.Entity),
			NewCommissionBps: s.CommissionBps,
			NewMinBounty:     s.MinBounty,
		}
		if s.Beneficiary != "" {
			beneficiary := r.addr(s.Beneficiary)
			msg.NewBeneficiary = &beneficiary
		}
		return r.h.UpdateSubscription(msg)
	case OpUnsubscribe:
		return r.h.Unsubscribe(types.MsgUnsubscribe{Sender: r.addr(s.Actor), ProtectedEntity: r.addr(s.Entity)})
	case OpDeposit:
		if s.Amount == nil {
			return nil, fmt.Errorf("deposit needs an amount")
		}
		r.assets[s.Asset] = struct{}{}
		return r.h.Send(s.Asset, r.addr(s.Actor), *s.Amount, types.NewDepositPayload(r.addr(s.Entity)))
	case OpWithdraw:
		r.assets[s.Asset] = struct{}{}
		return r.h.Withdraw(types.MsgWithdraw{
			Sender:      r.addr(s.Actor),
			AssetModule: s.Asset,
			Amount:      s.Amount,
			Recipient:   r.addr(s.Recipient),
		})
	case OpAdvance:
		r.h.AdvanceTime(time.Duration(s.Seconds) * time.Second)
		return nil, nil
	case OpFailNextInstantiate:
		r.h.FailNextInstantiate(s.Reason)
		return nil, nil
	case OpFailMint:
		r.h.FailMint(s.TokenID, s.Reason)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown op %q", s.Op)
	}
}

func (r *runner) snapshot() (State, error) {
	ctx := r.h.Context()
	k := r.h.Keeper()

	var st State
	if cfg, err := k.GetConfig(ctx); err == nil {
		st.Config = &cfg
	}

	var err error
	if st.Setup, err = k.GetSetupState(ctx); err != nil {
		return State{}, err
	}
	if st.Subscriptions, err = k.ListSubscriptions(ctx); err != nil {
		return State{}, err
	}
	if err := k.IterateHacks(ctx, nil, func(rec types.HackRecord) (bool, error) {
		st.Hacks = append(st.Hacks, rec)
		return false, nil
	}); err != nil {
		return State{}, err
	}
	if st.FeeBalances, err = k.ListFeeBalances(ctx); err != nil {
		return State{}, err
	}

	st.Balances = make(map[string]map[string]string)
	for name, addr := range r.accounts {
		for asset := range r.assets {
			bal, err := r.h.Balance(asset, addr)
			if err != nil {
				return State{}, err
			}
			if bal.IsZero() {
				continue
			}
			if st.Balances[name] == nil {
				st.Balances[name] = make(map[string]string)
			}
			st.Balances[name][asset] = bal.String()
		}
	}

	st.Tokens = make(map[string]Token)
	if st.Config != nil && st.Config.HasTokenModule() {
		for _, rec := range st.Hacks {
			tok, ok, err := r.h.Token(st.Config.TokenModule, rec.TokenID)
			if err != nil {
				return State{}, err
			}
			if ok {
				st.Tokens[rec.TokenID] = tok
			}
		}
	}
	return st, nil
}
