package types

const (
	// ModuleName is the bounty settlement module namespace.
	ModuleName = "bounty"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// ConfigKey stores the singleton module configuration.
	ConfigKey = []byte{0x01}

	// SubscriptionKeyPrefix stores subscriptions keyed by protected entity.
	SubscriptionKeyPrefix = []byte{0x02}

	// HackKeyPrefix stores settlement records keyed by sequence number.
	HackKeyPrefix = []byte{0x03}

	// HackByReporterKeyPrefix indexes settlement records by reporter and time.
	HackByReporterKeyPrefix = []byte{0x04}

	// HackSeqKey stores the next settlement sequence number.
	HackSeqKey = []byte{0x05}

	// PendingContinuationKeyPrefix stores outstanding sub-call continuations.
	PendingContinuationKeyPrefix = []byte{0x06}

	// ContinuationSeqKey stores the next continuation id.
	ContinuationSeqKey = []byte{0x07}

	// SetupStateKey stores the token module setup attempt.
	SetupStateKey = []byte{0x08}

	// FeeBalanceKeyPrefix stores accumulated protocol fees per asset module.
	FeeBalanceKeyPrefix = []byte{0x09}
)

const (
	// BpsDenominator is the fixed-point scale shared by commission and fee rates.
	BpsDenominator = 10_000

	// MaxBps is the largest valid basis-point rate.
	MaxBps = BpsDenominator
)

// Event types emitted by the module.
const (
	EventTypeInstantiate        = "bounty_instantiate"
	EventTypeTokenModuleLinked  = "bounty_token_module_linked"
	EventTypeContinuationFailed = "bounty_continuation_failed"
	EventTypeConfigUpdated      = "bounty_config_updated"
	EventTypeSubscribed         = "bounty_subscribed"
	EventTypeSubscriptionUpdate = "bounty_subscription_updated"
	EventTypeUnsubscribed       = "bounty_unsubscribed"
	EventTypeDeposit            = "bounty_deposit"
	EventTypeWithdraw           = "bounty_withdraw"
)
