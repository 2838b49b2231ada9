package hubtypes

import "context"

// ValidatorProxy is the external collaborator that answers "which
// validators are currently eligible". The hub never arbitrates
// eligibility itself (spec.md §1 Non-goals).
type ValidatorProxy interface {
	Whitelist(ctx context.Context) ([]string, error)
}

// StakingModule is the host chain's staking primitive. The hub only
// depends on its pre/post balance semantics, never its internals.
type StakingModule interface {
	Delegate(ctx context.Context, validator string, amount uint64) error
	Undelegate(ctx context.Context, validator string, amount uint64) error
	Redelegate(ctx context.Context, src, dst string, amount uint64) error
	WithdrawRewards(ctx context.Context, validator string) error
}

// BankModule is the host chain's balance/transfer primitive.
type BankModule interface {
	Balance(ctx context.Context, denom string) (uint64, error)
	Send(ctx context.Context, to string, denom string, amount uint64) error
}

// TokenFactory mints and burns the hub's share denomination.
type TokenFactory interface {
	CreateDenom(ctx context.Context, subdenom string) (string, error)
	Mint(ctx context.Context, denom string, amount uint64, to string) error
	Burn(ctx context.Context, denom string, amount uint64) error
}

// GaugeLoader is the external source of a desired per-validator share
// vector, consumed by the Gauges strategy and by TuneDelegations. Values
// are basis points; the hub accepts a vector only if its validators are
// whitelisted and its shares sum to exactly 10000.
type GaugeLoader interface {
	Load(ctx context.Context) (map[string]uint64, error)
}

// Coin is a denom/amount pair, matching the host chain's native coin
// type at the boundary of this module.
type Coin struct {
	Denom  string
	Amount uint64
}

// MsgKind tags the side-effecting call a Msg asks the host to dispatch
// after a transition commits its state writes (§5 of SPEC_FULL.md).
type MsgKind int

const (
	MsgDelegate MsgKind = iota
	MsgUndelegate
	MsgRedelegate
	MsgWithdrawRewards
	MsgMint
	MsgBurn
	MsgBankSend
	MsgCreateDenom
	MsgSelfCallback
)

// Msg is a single queued side-effecting call. The orchestrator never
// dispatches these itself; it returns them for the host to run after
// committing state, all-or-nothing (§5).
type Msg struct {
	Kind      MsgKind
	Validator string // MsgDelegate / MsgUndelegate / MsgWithdrawRewards
	Src, Dst  string // MsgRedelegate
	Denom     string // MsgMint / MsgBurn / MsgBankSend / MsgCreateDenom
	Amount    uint64
	To        string  // MsgMint / MsgBankSend
	Callback  Callback // MsgSelfCallback
}

// Callback names a self-invocation the hub enqueues to sequence phases
// around a fresh balance read (§5: "every callback re-reads its inputs").
type Callback int

const (
	CallbackHalfSwapReward Callback = iota
	CallbackProvideLiquidity
	CallbackCheckReceivedCoin
	CallbackReinvest
	CallbackSubmitBatch
)
