// Package hubtypes holds the types shared across the stake hub's
// sub-packages: the sentinel error taxonomy, the external collaborator
// interfaces (§6 of SPEC_FULL.md) and the plain value types (Coin, Msg)
// that flow between them.
package hubtypes

import "errors"

// Authorization errors.
var (
	ErrNotOwner        = errors.New("sender is not the owner")
	ErrNotOperator     = errors.New("sender is not the owner or operator")
	ErrNotNewOwner     = errors.New("sender is not the proposed new owner")
	ErrForeignCallback = errors.New("callback invoked by a sender other than the hub itself")
)

// Validation errors.
var (
	ErrFundMismatch         = errors.New("received funds do not match the expected denom or count")
	ErrZeroPeriod           = errors.New("period must be greater than zero")
	ErrZeroAmount           = errors.New("amount must be greater than zero")
	ErrFeeTooHigh           = errors.New("protocol reward fee exceeds the hard cap")
	ErrStrategyMismatch     = errors.New("delegation strategy does not match the validator whitelist")
	ErrDuplicateValidator   = errors.New("duplicate validator in delegation strategy")
	ErrUnknownValidator     = errors.New("validator is not in the whitelist")
	ErrBpsSum               = errors.New("delegation strategy shares do not sum to 10000 bps")
	ErrSwapDenomForbidden   = errors.New("swap of utoken or stake denom is not allowed")
	ErrBeliefPriceForbidden = errors.New("belief price is not allowed")
	ErrDonationsDisabled    = errors.New("donations are disabled")
	ErrEmptyWhitelist       = errors.New("validator whitelist is empty")
)

// Ledger errors (spec.md §4.B).
var (
	ErrValidatorNotFound   = errors.New("validator not found in the delegation ledger")
	ErrInsufficientBalance = errors.New("validator delegation balance is insufficient")
)

// Invariant-guard errors.
var (
	ErrStateChanged  = errors.New("optimistic precondition no longer matches stored state")
	ErrSlashTooLarge = errors.New("reported delegation total drops more than the slashing sanity cap allows")
)

// Lifecycle errors.
var (
	ErrSubmitTooEarly      = errors.New("submit_batch called before the pending batch's unbond start time")
	ErrNoTokensToReinvest  = errors.New("no unlocked tokens available to reinvest")
	ErrNoReward            = errors.New("no reward balance to act on")
	ErrNoWithdrawable      = errors.New("no withdrawable amount for this user")
	ErrSubmitSplitMismatch = errors.New("operator-supplied undelegation split does not sum to the expected amount")
)

// ErrNotSupported is returned for harvest parameters this core never
// implements (the swap pipeline lives outside it, per SPEC_FULL.md §1).
var ErrNotSupported = errors.New("not supported by this core")
