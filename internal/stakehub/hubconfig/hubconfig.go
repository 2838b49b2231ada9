// Package hubconfig implements the hub's owner/operator/tunables
// config (spec.md §4.G): two-step ownership transfer and the
// fixed-order UpdateConfig apply. Grounded on
// original_source/execute.rs's transfer_ownership/accept_ownership/
// drop_ownership_proposal/update_config, translated to Go's idiomatic
// optional-pointer-field convention instead of Rust's stacked
// Option<T> parameters (spec.md §9 design note).
package hubconfig

import (
	"fmt"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/reward"
	"github.com/erisprotocol/alliancehub/internal/stakehub/strategy"
)

// RewardFeeCapBps is the hard ceiling on protocol_reward_fee (30%).
// original_source reads this from a constants module not present in
// the retrieved slice; 3000 bps is chosen as a conservative default
// and recorded as an open-question decision.
const RewardFeeCapBps = 3_000

// FeeConfig is the protocol's cut of harvested rewards.
type FeeConfig struct {
	ProtocolFeeContract  string
	ProtocolRewardFeeBps uint64
}

// Config is the hub's full tunable configuration (spec.md §3 Config).
type Config struct {
	Owner          string
	NewOwner       string // empty means no pending transfer
	Operator       string
	ValidatorProxy string
	FeeConfig      FeeConfig
	Strategy       strategy.Strategy
	EpochPeriod    int64
	UnbondPeriod   int64
	AllowDonations bool
	// DefaultMaxSpreadBps bounds slippage for the (out-of-scope) swap
	// sidecar; kept as typed config data per spec.md §1.
	DefaultMaxSpreadBps uint64
	// RewardDenoms lists the denoms the optional reward-pool sidecar
	// (component N) may hold and split, e.g. a second-layer farm token.
	RewardDenoms []string
	// RewardSchedule is the optional protocol-owned reward-pool's
	// diminishing-emission curve (spec.md §4.N expansion). The sidecar is
	// inert while RewardDenoms is empty. A zero value (RewardSchedule{})
	// gives a pool share of 0, so Reinvest sends the whole amount of each
	// listed reward denom to the protocol fee contract.
	RewardSchedule reward.Schedule
}

// AssertOwner returns ErrNotOwner if sender isn't the configured owner.
func (c Config) AssertOwner(sender string) error {
	if sender != c.Owner {
		return hubtypes.ErrNotOwner
	}
	return nil
}

// AssertOwnerOrOperator returns ErrNotOperator if sender is neither the
// owner nor the operator (spec.md §4.E CheckSlashing, §4.C SubmitBatch).
func (c Config) AssertOwnerOrOperator(sender string) error {
	if sender != c.Owner && sender != c.Operator {
		return hubtypes.ErrNotOperator
	}
	return nil
}

// TransferOwnership records a pending new-owner proposal. Requires the
// caller to be the current owner.
func TransferOwnership(c Config, sender, newOwner string) (Config, error) {
	if err := c.AssertOwner(sender); err != nil {
		return c, err
	}
	c.NewOwner = newOwner
	return c, nil
}

// DropOwnershipProposal clears any pending transfer. Requires the
// caller to be the current owner.
func DropOwnershipProposal(c Config, sender string) (Config, error) {
	if err := c.AssertOwner(sender); err != nil {
		return c, err
	}
	c.NewOwner = ""
	return c, nil
}

// AcceptOwnership commits a pending transfer. Requires the caller to
// equal the proposed new owner exactly (ErrNotNewOwner otherwise).
func AcceptOwnership(c Config, sender string) (Config, error) {
	if c.NewOwner == "" || sender != c.NewOwner {
		return c, hubtypes.ErrNotNewOwner
	}
	c.Owner = sender
	c.NewOwner = ""
	return c, nil
}

// Update is the explicit struct of optional fields UpdateConfig
// applies; a nil field leaves the corresponding Config field
// untouched. whitelist is the current validator set, needed to
// validate a new DelegationStrategy.
type Update struct {
	ProtocolFeeContract  *string
	ProtocolRewardFeeBps *uint64
	Operator             *string
	ValidatorProxy       *string
	Strategy             *strategy.Strategy
	AllowDonations       *bool
	DefaultMaxSpreadBps  *uint64
	EpochPeriod          *int64
	UnbondPeriod         *int64
	RewardDenoms         *[]string
}

// UpdateConfig applies the present fields of u to c in the fixed order
// fee config -> epoch/unbond periods -> operator -> validator proxy ->
// delegation strategy -> allow_donations -> default_max_spread ->
// reward-sidecar denoms (spec.md §4.G+), returning the updated config
// or the first validation error encountered. Requires the caller to be
// the current owner.
func UpdateConfig(c Config, sender string, u Update, whitelist []string) (Config, error) {
	if err := c.AssertOwner(sender); err != nil {
		return c, err
	}

	if u.ProtocolFeeContract != nil {
		c.FeeConfig.ProtocolFeeContract = *u.ProtocolFeeContract
	}
	if u.ProtocolRewardFeeBps != nil {
		if *u.ProtocolRewardFeeBps > RewardFeeCapBps {
			return c, fmt.Errorf("%w: %d > %d", hubtypes.ErrFeeTooHigh, *u.ProtocolRewardFeeBps, RewardFeeCapBps)
		}
		c.FeeConfig.ProtocolRewardFeeBps = *u.ProtocolRewardFeeBps
	}

	if u.EpochPeriod != nil {
		if *u.EpochPeriod == 0 {
			return c, fmt.Errorf("%w: epoch_period", hubtypes.ErrZeroPeriod)
		}
		c.EpochPeriod = *u.EpochPeriod
	}
	if u.UnbondPeriod != nil {
		if *u.UnbondPeriod == 0 {
			return c, fmt.Errorf("%w: unbond_period", hubtypes.ErrZeroPeriod)
		}
		c.UnbondPeriod = *u.UnbondPeriod
	}

	if u.Operator != nil {
		c.Operator = *u.Operator
	}
	if u.ValidatorProxy != nil {
		c.ValidatorProxy = *u.ValidatorProxy
	}

	if u.Strategy != nil {
		if err := u.Strategy.Validate(whitelist); err != nil {
			return c, err
		}
		c.Strategy = *u.Strategy
	}

	if u.AllowDonations != nil {
		c.AllowDonations = *u.AllowDonations
	}
	if u.DefaultMaxSpreadBps != nil {
		c.DefaultMaxSpreadBps = *u.DefaultMaxSpreadBps
	}
	if u.RewardDenoms != nil {
		c.RewardDenoms = *u.RewardDenoms
	}

	return c, nil
}
