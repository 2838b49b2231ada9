package stakehub

import (
	"context"

	"github.com/erisprotocol/alliancehub/internal/stakehub/batch"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubconfig"
	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
	"github.com/erisprotocol/alliancehub/internal/stakehub/store"
	"github.com/erisprotocol/alliancehub/internal/stakehub/tune"
)

// Config returns the hub's current configuration (spec.md §6 query
// surface).
func (h *Hub) Config() (hubconfig.Config, error) {
	cfg, _, err := h.Store.Config()
	return cfg, err
}

// State is the aggregate snapshot returned by the State query (spec.md
// §6: "totals, exchange rate, unlocked, unbonding, available, tvl").
type State struct {
	TotalSupply       uint64
	TotalUtokenBonded uint64
	// ExchangeRateNumerator/Denominator express utoken-per-share as an
	// integer ratio rather than a lossy float (spec.md I1 "never return
	// a lossy inverse"); Denominator is 1 (rate == Numerator) when
	// supply is 0.
	ExchangeRateNumerator   uint64
	ExchangeRateDenominator uint64
	UnlockedUtoken          uint64
	Unbonding               uint64
	Available               uint64
	TVL                     uint64
}

// State computes the aggregate snapshot. available is the hub's live
// utoken bank balance net of funds already earmarked (unlocked +
// still-unbonding); tvl is the total underlying value under management
// across bonded, unbonding and unlocked utoken.
func (h *Hub) State(ctx context.Context) (State, error) {
	st, _, err := h.Store.StakeToken()
	if err != nil {
		return State{}, err
	}
	unlocked, _, err := h.Store.UnlockedCoins()
	if err != nil {
		return State{}, err
	}
	previous, err := h.Store.AllPreviousBatches()
	if err != nil {
		return State{}, err
	}

	var unbonding uint64
	for _, b := range previous {
		unbonding += b.UtokenUnclaimed
	}

	bankBalance, err := h.Bank.Balance(ctx, st.UtokenDenom)
	if err != nil {
		return State{}, err
	}
	unlockedUtoken := unlocked[st.UtokenDenom]

	available := bankBalance
	if available > unlockedUtoken+unbonding {
		available -= unlockedUtoken + unbonding
	} else {
		available = 0
	}

	rateNum, rateDen := st.TotalUtokenBonded, uint64(1)
	if st.TotalSupply > 0 {
		rateDen = st.TotalSupply
	}

	return State{
		TotalSupply:             st.TotalSupply,
		TotalUtokenBonded:       st.TotalUtokenBonded,
		ExchangeRateNumerator:   rateNum,
		ExchangeRateDenominator: rateDen,
		UnlockedUtoken:          unlockedUtoken,
		Unbonding:               unbonding,
		Available:               available,
		TVL:                     st.TotalUtokenBonded + unbonding + unlockedUtoken,
	}, nil
}

// PendingBatch returns the single open accumulating batch (spec.md §6
// query surface).
func (h *Hub) PendingBatch() (batch.Pending, error) {
	p, _, err := h.Store.PendingBatch()
	return p, err
}

// PreviousBatch returns one frozen batch by id.
func (h *Hub) PreviousBatch(id uint64) (batch.Previous, bool, error) {
	return h.Store.PreviousBatch(id)
}

// PreviousBatches lists frozen batches in ascending id order (spec.md
// "PreviousBatches(start_after, limit)").
func (h *Hub) PreviousBatches(startAfter uint64, limit int) ([]batch.Previous, error) {
	return h.Store.PreviousBatches(startAfter, limit)
}

// UnbondRequestsByBatch lists every claim against one batch.
func (h *Hub) UnbondRequestsByBatch(batchID uint64) ([]batch.UnbondRequest, error) {
	return h.Store.UnbondRequestsByBatch(batchID)
}

// UnbondRequestsByUser lists every claim a user holds across all
// batches.
func (h *Hub) UnbondRequestsByUser(user string) ([]batch.UnbondRequest, error) {
	return h.Store.UnbondRequestsByUser(user)
}

// Delegations returns the current validator -> bonded-amount map.
func (h *Hub) Delegations() (map[string]uint64, error) {
	l, _, err := h.Store.Delegations()
	if err != nil {
		return nil, err
	}
	return l.ToMap(), nil
}

// WantedDelegations returns the desired absolute per-validator bonded
// split right now, under the live saved goal (spec.md §6 query
// surface).
func (h *Hub) WantedDelegations(now int64) (map[string]uint64, error) {
	l, _, err := h.Store.Delegations()
	if err != nil {
		return nil, err
	}
	goal, hasGoal, err := h.Store.DelegationGoal()
	if err != nil {
		return nil, err
	}
	whitelist, err := h.whitelist(context.Background())
	if err != nil {
		return nil, err
	}
	var goalPtr *tune.Goal
	if hasGoal {
		goalPtr = &goal
	}
	return tune.WantedDelegations(goalPtr, now, whitelist, l.Sum()), nil
}

// SimulateWantedDelegations previews WantedDelegations as if the goal's
// TunePeriod had been extended by period seconds beyond now, letting a
// caller check a prospective tune call's effect before submitting it
// (spec.md §6 "SimulateWantedDelegations(period)").
func (h *Hub) SimulateWantedDelegations(now, period int64) (map[string]uint64, error) {
	l, _, err := h.Store.Delegations()
	if err != nil {
		return nil, err
	}
	goal, hasGoal, err := h.Store.DelegationGoal()
	if err != nil {
		return nil, err
	}
	whitelist, err := h.whitelist(context.Background())
	if err != nil {
		return nil, err
	}
	if !hasGoal {
		return tune.WantedDelegations(nil, now, whitelist, l.Sum()), nil
	}
	goal.TunePeriod += period
	return tune.WantedDelegations(&goal, now, whitelist, l.Sum()), nil
}

// SimulateUndelegations previews the per-validator undelegation split
// for a hypothetical redemption of targetUnbond utoken against the
// current ledger, without mutating any state (spec.md §6
// "SimulateUndelegations").
func (h *Hub) SimulateUndelegations(targetUnbond uint64) ([]sharemath.Undelegation, error) {
	l, _, err := h.Store.Delegations()
	if err != nil {
		return nil, err
	}
	current := l.ToMap()
	list := make([]sharemath.Delegation, 0, len(current))
	for v, amt := range current {
		list = append(list, sharemath.Delegation{Validator: v, Amount: amt})
	}
	return sharemath.ComputeUndelegations(targetUnbond, list), nil
}

// ExchangeRates returns every recorded (timestamp, rate) sample in
// [from, to] (spec.md §6 "ExchangeRates(range)").
func (h *Hub) ExchangeRates(from, to int64) ([]store.ExchangeRatePoint, error) {
	return h.Store.ExchangeRates(from, to)
}
