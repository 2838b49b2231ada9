// Package tune implements the delegation-goal control loop (spec.md
// §4.F): tune_delegations snapshots a target split from the strategy's
// gauge loader, and rebalance plans redelegations that converge the
// ledger toward that target. Grounded on
// original_source/execute.rs::tune_delegations/rebalance.
package tune

import (
	"github.com/holiman/uint256"

	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
	"github.com/erisprotocol/alliancehub/internal/stakehub/strategy"
)

// Goal is the persisted delegation_goal: the gauge-derived per-validator
// basis-point shares, snapshotted at TuneTime and good until TunePeriod
// elapses (spec.md §4.F). A Goal with a nil Shares map means "no goal
// saved" (Uniform strategy, or the gauge loader returned nothing).
type Goal struct {
	TuneTime   int64
	TunePeriod int64
	Shares     map[string]uint64
}

// TuneResult is what Tune computes.
type TuneResult struct {
	Goal Goal
	Save bool // false means the caller should clear any stored goal
}

// Tune recomputes the delegation goal for strategies whose target isn't
// implicit (Uniform has no goal to save: every validator is "equally
// wanted" so there's nothing worth snapshotting). gaugeShares is the
// gauge loader's already-validated output (strategy.ValidateGaugeShares)
// for Kind == Gauges, or the strategy's own Defined map for Kind ==
// Defined.
func Tune(kind strategy.Kind, gaugeShares map[string]uint64, now, tunePeriod int64) TuneResult {
	if kind == strategy.Uniform || len(gaugeShares) == 0 {
		return TuneResult{Save: false}
	}
	return TuneResult{
		Goal: Goal{TuneTime: now, TunePeriod: tunePeriod, Shares: gaugeShares},
		Save: true,
	}
}

// WantedDelegations computes the desired absolute per-validator bonded
// amount for totalBonded tokens, given either a live Goal (still within
// its TunePeriod) or a Uniform fallback split evenly across whitelist.
func WantedDelegations(goal *Goal, now int64, whitelist []string, totalBonded uint64) map[string]uint64 {
	if goal != nil && len(goal.Shares) > 0 && now < goal.TuneTime+goal.TunePeriod {
		out := make(map[string]uint64, len(whitelist))
		for _, v := range whitelist {
			out[v] = mulDivFloor(totalBonded, goal.Shares[v], strategy.BpsDenominator)
		}
		return out
	}
	return uniformSplit(whitelist, totalBonded)
}

func uniformSplit(whitelist []string, totalBonded uint64) map[string]uint64 {
	n := uint64(len(whitelist))
	out := make(map[string]uint64, len(whitelist))
	if n == 0 {
		return out
	}
	base := totalBonded / n
	remainder := totalBonded % n
	for i, v := range whitelist {
		out[v] = base
		if uint64(i) < remainder {
			out[v]++
		}
	}
	return out
}

// RebalancePlan is what Rebalance computes: the filtered redelegation
// moves and their total amount (for the "utoken_moved" event attribute).
type RebalancePlan struct {
	Redelegations []sharemath.Redelegation
	TotalMoved    uint64
}

// Rebalance plans moves that converge current toward target, filtering
// out any move below minRedelegation (spec.md §4.F, "Rebalance under
// Defined" scenario 6).
func Rebalance(current, target map[string]uint64, minRedelegation uint64) RebalancePlan {
	moves := sharemath.ComputeRedelegationsForRebalancing(current, target)

	out := make([]sharemath.Redelegation, 0, len(moves))
	var total uint64
	for _, m := range moves {
		if m.Amount < minRedelegation {
			continue
		}
		out = append(out, m)
		total += m.Amount
	}
	return RebalancePlan{Redelegations: out, TotalMoved: total}
}

// mulDivFloor computes floor(a*b/c) via a 256-bit intermediate, the
// same overflow-safe shape as sharemath.mulDivFloor.
func mulDivFloor(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(uint256.Int).SetUint64(a)
	x.Mul(x, new(uint256.Int).SetUint64(b))
	x.Div(x, new(uint256.Int).SetUint64(c))
	if !x.IsUint64() {
		panic("tune: mulDivFloor result does not fit in uint64")
	}
	return x.Uint64()
}
