// Package strategy implements the delegation strategy selector (spec.md
// §4.D): Uniform, Gauges and Defined. A Strategy is a tagged variant,
// grounded on the teacher's validation-by-switch idiom in
// vms/platformvm/txs/executor/staker_tx_verification.go.
package strategy

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
)

// Kind tags which variant a Strategy holds.
type Kind int

const (
	Uniform Kind = iota
	Gauges
	Defined
)

// BpsDenominator is the basis-points denominator Defined shares and
// Gauges shares are expressed against (100.00%).
const BpsDenominator = 10_000

// Strategy is the tagged variant {Uniform, Gauges{shares}, Defined{shares}}.
// A Gauges share vector comes from the gauge loader at consult time and
// is not stored here; the Defined map is static configuration.
type Strategy struct {
	Kind    Kind
	Defined map[string]uint64 // validator -> bps, only used when Kind == Defined
}

// Validate checks a strategy's static configuration against the current
// whitelist, matching original_source's DelegationStrategy::validate.
// Gauges is validated against the gauge loader's output at consult time,
// not here, since its vector isn't static config.
func (s Strategy) Validate(whitelist []string) error {
	if s.Kind != Defined {
		return nil
	}
	return validateShareMap(s.Defined, whitelist)
}

func validateShareMap(shares map[string]uint64, whitelist []string) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: empty share map", hubtypes.ErrBpsSum)
	}
	whitelisted := make(map[string]struct{}, len(whitelist))
	for _, v := range whitelist {
		whitelisted[v] = struct{}{}
	}

	var sum uint64
	for v, bps := range shares {
		if _, ok := whitelisted[v]; !ok {
			return fmt.Errorf("%w: %s", hubtypes.ErrUnknownValidator, v)
		}
		sum += bps
	}
	if sum != BpsDenominator {
		return fmt.Errorf("%w: got %d, want %d", hubtypes.ErrBpsSum, sum, BpsDenominator)
	}
	return nil
}

// ValidateGaugeShares validates a gauge loader's output against the
// current whitelist, summing to exactly BpsDenominator (spec.md §4.D
// Gauges).
func ValidateGaugeShares(shares map[string]uint64, whitelist []string) error {
	return validateShareMap(shares, whitelist)
}

// PickBondTarget selects which validator receives a bond deposit.
//
// Uniform: the whitelisted validator with the smallest current
// delegation, linear-scan first-wins on tie (spec.md §4.D).
//
// Gauges/Defined: FindNewDelegation below.
func (s Strategy) PickBondTarget(whitelist []string, current map[string]uint64) (string, error) {
	if len(whitelist) == 0 {
		return "", hubtypes.ErrEmptyWhitelist
	}
	if s.Kind != Uniform {
		return "", fmt.Errorf("PickBondTarget only supports Uniform; use FindNewDelegation for %v", s.Kind)
	}
	best := whitelist[0]
	bestAmount := current[best]
	for _, v := range whitelist[1:] {
		if amt := current[v]; amt < bestAmount {
			best = v
			bestAmount = amt
		}
	}
	return best, nil
}

// FindNewDelegation implements the Gauges/Defined bond-target algorithm
// (spec.md §4.D):
//  1. wanted[v] = (totalBonded+deposit) * share[v]
//  2. diff[v] = max(0, wanted[v]-current[v]) for currently-delegated v
//  3. pick the validator with the largest positive diff, first
//     occurrence wins ties
//  4. if no validator is currently delegated, return the first
//     whitelisted validator
//
// shares is basis points per validator (the Strategy.Defined map, or the gauge
// loader's output for Gauges), already validated to sum to
// BpsDenominator over the whitelist.
func FindNewDelegation(shares map[string]uint64, whitelist []string, current map[string]uint64, totalBonded, deposit uint64) (string, error) {
	if len(whitelist) == 0 {
		return "", hubtypes.ErrEmptyWhitelist
	}

	wanted := wantedPerValidator(shares, whitelist, totalBonded+deposit)

	// Iterate currently-delegated validators in a stable order so ties
	// resolve deterministically rather than on Go's randomized map
	// iteration (spec.md §9 leaves the exact tie-break unspecified).
	delegated := make([]string, 0, len(current))
	for v := range current {
		delegated = append(delegated, v)
	}
	sort.Strings(delegated)

	var best string
	var bestDiff uint64
	found := false
	for _, v := range delegated {
		w := wanted[v]
		c := current[v]
		var diff uint64
		if w > c {
			diff = w - c
		}
		if !found || diff > bestDiff {
			best = v
			bestDiff = diff
			found = true
		}
	}

	if !found {
		return whitelist[0], nil
	}
	return best, nil
}

func wantedPerValidator(shares map[string]uint64, whitelist []string, totalWanted uint64) map[string]uint64 {
	out := make(map[string]uint64, len(whitelist))
	for _, v := range whitelist {
		bps := shares[v]
		// floor(totalWanted * bps / BpsDenominator)
		out[v] = mulDivFloor(totalWanted, bps, BpsDenominator)
	}
	return out
}

// mulDivFloor computes floor(a*b/c) using the same 256-bit-intermediate
// approach as sharemath.mulDivFloor, so a*b never overflows uint64.
func mulDivFloor(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(uint256.Int).SetUint64(a)
	x.Mul(x, new(uint256.Int).SetUint64(b))
	x.Div(x, new(uint256.Int).SetUint64(c))
	if !x.IsUint64() {
		panic("strategy: mulDivFloor result does not fit in uint64")
	}
	return x.Uint64()
}
