// Package slashing implements the optimistic-concurrency delegation
// snapshot replace (spec.md §4.E), grounded on
// original_source/execute.rs::check_slashing.
package slashing

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
)

// SlashSanityBps is the "big slash" guard: a reported total below 95%
// of the stored total_utoken_bonded is rejected outright rather than
// silently accepted, since it more likely indicates a stale or
// corrupted oracle read than a real slash (original_source's
// `new_sum < state_total_utoken_bonded.multiply_ratio(95, 100)`).
const SlashSanityBps = 9_500

// Result is what Check returns on success: the new ledger and the old/
// new bonded totals for the emitted event.
type Result struct {
	Ledger          ledger.Ledger
	OldUtokenBonded uint64
	NewUtokenBonded uint64
}

// Check replaces the ledger wholesale with current, the caller's
// freshly-observed on-chain delegation amounts, after validating two
// optimistic-concurrency preconditions and one sanity cap:
//
//  1. expectedTotalUtokenBonded must match the hub's currently stored
//     total (ErrStateChanged) — guards against a stale read racing a
//     concurrent bond/unbond.
//  2. len(current) must match the ledger's existing validator count
//     (ErrStateChanged) — guards against a caller silently dropping a
//     validator from its report.
//  3. sum(current) must not fall below SlashSanityBps of
//     expectedTotalUtokenBonded (ErrSlashTooLarge) — guards against
//     mistaking a bad read for a real slash event.
//
// Validators present in the old ledger but absent from current do NOT
// keep their old amount: callers must report every validator's current
// amount, matching original_source, which rebuilds the delegations map
// wholesale from the caller-supplied vector.
func Check(old ledger.Ledger, current []ledger.Delegation, expectedTotalUtokenBonded uint64) (Result, error) {
	if old.Sum() != expectedTotalUtokenBonded {
		return Result{}, fmt.Errorf("%w: total_utoken_bonded", hubtypes.ErrStateChanged)
	}
	if old.Len() != len(current) {
		return Result{}, fmt.Errorf("%w: delegations", hubtypes.ErrStateChanged)
	}

	var newSum uint64
	for _, d := range current {
		newSum += d.Amount
	}

	if newSum < mulBps(expectedTotalUtokenBonded, SlashSanityBps) {
		return Result{}, fmt.Errorf("%w: reported %d, had %d", hubtypes.ErrSlashTooLarge, newSum, expectedTotalUtokenBonded)
	}

	m := make(map[string]uint64, len(current))
	for _, d := range current {
		m[d.Validator] = d.Amount
	}

	return Result{
		Ledger:          ledger.FromMap(m),
		OldUtokenBonded: expectedTotalUtokenBonded,
		NewUtokenBonded: newSum,
	}, nil
}

// mulBps computes floor(amount*bps/10_000) via a 256-bit intermediate,
// the same overflow-safe shape as sharemath.mulDivFloor.
func mulBps(amount uint64, bps uint64) uint64 {
	x := new(uint256.Int).SetUint64(amount)
	x.Mul(x, new(uint256.Int).SetUint64(bps))
	x.Div(x, uint256.NewInt(10_000))
	if !x.IsUint64() {
		panic("slashing: mulBps result does not fit in uint64")
	}
	return x.Uint64()
}
