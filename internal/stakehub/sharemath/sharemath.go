// Package sharemath implements the hub's pure accounting math: mint and
// unbond conversions, undelegation and redelegation planning, and
// reconciliation loss allocation. Every function here is floor-biased —
// the hub keeps the dust rather than ever owing it (spec.md §4.A
// Rationale) — and every function works only on its arguments, with no
// storage access, mirroring the teacher's vms/platformvm/reward package.
// The reconciliation functions update the batches they are given in
// place.
package sharemath

import (
	"sort"
	"strconv"

	"github.com/holiman/uint256"
)

// mulDivFloor computes floor(a*b/c) using a 256-bit intermediate so the
// a*b multiplication of two uint64 values never overflows, matching the
// spec's "require 256-bit intermediates when multiplying two 128-bit
// values; assert the result fits" note scaled down to this module's
// uint64 amounts.
func mulDivFloor(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(uint256.Int).SetUint64(a)
	y := new(uint256.Int).SetUint64(b)
	x.Mul(x, y)
	x.Div(x, new(uint256.Int).SetUint64(c))
	if !x.IsUint64() {
		panic("sharemath: mulDivFloor result does not fit in uint64")
	}
	return x.Uint64()
}

// ComputeMintAmount returns the number of shares minted for depositing
// deposit underlying tokens, given the current share supply and bonded
// total. Bootstraps 1:1 when there is no existing supply or nothing
// bonded yet, and floors otherwise so existing holders are never
// diluted by rounding (spec.md §4.A).
func ComputeMintAmount(supply, deposit, bonded uint64) uint64 {
	if supply == 0 || bonded == 0 {
		return deposit
	}
	return mulDivFloor(deposit, supply, bonded)
}

// ComputeUnbondAmount returns the underlying tokens paid out for burning
// sharesBurned shares, floored so the hub never over-pays.
func ComputeUnbondAmount(supply, sharesBurned, bonded uint64) uint64 {
	if supply == 0 {
		return 0
	}
	return mulDivFloor(bonded, sharesBurned, supply)
}

// Delegation is a validator/amount pair, used both as an input (current
// delegations) and an output (planned deltas) of the planning functions
// below.
type Delegation struct {
	Validator string
	Amount    uint64
}

// Undelegation is a planned per-validator undelegation amount.
type Undelegation struct {
	Validator string
	Amount    uint64
}

// ComputeUndelegations splits targetUnbond across validators
// proportionally to each validator's current delegation, so the
// post-undelegate distribution keeps the current proportions (up to
// rounding). The returned amounts sum to exactly targetUnbond (capped at
// the total currently delegated): the floor-division remainder is handed
// out in largest-current-delegation-first order, each validator taking
// at most its remaining headroom up to its current delegation.
//
// Tie-break for equal current-delegation amounts is deterministic:
// larger current delegation first, then ascending validator ID. This
// resolves an ambiguity the spec leaves open (§9): the Rust original's
// tie-break follows Vec insertion order, which Go's randomized map
// iteration cannot reproduce, so an explicit order is required here.
func ComputeUndelegations(targetUnbond uint64, current []Delegation) []Undelegation {
	if targetUnbond == 0 || len(current) == 0 {
		return nil
	}

	ordered := make([]Delegation, len(current))
	copy(ordered, current)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Amount != ordered[j].Amount {
			return ordered[i].Amount > ordered[j].Amount
		}
		return ordered[i].Validator < ordered[j].Validator
	})

	var totalCurrent uint64
	for _, d := range ordered {
		totalCurrent += d.Amount
	}
	if totalCurrent == 0 {
		return nil
	}
	// Don't try to undelegate more than is actually delegated.
	if targetUnbond > totalCurrent {
		targetUnbond = totalCurrent
	}

	type allocation struct {
		validator string
		cap       uint64 // d.Amount: the most this validator can supply
		amount    uint64 // currently allocated, always <= cap
	}

	allocs := make([]allocation, 0, len(ordered))
	var allocated uint64
	for _, d := range ordered {
		if d.Amount == 0 {
			continue
		}
		share := mulDivFloor(targetUnbond, d.Amount, totalCurrent)
		if share > d.Amount {
			share = d.Amount
		}
		allocs = append(allocs, allocation{validator: d.Validator, cap: d.Amount, amount: share})
		allocated += share
	}

	// Cascade the floor-division remainder across validators in the same
	// largest-first order, skipping anyone already at capacity, until
	// it's fully placed — a single bucket's headroom may not be enough,
	// and the sum MUST equal targetUnbond exactly (spec.md I "sum of
	// returned amounts equals target_unbond").
	remainder := targetUnbond - allocated
	for i := range allocs {
		if remainder == 0 {
			break
		}
		headroom := allocs[i].cap - allocs[i].amount
		if headroom == 0 {
			continue
		}
		take := remainder
		if take > headroom {
			take = headroom
		}
		allocs[i].amount += take
		remainder -= take
	}

	out := make([]Undelegation, 0, len(allocs))
	for _, a := range allocs {
		if a.amount > 0 {
			out = append(out, Undelegation{Validator: a.validator, Amount: a.amount})
		}
	}
	return out
}

// Redelegation is a planned move of amount from src to dst.
type Redelegation struct {
	Src, Dst string
	Amount   uint64
}

// ComputeRedelegationsForRebalancing greedily matches validators whose
// current delegation exceeds their target (surplus) against validators
// whose current delegation is below target (deficit), planning no more
// than len(current)-1 moves in the common case. Moves below
// minRedelegation are elided by the caller (spec.md §4.A); this function
// itself does not filter so callers can inspect the full plan.
func ComputeRedelegationsForRebalancing(current, target map[string]uint64) []Redelegation {
	type bucket struct {
		validator string
		amount    uint64
	}

	var surplus, deficit []bucket
	validators := make(map[string]struct{}, len(current)+len(target))
	for v := range current {
		validators[v] = struct{}{}
	}
	for v := range target {
		validators[v] = struct{}{}
	}

	names := make([]string, 0, len(validators))
	for v := range validators {
		names = append(names, v)
	}
	sort.Strings(names)

	for _, v := range names {
		cur := current[v]
		want := target[v]
		switch {
		case cur > want:
			surplus = append(surplus, bucket{validator: v, amount: cur - want})
		case want > cur:
			deficit = append(deficit, bucket{validator: v, amount: want - cur})
		}
	}

	sort.SliceStable(surplus, func(i, j int) bool {
		if surplus[i].amount != surplus[j].amount {
			return surplus[i].amount > surplus[j].amount
		}
		return surplus[i].validator < surplus[j].validator
	})
	sort.SliceStable(deficit, func(i, j int) bool {
		if deficit[i].amount != deficit[j].amount {
			return deficit[i].amount > deficit[j].amount
		}
		return deficit[i].validator < deficit[j].validator
	})

	var moves []Redelegation
	si, di := 0, 0
	for si < len(surplus) && di < len(deficit) {
		s, d := &surplus[si], &deficit[di]
		amount := s.amount
		if d.amount < amount {
			amount = d.amount
		}
		if amount > 0 {
			moves = append(moves, Redelegation{Src: s.validator, Dst: d.validator, Amount: amount})
		}
		s.amount -= amount
		d.amount -= amount
		if s.amount == 0 {
			si++
		}
		if d.amount == 0 {
			di++
		}
	}
	return moves
}

// Batch is the subset of a previous batch's fields the reconciliation
// functions below need: a shrinking "unclaimed" amount and a reconciled
// flag they set.
type Batch struct {
	ID               uint64
	TotalShares      uint64
	UtokenUnclaimed  uint64
	Reconciled       bool
}

// MarkReconciledBatches sets Reconciled on every supplied batch.
func MarkReconciledBatches(batches []*Batch) {
	for _, b := range batches {
		b.Reconciled = true
	}
}

// ReconcileBatches allocates a total shortfall (deficit) across batches
// proportionally to each batch's UtokenUnclaimed, floors each batch's
// deduction, assigns the floor-division remainder to the batch with the
// largest UtokenUnclaimed, and marks every touched batch reconciled. It
// returns an advisory string describing the distribution, matching
// original_source's "reconcile_info" string built for the emitted event.
func ReconcileBatches(batches []*Batch, deficit uint64) string {
	if len(batches) == 0 || deficit == 0 {
		MarkReconciledBatches(batches)
		return ""
	}

	var total uint64
	for _, b := range batches {
		total += b.UtokenUnclaimed
	}
	if total == 0 {
		MarkReconciledBatches(batches)
		return ""
	}
	if deficit > total {
		deficit = total
	}

	largestIdx := 0
	var allocated uint64
	info := ""
	for i, b := range batches {
		share := mulDivFloor(deficit, b.UtokenUnclaimed, total)
		if share > b.UtokenUnclaimed {
			share = b.UtokenUnclaimed
		}
		b.UtokenUnclaimed -= share
		allocated += share
		if b.UtokenUnclaimed > batches[largestIdx].UtokenUnclaimed {
			largestIdx = i
		}
		if i > 0 {
			info += ","
		}
		info += formatDeduction(b.ID, share)
	}

	if remainder := deficit - allocated; remainder > 0 {
		lb := batches[largestIdx]
		if remainder > lb.UtokenUnclaimed {
			remainder = lb.UtokenUnclaimed
		}
		lb.UtokenUnclaimed -= remainder
	}

	MarkReconciledBatches(batches)
	return info
}

func formatDeduction(id, amount uint64) string {
	return strconv.FormatUint(id, 10) + ":" + strconv.FormatUint(amount, 10)
}
