// Package batch implements the unbonding batch state machine (spec.md
// §4.C): Accumulating -> In-flight -> Matured -> Reconciled -> Drained.
// Grounded on original_source/execute.rs's queue_unbond/submit_batch/
// reconcile/withdraw_unbonded, with ordering helpers shaped like the
// teacher's vms/platformvm/txs/txheap (heaps keyed by a time field, used
// there to find the next staker whose period ends).
package batch

import (
	"fmt"
	"sort"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
)

// Pending is the single open queue of share-redemption intents
// (state 1, Accumulating).
type Pending struct {
	ID                 uint64
	UstakeToBurn       uint64
	EstUnbondStartTime int64
}

// Previous is a frozen batch submitted for undelegation (states
// 2/3/4/5). TotalShares == 0 signals it should be deleted from the
// store (spec.md I3).
type Previous struct {
	ID               uint64
	TotalShares      uint64
	UtokenUnclaimed  uint64
	EstUnbondEndTime int64
	Reconciled       bool
}

// UnbondRequest is one user's claim against a batch, keyed by
// (BatchID, User) in the store.
type UnbondRequest struct {
	BatchID uint64
	User    string
	Shares  uint64
}

// QueueUnbond adds ustakeToBurn to the pending batch and
// creates/updates the caller's UnbondRequest, returning the updated
// pending batch and request (spec.md §4.C state 1).
func QueueUnbond(pending Pending, existing *UnbondRequest, user string, ustakeToBurn uint64) (Pending, UnbondRequest) {
	pending.UstakeToBurn += ustakeToBurn
	req := UnbondRequest{BatchID: pending.ID, User: user, Shares: ustakeToBurn}
	if existing != nil {
		req.Shares = existing.Shares + ustakeToBurn
	}
	return pending, req
}

// NeedsImmediateSubmit reports the early-submission escape (spec.md
// §4.C): if now is already past the pending batch's scheduled start
// time, the caller should self-enqueue a SubmitBatch to avoid
// indefinite delay.
func NeedsImmediateSubmit(pending Pending, now int64) bool {
	return now > pending.EstUnbondStartTime
}

// SubmitResult is what SubmitBatch computes: the frozen Previous batch,
// the next Pending batch, and the undelegation plan to dispatch.
type SubmitResult struct {
	Submitted      Previous
	NextPending    Pending
	Undelegations  []sharemath.Undelegation
	UtokenToUnbond uint64
}

// SubmitBatch freezes the pending batch into an In-flight Previous batch
// and allocates a fresh Pending batch (spec.md §4.C state 2).
//
// now must be >= pending.EstUnbondStartTime (ErrSubmitTooEarly
// otherwise). If operatorUndelegations is non-nil it's used verbatim
// after checking it sums to utokenToUnbond exactly
// (ErrSubmitSplitMismatch otherwise, caller must have already checked
// operator authorization); otherwise plan is computed by the caller via
// sharemath.ComputeUndelegations and passed in as operatorUndelegations
// is nil, computedPlan is used.
func SubmitBatch(
	pending Pending,
	now int64,
	supply, bonded uint64,
	unbondPeriod, epochPeriod int64,
	computedPlan []sharemath.Undelegation,
	operatorUndelegations []sharemath.Undelegation,
) (SubmitResult, error) {
	if now < pending.EstUnbondStartTime {
		return SubmitResult{}, fmt.Errorf("%w: start time %d", hubtypes.ErrSubmitTooEarly, pending.EstUnbondStartTime)
	}

	utokenToUnbond := sharemath.ComputeUnbondAmount(supply, pending.UstakeToBurn, bonded)

	plan := computedPlan
	if operatorUndelegations != nil {
		var sum uint64
		for _, u := range operatorUndelegations {
			sum += u.Amount
		}
		if sum != utokenToUnbond {
			return SubmitResult{}, fmt.Errorf("%w: provided %d, expected %d", hubtypes.ErrSubmitSplitMismatch, sum, utokenToUnbond)
		}
		plan = operatorUndelegations
	}

	submitted := Previous{
		ID:               pending.ID,
		Reconciled:       false,
		TotalShares:      pending.UstakeToBurn,
		UtokenUnclaimed:  utokenToUnbond,
		EstUnbondEndTime: now + unbondPeriod,
	}
	next := Pending{
		ID:                 pending.ID + 1,
		UstakeToBurn:       0,
		EstUnbondStartTime: now + epochPeriod,
	}

	return SubmitResult{
		Submitted:      submitted,
		NextPending:    next,
		Undelegations:  plan,
		UtokenToUnbond: utokenToUnbond,
	}, nil
}

// MaturedUnreconciled filters batches to those that are unreconciled and
// whose unbond period has elapsed (spec.md §4.C state 3).
func MaturedUnreconciled(batches []*Previous, now int64) []*Previous {
	out := make([]*Previous, 0, len(batches))
	for _, b := range batches {
		if !b.Reconciled && now > b.EstUnbondEndTime {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReconcileResult is what Reconcile computes against a set of matured,
// unreconciled batches.
type ReconcileResult struct {
	Deducted uint64
	Info     string
}

// Reconcile measures the hub's actual utoken balance against what the
// matured batches plus already-unlocked utoken expect, and allocates
// any shortfall across the batches (spec.md §4.C "Reconciliation").
// batches is mutated in place (UtokenUnclaimed shrinks, Reconciled is
// set), matching sharemath.ReconcileBatches' contract.
func Reconcile(batches []*Previous, unlockedUtoken, actualUtoken uint64) ReconcileResult {
	if len(batches) == 0 {
		return ReconcileResult{}
	}

	mathBatches := make([]*sharemath.Batch, len(batches))
	var expectedReceived uint64
	for i, b := range batches {
		expectedReceived += b.UtokenUnclaimed
		mathBatches[i] = &sharemath.Batch{ID: b.ID, TotalShares: b.TotalShares, UtokenUnclaimed: b.UtokenUnclaimed}
	}

	expected := expectedReceived + unlockedUtoken
	if actualUtoken >= expected {
		sharemath.MarkReconciledBatches(mathBatches)
		syncBack(batches, mathBatches)
		return ReconcileResult{Deducted: 0}
	}

	deficit := expected - actualUtoken
	info := sharemath.ReconcileBatches(mathBatches, deficit)
	syncBack(batches, mathBatches)
	return ReconcileResult{Deducted: deficit, Info: info}
}

func syncBack(batches []*Previous, mathBatches []*sharemath.Batch) {
	for i, mb := range mathBatches {
		batches[i].UtokenUnclaimed = mb.UtokenUnclaimed
		batches[i].Reconciled = mb.Reconciled
	}
}

// WithdrawResult is what Withdraw computes for a single (request,
// batch) pair.
type WithdrawResult struct {
	UtokenRefund uint64
	BatchDeleted bool
	UpdatedBatch Previous
}

// Withdraw pays out a user's reconciled, matured request against its
// batch (spec.md §4.C state 4/5): it decrements both the request's
// shares and the batch's TotalShares/UtokenUnclaimed proportionally, and
// signals the batch should be deleted once TotalShares reaches zero.
func Withdraw(b Previous, req UnbondRequest, now int64) (WithdrawResult, bool) {
	if !b.Reconciled || b.EstUnbondEndTime >= now {
		return WithdrawResult{}, false
	}
	// refund = UtokenUnclaimed * req.Shares / TotalShares, floored — the
	// same ratio shape as ComputeUnbondAmount(supply, shares, bonded).
	refund := sharemath.ComputeUnbondAmount(b.TotalShares, req.Shares, b.UtokenUnclaimed)

	b.TotalShares -= req.Shares
	b.UtokenUnclaimed -= refund

	return WithdrawResult{
		UtokenRefund: refund,
		BatchDeleted: b.TotalShares == 0,
		UpdatedBatch: b,
	}, true
}
