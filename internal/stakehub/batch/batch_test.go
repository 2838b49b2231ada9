package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
)

func TestQueueUnbondAccumulatesAcrossCalls(t *testing.T) {
	pending := Pending{ID: 1, EstUnbondStartTime: 1_000}
	pending, req := QueueUnbond(pending, nil, "alice", 100)
	require.Equal(t, uint64(100), pending.UstakeToBurn)
	require.Equal(t, uint64(100), req.Shares)

	pending, req = QueueUnbond(pending, &req, "alice", 50)
	require.Equal(t, uint64(150), pending.UstakeToBurn)
	require.Equal(t, uint64(150), req.Shares)
}

func TestNeedsImmediateSubmit(t *testing.T) {
	pending := Pending{ID: 1, EstUnbondStartTime: 1_000}
	require.False(t, NeedsImmediateSubmit(pending, 999))
	require.False(t, NeedsImmediateSubmit(pending, 1_000))
	require.True(t, NeedsImmediateSubmit(pending, 1_001))
}

// Scenario 3 from spec.md §8: "Submit & reconcile with no slash".
// supply=1_000_000, bonded=1_025_000, 100_000 shares queued ->
// utoken_to_unbond = floor(1_025_000*100_000/1_000_000) = 102_500.
// 21 days later the bank shows exactly 102_500: reconcile marks the
// batch reconciled with zero deduction.
func TestScenario3SubmitAndReconcileNoSlash(t *testing.T) {
	pending := Pending{ID: 1, UstakeToBurn: 100_000, EstUnbondStartTime: 1_000}
	const unbondPeriod = 21 * 24 * 60 * 60
	const epochPeriod = 3 * 24 * 60 * 60

	plan := []sharemath.Undelegation{{Validator: "alice", Amount: 102_500}}
	result, err := SubmitBatch(pending, 1_000, 1_000_000, 1_025_000, unbondPeriod, epochPeriod, plan, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(102_500), result.UtokenToUnbond)
	require.Equal(t, uint64(100_000), result.Submitted.TotalShares)
	require.Equal(t, uint64(102_500), result.Submitted.UtokenUnclaimed)
	require.False(t, result.Submitted.Reconciled)
	require.Equal(t, uint64(2), result.NextPending.ID)
	require.Equal(t, int64(1_000+epochPeriod), result.NextPending.EstUnbondStartTime)

	batches := []*Previous{&result.Submitted}
	matured := MaturedUnreconciled(batches, 1_000+unbondPeriod+1)
	require.Len(t, matured, 1)

	reconcileResult := Reconcile(matured, 0, 102_500)
	require.Equal(t, uint64(0), reconcileResult.Deducted)
	require.True(t, matured[0].Reconciled)
	require.Equal(t, uint64(102_500), matured[0].UtokenUnclaimed)
}

// Scenario 4 from spec.md §8: "Withdraw partial" — a 100-share batch
// with 102_500 utoken unclaimed, user A holding 60 shares and user B
// holding 40. A withdraws first (61_500 of the 102_500, proportional
// to 60/100) leaving a 40-share/41_000-utoken batch; B then withdraws
// the remainder and the batch empties out to zero.
func TestScenario4WithdrawPartial(t *testing.T) {
	b := Previous{ID: 7, TotalShares: 100, UtokenUnclaimed: 102_500, EstUnbondEndTime: 1_000, Reconciled: true}
	reqA := UnbondRequest{BatchID: 7, User: "alice", Shares: 60}
	reqB := UnbondRequest{BatchID: 7, User: "bob", Shares: 40}

	resultA, ok := Withdraw(b, reqA, 2_000)
	require.True(t, ok)
	require.Equal(t, uint64(61_500), resultA.UtokenRefund)
	require.False(t, resultA.BatchDeleted)
	require.Equal(t, uint64(40), resultA.UpdatedBatch.TotalShares)
	require.Equal(t, uint64(41_000), resultA.UpdatedBatch.UtokenUnclaimed)

	resultB, ok := Withdraw(resultA.UpdatedBatch, reqB, 2_000)
	require.True(t, ok)
	require.Equal(t, uint64(41_000), resultB.UtokenRefund)
	require.True(t, resultB.BatchDeleted)
	require.Equal(t, uint64(0), resultB.UpdatedBatch.TotalShares)
	require.Equal(t, uint64(0), resultB.UpdatedBatch.UtokenUnclaimed)
}

func TestWithdrawRefusesUnmaturedOrUnreconciledBatch(t *testing.T) {
	req := UnbondRequest{BatchID: 1, User: "alice", Shares: 10}

	unreconciled := Previous{ID: 1, TotalShares: 100, UtokenUnclaimed: 100, EstUnbondEndTime: 1_000, Reconciled: false}
	_, ok := Withdraw(unreconciled, req, 2_000)
	require.False(t, ok)

	notYetMatured := Previous{ID: 1, TotalShares: 100, UtokenUnclaimed: 100, EstUnbondEndTime: 5_000, Reconciled: true}
	_, ok = Withdraw(notYetMatured, req, 2_000)
	require.False(t, ok)
}

// Scenario 5 from spec.md §8: "Reconcile with deficit", exercised
// through the batch package's wiring (not just sharemath directly) to
// confirm syncBack applies the deduction and reconciled flag correctly.
func TestScenario5ReconcileWithDeficit(t *testing.T) {
	batches := []*Previous{
		{ID: 1, TotalShares: 60_000, UtokenUnclaimed: 60_000},
		{ID: 2, TotalShares: 40_000, UtokenUnclaimed: 40_000},
	}

	// expected = 100_000, actual = 90_000 -> deficit 10_000, split pro
	// rata by UtokenUnclaimed share (60/40).
	result := Reconcile(batches, 0, 90_000)
	require.Equal(t, uint64(10_000), result.Deducted)
	require.True(t, batches[0].Reconciled)
	require.True(t, batches[1].Reconciled)
	require.Equal(t, uint64(90_000), batches[0].UtokenUnclaimed+batches[1].UtokenUnclaimed)
}

func TestReconcileNoMaturedBatchesIsNoop(t *testing.T) {
	result := Reconcile(nil, 0, 0)
	require.Equal(t, uint64(0), result.Deducted)
}

func TestSubmitBatchTooEarly(t *testing.T) {
	pending := Pending{ID: 1, UstakeToBurn: 100, EstUnbondStartTime: 1_000}
	_, err := SubmitBatch(pending, 999, 1_000_000, 1_000_000, 100, 100, nil, nil)
	require.ErrorIs(t, err, hubtypes.ErrSubmitTooEarly)
}

func TestSubmitBatchOperatorSplitMismatch(t *testing.T) {
	pending := Pending{ID: 1, UstakeToBurn: 100_000, EstUnbondStartTime: 1_000}
	badPlan := []sharemath.Undelegation{{Validator: "alice", Amount: 1}}
	_, err := SubmitBatch(pending, 1_000, 1_000_000, 1_025_000, 100, 100, nil, badPlan)
	require.ErrorIs(t, err, hubtypes.ErrSubmitSplitMismatch)
}

func TestSubmitBatchAcceptsMatchingOperatorSplit(t *testing.T) {
	pending := Pending{ID: 1, UstakeToBurn: 100_000, EstUnbondStartTime: 1_000}
	plan := []sharemath.Undelegation{{Validator: "alice", Amount: 52_500}, {Validator: "bob", Amount: 50_000}}
	result, err := SubmitBatch(pending, 1_000, 1_000_000, 1_025_000, 100, 100, nil, plan)
	require.NoError(t, err)
	require.Equal(t, plan, result.Undelegations)
}

func TestMaturedUnreconciledSortedByID(t *testing.T) {
	batches := []*Previous{
		{ID: 3, EstUnbondEndTime: 1},
		{ID: 1, EstUnbondEndTime: 1},
		{ID: 2, EstUnbondEndTime: 1},
	}
	out := MaturedUnreconciled(batches, 100)
	require.Len(t, out, 3)
	require.Equal(t, []uint64{1, 2, 3}, []uint64{out[0].ID, out[1].ID, out[2].ID})
}
