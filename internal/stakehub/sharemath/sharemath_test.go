package sharemath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMintAmountBootstrap(t *testing.T) {
	require.Equal(t, uint64(1_000_000), ComputeMintAmount(0, 1_000_000, 0))
}

func TestComputeMintAmountFloors(t *testing.T) {
	// supply=1_000_000 shares over bonded 1_000_007: a case that doesn't
	// divide evenly.
	shares := ComputeMintAmount(1_000_000, 3, 1_000_007)
	require.Equal(t, uint64(2), shares) // floor(3*1_000_000/1_000_007) = 2
}

func TestComputeUnbondAmountFloors(t *testing.T) {
	underlying := ComputeUnbondAmount(1_000_000, 100_000, 1_025_000)
	require.Equal(t, uint64(102_500), underlying)
}

func TestComputeUnbondAmountZeroSupply(t *testing.T) {
	require.Equal(t, uint64(0), ComputeUnbondAmount(0, 100, 500))
}

func TestComputeUndelegationsSumsExactly(t *testing.T) {
	current := []Delegation{
		{Validator: "a", Amount: 333_333},
		{Validator: "b", Amount: 333_333},
		{Validator: "c", Amount: 333_334},
	}
	out := ComputeUndelegations(100_000, current)
	var sum uint64
	for _, u := range out {
		sum += u.Amount
	}
	require.Equal(t, uint64(100_000), sum)
}

func TestComputeUndelegationsSumsExactlyUnderTightHeadroom(t *testing.T) {
	// a and b tie for largest at 10 each, c trails at 1. Flooring leaves a
	// 2-unit remainder that doesn't fit in a single bucket (a only has 1
	// unit of headroom left after its floor share) — the remainder must
	// cascade to b instead of being silently dropped.
	current := []Delegation{
		{Validator: "a", Amount: 10},
		{Validator: "b", Amount: 10},
		{Validator: "c", Amount: 1},
	}
	out := ComputeUndelegations(20, current)
	var sum uint64
	byValidator := map[string]uint64{}
	for _, u := range out {
		sum += u.Amount
		byValidator[u.Validator] = u.Amount
	}
	require.Equal(t, uint64(20), sum)
	require.Equal(t, uint64(10), byValidator["a"])
	require.Equal(t, uint64(10), byValidator["b"])
}

func TestComputeUndelegationsCappedAtCurrent(t *testing.T) {
	current := []Delegation{{Validator: "a", Amount: 10}}
	out := ComputeUndelegations(1000, current)
	require.Len(t, out, 1)
	require.Equal(t, uint64(10), out[0].Amount)
}

func TestComputeUndelegationsTieBreakDeterministic(t *testing.T) {
	current := []Delegation{
		{Validator: "zeta", Amount: 100},
		{Validator: "alpha", Amount: 100},
	}
	out1 := ComputeUndelegations(100, current)
	out2 := ComputeUndelegations(100, current)
	require.Equal(t, out1, out2)
}

func TestComputeRedelegationsForRebalancing(t *testing.T) {
	current := map[string]uint64{"alice": 700_000, "bob": 300_000}
	target := map[string]uint64{"alice": 600_000, "bob": 400_000}
	moves := ComputeRedelegationsForRebalancing(current, target)
	require.Len(t, moves, 1)
	require.Equal(t, "alice", moves[0].Src)
	require.Equal(t, "bob", moves[0].Dst)
	require.Equal(t, uint64(100_000), moves[0].Amount)
}

func TestComputeRedelegationsNoMovesWhenBalanced(t *testing.T) {
	current := map[string]uint64{"a": 500, "b": 500}
	target := map[string]uint64{"a": 500, "b": 500}
	require.Empty(t, ComputeRedelegationsForRebalancing(current, target))
}

func TestReconcileBatchesProportional(t *testing.T) {
	batches := []*Batch{
		{ID: 1, TotalShares: 10, UtokenUnclaimed: 100},
		{ID: 2, TotalShares: 20, UtokenUnclaimed: 200},
	}
	ReconcileBatches(batches, 30)
	require.Equal(t, uint64(90), batches[0].UtokenUnclaimed)
	require.Equal(t, uint64(180), batches[1].UtokenUnclaimed)
	require.True(t, batches[0].Reconciled)
	require.True(t, batches[1].Reconciled)
}

func TestReconcileBatchesZeroDeficit(t *testing.T) {
	batches := []*Batch{{ID: 1, TotalShares: 10, UtokenUnclaimed: 100}}
	ReconcileBatches(batches, 0)
	require.Equal(t, uint64(100), batches[0].UtokenUnclaimed)
	require.True(t, batches[0].Reconciled)
}

func TestMarkReconciledBatches(t *testing.T) {
	batches := []*Batch{{ID: 1}, {ID: 2}}
	MarkReconciledBatches(batches)
	for _, b := range batches {
		require.True(t, b.Reconciled)
	}
}
