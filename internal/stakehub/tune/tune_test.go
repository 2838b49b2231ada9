package tune

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erisprotocol/alliancehub/internal/stakehub/strategy"
)

func TestTuneUniformNeverSaves(t *testing.T) {
	result := Tune(strategy.Uniform, map[string]uint64{"alice": 10_000}, 1_000, 86_400)
	require.False(t, result.Save)
}

func TestTuneEmptyGaugeResultClearsGoal(t *testing.T) {
	result := Tune(strategy.Gauges, nil, 1_000, 86_400)
	require.False(t, result.Save)
}

func TestTuneDefinedSavesGoal(t *testing.T) {
	shares := map[string]uint64{"alice": 6_000, "bob": 4_000}
	result := Tune(strategy.Defined, shares, 1_000, 86_400)
	require.True(t, result.Save)
	require.Equal(t, int64(1_000), result.Goal.TuneTime)
	require.Equal(t, shares, result.Goal.Shares)
}

func TestWantedDelegationsUsesLiveGoal(t *testing.T) {
	goal := &Goal{TuneTime: 1_000, TunePeriod: 86_400, Shares: map[string]uint64{"alice": 6_000, "bob": 4_000}}
	wanted := WantedDelegations(goal, 1_500, []string{"alice", "bob"}, 1_000_000)
	require.Equal(t, uint64(600_000), wanted["alice"])
	require.Equal(t, uint64(400_000), wanted["bob"])
}

func TestWantedDelegationsFallsBackPastTunePeriod(t *testing.T) {
	goal := &Goal{TuneTime: 1_000, TunePeriod: 86_400, Shares: map[string]uint64{"alice": 6_000, "bob": 4_000}}
	wanted := WantedDelegations(goal, 1_000+86_400+1, []string{"alice", "bob"}, 1_000_000)
	require.Equal(t, uint64(500_000), wanted["alice"])
	require.Equal(t, uint64(500_000), wanted["bob"])
}

func TestWantedDelegationsNilGoalUsesUniform(t *testing.T) {
	wanted := WantedDelegations(nil, 1_500, []string{"alice", "bob", "carol"}, 1_000_001)
	require.Equal(t, uint64(333_334), wanted["alice"]) // remainder goes to the first validators in whitelist order
	require.Equal(t, uint64(333_334), wanted["bob"])
	require.Equal(t, uint64(333_333), wanted["carol"])
	var sum uint64
	for _, v := range wanted {
		sum += v
	}
	require.Equal(t, uint64(1_000_001), sum)
}

// Scenario 6 from spec.md §8: "Rebalance under Defined" — ledger
// {alice:700k, bob:300k}, target 60/40 of 1_000_000 -> one
// redelegation alice->bob of 100_000.
func TestScenario6RebalanceUnderDefined(t *testing.T) {
	current := map[string]uint64{"alice": 700_000, "bob": 300_000}
	target := map[string]uint64{"alice": 600_000, "bob": 400_000}

	plan := Rebalance(current, target, 0)
	require.Len(t, plan.Redelegations, 1)
	require.Equal(t, "alice", plan.Redelegations[0].Src)
	require.Equal(t, "bob", plan.Redelegations[0].Dst)
	require.Equal(t, uint64(100_000), plan.Redelegations[0].Amount)
	require.Equal(t, uint64(100_000), plan.TotalMoved)
}

func TestRebalanceFiltersBelowMinRedelegation(t *testing.T) {
	current := map[string]uint64{"alice": 700_000, "bob": 300_000}
	target := map[string]uint64{"alice": 600_000, "bob": 400_000}

	plan := Rebalance(current, target, 200_000)
	require.Empty(t, plan.Redelegations)
	require.Equal(t, uint64(0), plan.TotalMoved)
}
