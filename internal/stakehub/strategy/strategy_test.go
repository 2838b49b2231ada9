package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniformPicksSmallest(t *testing.T) {
	s := Strategy{Kind: Uniform}
	v, err := s.PickBondTarget([]string{"a", "b", "c"}, map[string]uint64{"a": 5, "b": 2, "c": 9})
	require.NoError(t, err)
	require.Equal(t, "b", v)
}

func TestUniformFirstWinsOnTie(t *testing.T) {
	s := Strategy{Kind: Uniform}
	v, err := s.PickBondTarget([]string{"a", "b", "c"}, map[string]uint64{"a": 5, "b": 5, "c": 5})
	require.NoError(t, err)
	require.Equal(t, "a", v)
}

func TestDefinedValidateSumMismatch(t *testing.T) {
	s := Strategy{Kind: Defined, Defined: map[string]uint64{"alice": 6000, "bob": 3999}}
	err := s.Validate([]string{"alice", "bob"})
	require.Error(t, err)
}

func TestDefinedValidateUnknownValidator(t *testing.T) {
	s := Strategy{Kind: Defined, Defined: map[string]uint64{"alice": 6000, "ghost": 4000}}
	err := s.Validate([]string{"alice", "bob"})
	require.Error(t, err)
}

func TestDefinedValidateOK(t *testing.T) {
	s := Strategy{Kind: Defined, Defined: map[string]uint64{"alice": 6000, "bob": 4000}}
	require.NoError(t, s.Validate([]string{"alice", "bob"}))
}

// Scenario 2 from spec.md §8: Defined split {alice:6000, bob:4000},
// current {alice:600_000, bob:400_000}, bond 12_043 -> alice (diff 7225
// > bob's 4817).
func TestFindNewDelegationDefinedPartial(t *testing.T) {
	shares := map[string]uint64{"alice": 6000, "bob": 4000}
	current := map[string]uint64{"alice": 600_000, "bob": 400_000}
	v, err := FindNewDelegation(shares, []string{"alice", "bob"}, current, 1_000_000, 12_043)
	require.NoError(t, err)
	require.Equal(t, "alice", v)
}

func TestFindNewDelegationEmptyCurrentReturnsFirstWhitelisted(t *testing.T) {
	shares := map[string]uint64{"alice": 6000, "bob": 4000}
	v, err := FindNewDelegation(shares, []string{"bob", "alice"}, map[string]uint64{}, 0, 1000)
	require.NoError(t, err)
	require.Equal(t, "bob", v)
}
