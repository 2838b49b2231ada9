package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
)

func TestDelegateAccumulates(t *testing.T) {
	l := New()
	l = l.Delegate(Delegation{Validator: "a", Amount: 100})
	l = l.Delegate(Delegation{Validator: "a", Amount: 50})
	require.Equal(t, uint64(150), l.Get("a"))
	require.Equal(t, uint64(150), l.Sum())
}

func TestUndelegateInsufficientBalance(t *testing.T) {
	l := New().Delegate(Delegation{Validator: "a", Amount: 10})
	_, err := l.Undelegate([]Delegation{{Validator: "a", Amount: 20}})
	require.ErrorIs(t, err, hubtypes.ErrInsufficientBalance)
}

func TestUndelegateUnknownValidator(t *testing.T) {
	l := New()
	_, err := l.Undelegate([]Delegation{{Validator: "ghost", Amount: 1}})
	require.ErrorIs(t, err, hubtypes.ErrValidatorNotFound)
}

func TestUndelegateIsAtomicAcrossEntries(t *testing.T) {
	l := New().Delegate(Delegation{Validator: "a", Amount: 100}).Delegate(Delegation{Validator: "b", Amount: 5})
	_, err := l.Undelegate([]Delegation{
		{Validator: "a", Amount: 10},
		{Validator: "b", Amount: 10}, // fails: only 5 available
	})
	require.Error(t, err)
	// original ledger must be unchanged
	require.Equal(t, uint64(100), l.Get("a"))
	require.Equal(t, uint64(5), l.Get("b"))
}

func TestRedelegateMovesAtomically(t *testing.T) {
	l := New().Delegate(Delegation{Validator: "alice", Amount: 700_000}).Delegate(Delegation{Validator: "bob", Amount: 300_000})
	l2, err := l.Redelegate([]Redelegation{{Src: "alice", Dst: "bob", Amount: 100_000}})
	require.NoError(t, err)
	require.Equal(t, uint64(600_000), l2.Get("alice"))
	require.Equal(t, uint64(400_000), l2.Get("bob"))
	// original untouched
	require.Equal(t, uint64(700_000), l.Get("alice"))
}

func TestZeroedEntriesRetainedButExcludedFromNothingSpecial(t *testing.T) {
	l := New().Delegate(Delegation{Validator: "a", Amount: 10})
	l, err := l.Undelegate([]Delegation{{Validator: "a", Amount: 10}})
	require.NoError(t, err)
	require.Equal(t, uint64(0), l.Get("a"))
	require.Equal(t, 1, l.Len())
	require.Equal(t, uint64(0), l.Sum())
}
