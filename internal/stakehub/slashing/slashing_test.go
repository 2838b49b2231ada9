package slashing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
)

func newLedger(t *testing.T, amounts map[string]uint64) ledger.Ledger {
	t.Helper()
	return ledger.FromMap(amounts)
}

func TestCheckAcceptsExactMatch(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	current := []ledger.Delegation{{Validator: "alice", Amount: 600_000}, {Validator: "bob", Amount: 400_000}}

	result, err := Check(old, current, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), result.OldUtokenBonded)
	require.Equal(t, uint64(1_000_000), result.NewUtokenBonded)
	require.Equal(t, uint64(600_000), result.Ledger.Get("alice"))
}

func TestCheckAcceptsMinorSlashWithinSanityCap(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	// 960_000 / 1_000_000 = 96% >= 95% floor: accepted.
	current := []ledger.Delegation{{Validator: "alice", Amount: 576_000}, {Validator: "bob", Amount: 384_000}}

	result, err := Check(old, current, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(960_000), result.NewUtokenBonded)
}

func TestCheckRejectsBigSlash(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	// 900_000 / 1_000_000 = 90% < 95% floor: rejected as likely a bad read.
	current := []ledger.Delegation{{Validator: "alice", Amount: 540_000}, {Validator: "bob", Amount: 360_000}}

	_, err := Check(old, current, 1_000_000)
	require.ErrorIs(t, err, hubtypes.ErrSlashTooLarge)
}

func TestCheckRejectsStaleTotalUtokenBonded(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	current := []ledger.Delegation{{Validator: "alice", Amount: 600_000}, {Validator: "bob", Amount: 400_000}}

	_, err := Check(old, current, 999_999)
	require.ErrorIs(t, err, hubtypes.ErrStateChanged)
}

func TestCheckRejectsValidatorCountMismatch(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	current := []ledger.Delegation{{Validator: "alice", Amount: 1_000_000}}

	_, err := Check(old, current, 1_000_000)
	require.ErrorIs(t, err, hubtypes.ErrStateChanged)
}

func TestCheckReplacesWholesaleNotMerge(t *testing.T) {
	old := newLedger(t, map[string]uint64{"alice": 600_000, "bob": 400_000})
	current := []ledger.Delegation{{Validator: "alice", Amount: 500_000}, {Validator: "carol", Amount: 500_000}}

	result, err := Check(old, current, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(0), result.Ledger.Get("bob"))
	require.Equal(t, uint64(500_000), result.Ledger.Get("carol"))
}
