package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erisprotocol/alliancehub/internal/stakehub/batch"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubconfig"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(NewMemKV())
}

func TestStakeTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.StakeToken()
	require.NoError(t, err)
	require.False(t, ok)

	st := StakeToken{UtokenDenom: "uluna", StakeDenom: "ustake", TotalSupply: 1_000_000, TotalUtokenBonded: 1_025_000}
	require.NoError(t, s.SaveStakeToken(st))

	got, ok, err := s.StakeToken()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, st, got)
}

func TestDelegationsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	l := ledger.New().Delegate(ledger.Delegation{Validator: "alice", Amount: 600_000}).Delegate(ledger.Delegation{Validator: "bob", Amount: 400_000})
	require.NoError(t, s.SaveDelegations(l))

	got, ok, err := s.Delegations()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(600_000), got.Get("alice"))
	require.Equal(t, uint64(400_000), got.Get("bob"))
}

func TestPreviousBatchesListAndDelete(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []uint64{3, 1, 2} {
		require.NoError(t, s.SavePreviousBatch(batch.Previous{ID: id, TotalShares: id * 100}))
	}

	all, err := s.AllPreviousBatches()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	page, err := s.PreviousBatches(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, uint64(2), page[0].ID)

	require.NoError(t, s.DeletePreviousBatch(2))
	all, err = s.AllPreviousBatches()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUnbondRequestIndexedByBatchAndUser(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveUnbondRequest(batch.UnbondRequest{BatchID: 1, User: "alice", Shares: 60}))
	require.NoError(t, s.SaveUnbondRequest(batch.UnbondRequest{BatchID: 1, User: "bob", Shares: 40}))
	require.NoError(t, s.SaveUnbondRequest(batch.UnbondRequest{BatchID: 2, User: "alice", Shares: 10}))

	byBatch, err := s.UnbondRequestsByBatch(1)
	require.NoError(t, err)
	require.Len(t, byBatch, 2)

	byUser, err := s.UnbondRequestsByUser("alice")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	require.Equal(t, uint64(1), byUser[0].BatchID)
	require.Equal(t, uint64(2), byUser[1].BatchID)

	require.NoError(t, s.DeleteUnbondRequest(1, "alice"))
	byBatch, err = s.UnbondRequestsByBatch(1)
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	byUser, err = s.UnbondRequestsByUser("alice")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
}

func TestExchangeRatesRangeQuery(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.RecordExchangeRate(100, 1_000_000, 1_000_000))
	require.NoError(t, s.RecordExchangeRate(200, 1_025_000, 1_000_000))
	require.NoError(t, s.RecordExchangeRate(300, 1_050_000, 1_000_000))

	points, err := s.ExchangeRates(150, 250)
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Equal(t, int64(200), points[0].Timestamp)

	all, err := s.ExchangeRates(0, 1_000)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(100), all[0].Timestamp)
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cfg := hubconfig.Config{Owner: "owner", Operator: "operator", EpochPeriod: 259_200}
	require.NoError(t, s.SaveConfig(cfg))

	got, ok, err := s.Config()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg, got)
}

func TestUnlockedCoinsDefaultsEmpty(t *testing.T) {
	s := newTestStore(t)
	u, ok, err := s.UnlockedCoins()
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, u)
}
