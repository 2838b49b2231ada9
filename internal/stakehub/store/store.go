package store

import (
	"encoding/json"
	"sort"

	"github.com/erisprotocol/alliancehub/internal/stakehub/batch"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubconfig"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/tune"
)

// StakeToken is the singleton share-accounting state (spec.md §3).
type StakeToken struct {
	UtokenDenom       string
	StakeDenom        string
	TotalSupply       uint64
	TotalUtokenBonded uint64
}

// UnlockedCoins is the singleton list of not-yet-reinvested balances,
// deduplicated by denom (spec.md §3).
type UnlockedCoins map[string]uint64

// Store is the typed facade over a KV, grounded on the teacher's
// vms/platformvm/state.state prefix-keyed accessors. Every method reads
// or writes exactly one logical piece of state; the orchestrator (Hub)
// is responsible for read-mutate-write sequencing and for committing
// everything a single transition touches.
//
// Values are serialized with encoding/json: the teacher's own wire
// codec (vms/.../codec) is a hand-rolled reflection-based binary codec
// whose package body wasn't present in the retrieval pack, and no
// third-party serialization library appears in the teacher's or the
// pack's go.mod (the pack's wire formats are either protobuf-generated
// .pb.go, out of scope here, or this same hand-rolled codec) — so JSON
// is the narrowest faithful stand-in rather than a reach for something
// unjustified.
type Store struct {
	kv KV
}

// New wraps kv in a Store.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) getJSON(key []byte, out interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	return true, json.Unmarshal(raw, out)
}

func (s *Store) putJSON(key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Put(key, raw)
}

// Config loads the hub's configuration.
func (s *Store) Config() (hubconfig.Config, bool, error) {
	var c hubconfig.Config
	ok, err := s.getJSON(keyConfig, &c)
	return c, ok, err
}

// SaveConfig persists the hub's configuration.
func (s *Store) SaveConfig(c hubconfig.Config) error {
	return s.putJSON(keyConfig, c)
}

// StakeToken loads the share-accounting singleton.
func (s *Store) StakeToken() (StakeToken, bool, error) {
	var st StakeToken
	ok, err := s.getJSON(keyStakeToken, &st)
	return st, ok, err
}

// SaveStakeToken persists the share-accounting singleton.
func (s *Store) SaveStakeToken(st StakeToken) error {
	return s.putJSON(keyStakeToken, st)
}

// Delegations loads the validator delegation ledger.
func (s *Store) Delegations() (ledger.Ledger, bool, error) {
	var m map[string]uint64
	ok, err := s.getJSON(keyDelegations, &m)
	if err != nil || !ok {
		return ledger.New(), ok, err
	}
	return ledger.FromMap(m), true, nil
}

// SaveDelegations persists the validator delegation ledger.
func (s *Store) SaveDelegations(l ledger.Ledger) error {
	return s.putJSON(keyDelegations, l.ToMap())
}

// PendingBatch loads the single open unbond-redemption queue.
func (s *Store) PendingBatch() (batch.Pending, bool, error) {
	var p batch.Pending
	ok, err := s.getJSON(keyPendingBatch, &p)
	return p, ok, err
}

// SavePendingBatch persists the pending batch.
func (s *Store) SavePendingBatch(p batch.Pending) error {
	return s.putJSON(keyPendingBatch, p)
}

// PreviousBatch loads one frozen batch by id.
func (s *Store) PreviousBatch(id uint64) (batch.Previous, bool, error) {
	var b batch.Previous
	ok, err := s.getJSON(previousBatchKey(id), &b)
	return b, ok, err
}

// SavePreviousBatch persists a frozen batch.
func (s *Store) SavePreviousBatch(b batch.Previous) error {
	return s.putJSON(previousBatchKey(b.ID), b)
}

// DeletePreviousBatch removes a frozen batch once every shareholder has
// withdrawn (spec.md I3).
func (s *Store) DeletePreviousBatch(id uint64) error {
	return s.kv.Delete(previousBatchKey(id))
}

// PreviousBatches lists frozen batches with ID greater than startAfter,
// in ascending id order, returning at most limit (spec.md
// PreviousBatches(start_after, limit) query). limit == 0 means
// unlimited.
func (s *Store) PreviousBatches(startAfter uint64, limit int) ([]batch.Previous, error) {
	var out []batch.Previous
	err := s.kv.Iterate(prefixPreviousBatch, func(_, value []byte) bool {
		var b batch.Previous
		if err := json.Unmarshal(value, &b); err != nil {
			return true
		}
		if b.ID > startAfter {
			out = append(out, b)
		}
		return limit == 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AllPreviousBatches returns every stored frozen batch, in ascending id
// order — used by Reconcile/MaturedUnreconciled scans.
func (s *Store) AllPreviousBatches() ([]batch.Previous, error) {
	return s.PreviousBatches(0, 0)
}

// UnbondRequest loads one user's claim against a batch.
func (s *Store) UnbondRequest(batchID uint64, user string) (batch.UnbondRequest, bool, error) {
	var r batch.UnbondRequest
	ok, err := s.getJSON(unbondByBatchKey(batchID, user), &r)
	return r, ok, err
}

// SaveUnbondRequest persists a claim and keeps the by-user secondary
// index in sync (spec.md §3's "secondary index by user"), matching the
// teacher's pattern of updating a primary record and its index entry
// together rather than deriving the index lazily.
func (s *Store) SaveUnbondRequest(r batch.UnbondRequest) error {
	if err := s.putJSON(unbondByBatchKey(r.BatchID, r.User), r); err != nil {
		return err
	}
	return s.putJSON(unbondByUserKey(r.User, r.BatchID), r)
}

// DeleteUnbondRequest removes a claim from both the primary key and the
// by-user index.
func (s *Store) DeleteUnbondRequest(batchID uint64, user string) error {
	if err := s.kv.Delete(unbondByBatchKey(batchID, user)); err != nil {
		return err
	}
	return s.kv.Delete(unbondByUserKey(user, batchID))
}

// UnbondRequestsByBatch lists every claim against one batch (spec.md
// UnbondRequestsByBatch query).
func (s *Store) UnbondRequestsByBatch(batchID uint64) ([]batch.UnbondRequest, error) {
	var out []batch.UnbondRequest
	err := s.kv.Iterate(unbondByBatchPrefix(batchID), func(_, value []byte) bool {
		var r batch.UnbondRequest
		if err := json.Unmarshal(value, &r); err == nil {
			out = append(out, r)
		}
		return true
	})
	return out, err
}

// UnbondRequestsByUser lists every claim a user has across all batches
// (spec.md UnbondRequestsByUser query), via the by-user secondary
// index.
func (s *Store) UnbondRequestsByUser(user string) ([]batch.UnbondRequest, error) {
	var out []batch.UnbondRequest
	err := s.kv.Iterate(unbondByUserPrefix(user), func(_, value []byte) bool {
		var r batch.UnbondRequest
		if err := json.Unmarshal(value, &r); err == nil {
			out = append(out, r)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, err
}

// UnlockedCoins loads the not-yet-reinvested balance set.
func (s *Store) UnlockedCoins() (UnlockedCoins, bool, error) {
	var u UnlockedCoins
	ok, err := s.getJSON(keyUnlockedCoins, &u)
	if u == nil {
		u = UnlockedCoins{}
	}
	return u, ok, err
}

// SaveUnlockedCoins persists the not-yet-reinvested balance set.
func (s *Store) SaveUnlockedCoins(u UnlockedCoins) error {
	return s.putJSON(keyUnlockedCoins, u)
}

// DelegationGoal loads the tune control loop's saved target split, if
// any (component F).
func (s *Store) DelegationGoal() (tune.Goal, bool, error) {
	var g tune.Goal
	ok, err := s.getJSON(keyDelegationGoal, &g)
	return g, ok, err
}

// SaveDelegationGoal persists a live goal.
func (s *Store) SaveDelegationGoal(g tune.Goal) error {
	return s.putJSON(keyDelegationGoal, g)
}

// ClearDelegationGoal removes the goal (Tune's empty-gauge-result path).
func (s *Store) ClearDelegationGoal() error {
	return s.kv.Delete(keyDelegationGoal)
}

// RecordExchangeRate appends an (timestamp, rate) point to the exchange
// history, keyed so ExchangeRates' range scan is a plain prefix
// iteration in chronological order (spec.md ExchangeHistory).
func (s *Store) RecordExchangeRate(timestamp int64, rateNumerator, rateDenominator uint64) error {
	return s.putJSON(exchangeRateKey(timestamp), [2]uint64{rateNumerator, rateDenominator})
}

// ExchangeRatePoint is one recorded (timestamp, bonded/supply) sample.
type ExchangeRatePoint struct {
	Timestamp       int64
	RateNumerator   uint64
	RateDenominator uint64
}

// ExchangeRates returns every recorded sample with from <= timestamp <=
// to, in ascending order (spec.md ExchangeRates(range) query).
func (s *Store) ExchangeRates(from, to int64) ([]ExchangeRatePoint, error) {
	var out []ExchangeRatePoint
	err := s.kv.Iterate(prefixExchangeRate, func(key, value []byte) bool {
		ts, derr := decodeUint64(key[len(prefixExchangeRate):])
		if derr != nil {
			return true
		}
		timestamp := int64(ts)
		if timestamp < from || timestamp > to {
			return true
		}
		var pair [2]uint64
		if err := json.Unmarshal(value, &pair); err == nil {
			out = append(out, ExchangeRatePoint{Timestamp: timestamp, RateNumerator: pair[0], RateDenominator: pair[1]})
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, err
}
