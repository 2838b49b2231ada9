package store

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes, mirroring the teacher's single-byte-slice prefix
// constants in vms/platformvm/state/state.go (blockPrefix,
// validatorsPrefix, ...).
var (
	keyConfig           = []byte("config")
	keyStakeToken       = []byte("stake_token")
	keyDelegations      = []byte("delegations")
	keyPendingBatch     = []byte("pending_batch")
	keyUnlockedCoins    = []byte("unlocked_coins")
	keyDelegationGoal   = []byte("delegation_goal")
	prefixPreviousBatch = []byte("previous_batch/")
	prefixUnbondByBatch = []byte("unbond_by_batch/")
	prefixUnbondByUser  = []byte("unbond_by_user/")
	prefixExchangeRate  = []byte("exchange_rate/")
)

func previousBatchKey(id uint64) []byte {
	return append(append([]byte{}, prefixPreviousBatch...), encodeUint64(id)...)
}

// unbondByBatchKey indexes an UnbondRequest primarily by batch,
// matching original_source's `unbond_requests` primary key (id, user).
func unbondByBatchKey(batchID uint64, user string) []byte {
	k := append(append([]byte{}, prefixUnbondByBatch...), encodeUint64(batchID)...)
	return append(append(k, '/'), []byte(user)...)
}

// unbondByUserKey is the secondary index entry keyed (user, batch),
// matching original_source's `unbond_requests.idx.user` MultiIndex.
func unbondByUserKey(user string, batchID uint64) []byte {
	k := append(append([]byte{}, prefixUnbondByUser...), []byte(user)...)
	return append(append(k, '/'), encodeUint64(batchID)...)
}

func unbondByBatchPrefix(batchID uint64) []byte {
	k := append(append([]byte{}, prefixUnbondByBatch...), encodeUint64(batchID)...)
	return append(k, '/')
}

// unbondByUserPrefix includes the trailing separator so one user's
// prefix can't spuriously match a different user whose name it is a
// prefix of (e.g. "al" vs "alice").
func unbondByUserPrefix(user string) []byte {
	k := append(append([]byte{}, prefixUnbondByUser...), []byte(user)...)
	return append(k, '/')
}

func exchangeRateKey(timestamp int64) []byte {
	return append(append([]byte{}, prefixExchangeRate...), encodeUint64(uint64(timestamp))...)
}

// encodeUint64 big-endian-encodes v so lexical byte order matches
// numeric order, letting Iterate's ascending scan double as a sorted
// range scan (the teacher relies on the same property for its
// by-start/by-end-time txheap ordering).
func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("store: malformed uint64 key component, want 8 bytes got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
