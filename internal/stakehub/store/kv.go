// Package store implements the typed state accessors over a keyed byte
// store (spec.md §4.H), grounded on the teacher's
// vms/platformvm/state/state.go prefix-keyed singleton/collection
// accessors. The byte-store interface below is a minimal rendition of
// the teacher's database.Database (Get/Put/Delete/iteration); the full
// database package (prefixdb/versiondb/memdb) wasn't present in the
// retrieval pack to import directly, so this package provides both an
// in-memory KV for tests and a github.com/syndtr/goleveldb-backed one
// for a real deployment, matching the teacher's own choice of engine
// (syndtr/goleveldb is a direct dependency of vms/platformvm/state's
// callers in the teacher's go.mod).
package store

import (
	"bytes"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KV is the minimal byte-store contract the Store facade needs: point
// reads/writes/deletes and a prefix scan. Shaped after the teacher's
// database.Database/database.Iterator pair.
type KV interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Iterate calls fn for every key with the given prefix, in
	// ascending key order, until fn returns false or all matches are
	// exhausted.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// MemKV is an in-memory KV, safe for concurrent use. Intended for tests
// and for embedding callers that don't need durability.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemKV returns an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *MemKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemKV) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		m.mu.RLock()
		v, ok := m.data[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		cp := make([]byte, len(v))
		copy(cp, v)
		if !fn([]byte(k), cp) {
			break
		}
	}
	return nil
}

func (m *MemKV) Close() error { return nil }

// LevelDBKV wraps a *leveldb.DB for a durable on-disk backend.
type LevelDBKV struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a goleveldb database at path.
func OpenLevelDB(path string) (*LevelDBKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBKV{db: db}, nil
}

func (l *LevelDBKV) Get(key []byte) ([]byte, bool, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (l *LevelDBKV) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDBKV) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDBKV) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return it.Error()
}

func (l *LevelDBKV) Close() error {
	return l.db.Close()
}
