package status

import (
	"hash/fnv"
	"sync"
)

// Store holds the latest known sync status per user, safe for concurrent
// use by request-handling goroutines.
type Store interface {
	// Get returns the stored record for userID, or the default record if
	// the user has never reported status.
	Get(userID string) Record

	// Set atomically replaces the record for userID.
	Set(userID string, rec Record)

	// ClearErrors resets error state for userID as a single atomic
	// read-modify-write and returns the new record. For a user with no
	// prior record it produces the default-healthy record.
	ClearErrors(userID string) Record
}

const defaultShardCount = 32

// shard guards one slice of the user space with its own lock so writes for
// different users rarely contend.
type shard struct {
	mu      sync.RWMutex
	records map[string]Record
}

// ShardedStore implements Store with a fixed set of lock-striped shards
// keyed by a hash of the user ID. A single process-wide write lock would
// serialize all users' updates; striping removes that cross-user contention
// while keeping per-user operations linearized.
type ShardedStore struct {
	shards []*shard
}

var _ Store = (*ShardedStore)(nil)

// NewStore creates a ShardedStore with the default shard count.
func NewStore() *ShardedStore {
	return NewStoreWithShards(defaultShardCount)
}

// NewStoreWithShards creates a ShardedStore with n shards. n must be at
// least 1.
func NewStoreWithShards(n int) *ShardedStore {
	if n < 1 {
		n = 1
	}
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{records: make(map[string]Record)}
	}
	return &ShardedStore{shards: shards}
}

func (s *ShardedStore) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns the stored record for userID, or the default record.
func (s *ShardedStore) Get(userID string) Record {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[userID]
	if !ok {
		return DefaultRecord()
	}
	return rec
}

// Set atomically replaces the record for userID.
func (s *ShardedStore) Set(userID string, rec Record) {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.records[userID] = rec
}

// ClearErrors resets error state for userID under a single critical
// section. Holding the write lock across the read and the write prevents a
// concurrent Set from being lost between them.
func (s *ShardedStore) ClearErrors(userID string) Record {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// Absent users read as the zero record, which clears to the
	// default-healthy record.
	cleared := sh.records[userID].cleared()
	sh.records[userID] = cleared
	return cleared
}

// Snapshot copies every stored record into a single map. Each shard is
// locked in turn, so the result is per-shard consistent rather than a
// point-in-time view of the whole store.
func (s *ShardedStore) Snapshot() map[string]Record {
	out := make(map[string]Record)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, rec := range sh.records {
			out[id] = rec
		}
		sh.mu.RUnlock()
	}
	return out
}

// Restore replaces stored records with the given set. Intended for loading
// a saved snapshot at startup, before the store receives traffic.
func (s *ShardedStore) Restore(records map[string]Record) {
	for id, rec := range records {
		s.Set(id, rec)
	}
}
