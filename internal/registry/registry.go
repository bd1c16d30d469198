package registry

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
)

const numShards = 16

// ShardedPoolMap holds every tracked pool record, sharded to reduce lock
// contention between read traffic and operation traffic.
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey]*domain.PoolRecord
}

// NewShardedPoolMap creates an empty registry.
func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[solana.PublicKey]*domain.PoolRecord)
	}
	return m
}

// getShard returns the shard for a given key. First byte of the public key,
// simple and fast.
func (m *ShardedPoolMap) getShard(key solana.PublicKey) *poolShard {
	return &m.shards[key[0]%numShards]
}

// Get retrieves a pool record by address.
func (m *ShardedPoolMap) Get(key solana.PublicKey) (*domain.PoolRecord, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	rec, ok := shard.pools[key]
	shard.mu.RUnlock()
	return rec, ok
}

// Set stores a pool record.
func (m *ShardedPoolMap) Set(key solana.PublicKey, rec *domain.PoolRecord) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.pools[key] = rec
	shard.mu.Unlock()
}

// Delete removes a pool record.
func (m *ShardedPoolMap) Delete(key solana.PublicKey) {
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.pools, key)
	shard.mu.Unlock()
}

// Len returns the total count across all shards.
func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all pool records, locking one shard at a time.
func (m *ShardedPoolMap) Range(f func(key solana.PublicKey, rec *domain.PoolRecord) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].pools {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}

// GetAll returns all pool records as a slice.
func (m *ShardedPoolMap) GetAll() []*domain.PoolRecord {
	result := make([]*domain.PoolRecord, 0, m.Len())
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for _, rec := range m.shards[i].pools {
			result = append(result, rec)
		}
		m.shards[i].mu.RUnlock()
	}
	return result
}
