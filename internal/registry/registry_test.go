package registry

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
)

func TestSetGetDelete(t *testing.T) {
	m := NewShardedPoolMap()
	key := solana.NewWallet().PublicKey()
	rec := &domain.PoolRecord{Address: key}

	if _, ok := m.Get(key); ok {
		t.Error("empty map returned a record")
	}

	m.Set(key, rec)
	got, ok := m.Get(key)
	if !ok || got != rec {
		t.Errorf("Get returned %v, ok=%v", got, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	m.Delete(key)
	if _, ok := m.Get(key); ok {
		t.Error("record survived delete")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestRangeAndGetAll(t *testing.T) {
	m := NewShardedPoolMap()
	const n = 50

	keys := make(map[solana.PublicKey]bool, n)
	for i := 0; i < n; i++ {
		key := solana.NewWallet().PublicKey()
		keys[key] = true
		m.Set(key, &domain.PoolRecord{Address: key})
	}

	seen := 0
	m.Range(func(key solana.PublicKey, rec *domain.PoolRecord) bool {
		if !keys[key] {
			t.Errorf("Range yielded unknown key %s", key)
		}
		seen++
		return true
	})
	if seen != n {
		t.Errorf("Range visited %d records, want %d", seen, n)
	}

	if got := len(m.GetAll()); got != n {
		t.Errorf("GetAll() = %d records, want %d", got, n)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := NewShardedPoolMap()
	for i := 0; i < 10; i++ {
		key := solana.NewWallet().PublicKey()
		m.Set(key, &domain.PoolRecord{Address: key})
	}

	visited := 0
	m.Range(func(key solana.PublicKey, rec *domain.PoolRecord) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range visited %d records after early stop, want 3", visited)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewShardedPoolMap()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := solana.NewWallet().PublicKey()
				m.Set(key, &domain.PoolRecord{Address: key})
				m.Get(key)
			}
		}()
	}
	wg.Wait()

	if m.Len() != 800 {
		t.Errorf("Len() = %d, want 800", m.Len())
	}
}
