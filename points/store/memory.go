// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/loop/rewards-engine/points"
)

// MemoryStore is an in-memory points.Store for testing.
// Entries are stored per-user in append order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[points.UserID][]points.LedgerEntry
	wallets map[points.UserID]points.Wallet
	refs    map[string]bool // source + "\x00" + reference
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[points.UserID][]points.LedgerEntry),
		wallets: make(map[points.UserID]points.Wallet),
		refs:    make(map[string]bool),
	}
}

func (m *MemoryStore) AppendEntry(ctx context.Context, e points.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ReferenceID != "" {
		key := string(e.Source) + "\x00" + e.ReferenceID
		if m.refs[key] {
			return points.ErrDuplicateReference
		}
		m.refs[key] = true
	}

	m.entries[e.UserID] = append(m.entries[e.UserID], e)
	w := m.wallets[e.UserID]
	m.wallets[e.UserID] = points.Apply(w, e)
	return nil
}

func (m *MemoryStore) Entries(ctx context.Context, user points.UserID, limit int) ([]points.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.entries[user]
	out := make([]points.LedgerEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- { // newest first
		out = append(out, all[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) EntriesSince(ctx context.Context, user points.UserID, t time.Time) ([]points.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []points.LedgerEntry
	for _, e := range m.entries[user] {
		if !e.CreatedAt.Before(t) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) SumDeltas(ctx context.Context, user points.UserID) (points.Points, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := points.Zero()
	for _, e := range m.entries[user] {
		sum = sum.Add(e.Delta)
	}
	return sum, nil
}

func (m *MemoryStore) Wallet(ctx context.Context, user points.UserID) (points.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if w, ok := m.wallets[user]; ok {
		return w, nil
	}
	return points.Wallet{UserID: user, Balance: points.Zero()}, nil
}

var _ points.Store = (*MemoryStore)(nil)
