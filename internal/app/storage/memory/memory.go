// Package memory provides a thread-safe in-memory implementation of the
// storage interfaces. It is intended for tests and prototyping and
// deliberately keeps the implementation simple.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgelight-labs/campaign_layer/internal/app/domain/registry"
)

// Store is an in-memory registry store.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]registry.Snapshot
	receipts  map[string][]registry.Receipt // keyed by campaign address
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]registry.Snapshot),
		receipts:  make(map[string][]registry.Receipt),
	}
}

// CampaignStore implementation ------------------------------------------------

func (s *Store) UpsertSnapshot(_ context.Context, snap registry.Snapshot) (registry.Snapshot, error) {
	if snap.Address == "" {
		return registry.Snapshot{}, fmt.Errorf("snapshot address required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.snapshots[snap.Address]; ok {
		snap.CreatedAt = existing.CreatedAt
	} else {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now

	s.snapshots[snap.Address] = snap
	return snap, nil
}

func (s *Store) GetSnapshot(_ context.Context, address string) (registry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[address]
	if !ok {
		return registry.Snapshot{}, fmt.Errorf("campaign %s not found", address)
	}
	return snap, nil
}

func (s *Store) ListSnapshots(_ context.Context) ([]registry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]registry.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		result = append(result, snap)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })
	return result, nil
}

// ReceiptStore implementation -------------------------------------------------

func (s *Store) CreateReceipt(_ context.Context, rec registry.Receipt) (registry.Receipt, error) {
	if rec.CampaignAddress == "" {
		return registry.Receipt{}, fmt.Errorf("receipt campaign address required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	s.receipts[rec.CampaignAddress] = append(s.receipts[rec.CampaignAddress], rec)
	return rec, nil
}

func (s *Store) ListReceipts(_ context.Context, campaignAddress string) ([]registry.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := s.receipts[campaignAddress]
	result := make([]registry.Receipt, len(receipts))
	copy(result, receipts)
	return result, nil
}
