package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/pkg/cache"
)

// CacheSnapshotStore keeps the latest snapshot per symbol in a cache.Service.
type CacheSnapshotStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewCacheSnapshotStore(c cache.Service, ttl time.Duration) *CacheSnapshotStore {
	return &CacheSnapshotStore{cache: c, ttl: ttl}
}

func snapshotKey(symbol string) string {
	return cache.Key("snapshot", symbol)
}

func (s *CacheSnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	if err := s.cache.Set(ctx, snapshotKey(snap.Symbol), snap, s.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *CacheSnapshotStore) Load(ctx context.Context, symbol string) (models.Snapshot, error) {
	var snap models.Snapshot
	err := s.cache.Get(ctx, snapshotKey(symbol), &snap)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.Snapshot{}, drepo.ErrSnapshotNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

var _ drepo.SnapshotStore = (*CacheSnapshotStore)(nil)
