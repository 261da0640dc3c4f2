package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/techassets/backend/internal/model"
)

// MemoryAssetRepository is an in-memory AssetRepository.
// Returned records are copies; callers may not mutate stored state.
type MemoryAssetRepository struct {
	mu      sync.RWMutex
	records map[string]*model.AssetRecord // ownerID → record
}

// NewMemoryAssetRepository creates an empty in-memory repository.
func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{records: make(map[string]*model.AssetRecord)}
}

// Ping always succeeds.
func (r *MemoryAssetRepository) Ping(context.Context) error { return nil }

func cloneAsset(a *model.AssetRecord) *model.AssetRecord {
	c := *a
	c.URLs = append([]string{}, a.URLs...)
	return &c
}

func (r *MemoryAssetRepository) FindByOwner(_ context.Context, ownerID string) (*model.AssetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.records[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAsset(a), nil
}

func (r *MemoryAssetRepository) ListByOwner(_ context.Context, ownerID string) ([]*model.AssetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.records[ownerID]
	if !ok {
		return nil, nil
	}
	return []*model.AssetRecord{cloneAsset(a)}, nil
}

func (r *MemoryAssetRepository) AppendURLs(_ context.Context, ownerID string, urls []string, limit int) (*model.AssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	a, ok := r.records[ownerID]
	if !ok {
		if len(urls) > limit {
			return nil, ErrQuotaExceeded
		}
		a = &model.AssetRecord{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: now}
		r.records[ownerID] = a
	} else if len(a.URLs)+len(urls) > limit {
		return nil, ErrQuotaExceeded
	}
	a.URLs = append(a.URLs, urls...)
	a.UpdatedAt = now
	return cloneAsset(a), nil
}

func (r *MemoryAssetRepository) RemoveURL(_ context.Context, ownerID, url string) (*model.AssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.records[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := a.URLs[:0]
	for _, u := range a.URLs {
		if u != url {
			kept = append(kept, u)
		}
	}
	a.URLs = kept
	a.UpdatedAt = time.Now()
	return cloneAsset(a), nil
}

func (r *MemoryAssetRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[ownerID]; !ok {
		return 0, nil
	}
	delete(r.records, ownerID)
	return 1, nil
}

func (r *MemoryAssetRepository) DeleteIfEmpty(_ context.Context, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[ownerID]
	if !ok || len(a.URLs) > 0 {
		return false, nil
	}
	delete(r.records, ownerID)
	return true, nil
}

// MemoryOwnerRepository is an OwnerRepository over a fixed id set.
type MemoryOwnerRepository struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryOwnerRepository registers ids as existing owners.
func NewMemoryOwnerRepository(ids ...string) *MemoryOwnerRepository {
	r := &MemoryOwnerRepository{ids: make(map[string]struct{})}
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

// Add registers id as an existing owner.
func (r *MemoryOwnerRepository) Add(id string) {
	r.mu.Lock()
	r.ids[id] = struct{}{}
	r.mu.Unlock()
}

func (r *MemoryOwnerRepository) Exists(_ context.Context, ownerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[ownerID]
	return ok, nil
}
