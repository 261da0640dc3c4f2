package repository

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedOwnerRepository は OwnerRepository の存在確認結果をキャッシュする。
// 「存在する」結果だけを ttl の間保持し、「存在しない」は毎回問い合わせる。
type CachedOwnerRepository struct {
	delegate OwnerRepository
	cache    *lru.Cache[string, time.Time]
	ttl      time.Duration
	now      func() time.Time
}

// NewCachedOwnerRepository wraps delegate. size <= 0 returns delegate unwrapped.
func NewCachedOwnerRepository(delegate OwnerRepository, size int, ttl time.Duration) (OwnerRepository, error) {
	if size <= 0 || ttl <= 0 {
		return delegate, nil
	}
	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &CachedOwnerRepository{delegate: delegate, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (r *CachedOwnerRepository) Exists(ctx context.Context, ownerID string) (bool, error) {
	if storedAt, ok := r.cache.Get(ownerID); ok {
		if r.now().Sub(storedAt) < r.ttl {
			return true, nil
		}
		r.cache.Remove(ownerID)
	}
	ok, err := r.delegate.Exists(ctx, ownerID)
	if err != nil || !ok {
		return ok, err
	}
	r.cache.Add(ownerID, r.now())
	return true, nil
}
