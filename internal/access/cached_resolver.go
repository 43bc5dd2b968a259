package access

import (
	"context"
	"sync"
	"time"
)

// sweepAt is the entry count above which a store also evicts expired entries.
const sweepAt = 1024

// CachedResolver memoizes the payroll profile of each session user for ttl,
// so the permission checks in front of every /api/paie route do not reload
// the profile and its permissions. A nil profile (unknown user or no profile
// assigned) is cached as well. A ttl of zero or less disables caching.
//
// Invalidate and InvalidateAll bump a generation counter; a lookup that was
// already in flight when it changed is returned but not stored.
type CachedResolver[U comparable] struct {
	inner Resolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	profiles map[U]sessionProfile
	gen      uint64
}

type sessionProfile struct {
	profile Profile
	until   time.Time
}

func NewCachedResolver[U comparable](inner Resolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner:    inner,
		ttl:      ttl,
		now:      time.Now,
		profiles: make(map[U]sessionProfile),
	}
}

func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	if r.ttl <= 0 {
		return r.inner.Resolve(ctx, user)
	}

	r.mu.RLock()
	sp, ok := r.profiles[user]
	gen := r.gen
	r.mu.RUnlock()
	if ok && r.now().Before(sp.until) {
		return sp.profile, nil
	}

	p, err := r.inner.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return p, nil
	}
	now := r.now()
	if len(r.profiles) >= sweepAt {
		for u, e := range r.profiles {
			if !now.Before(e.until) {
				delete(r.profiles, u)
			}
		}
	}
	r.profiles[user] = sessionProfile{profile: p, until: now.Add(r.ttl)}
	return p, nil
}

// Invalidate forgets one user's profile after it was reassigned.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.profiles, user)
	r.gen++
	r.mu.Unlock()
}

// InvalidateAll forgets every profile after a permission set changed.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	clear(r.profiles)
	r.gen++
	r.mu.Unlock()
}
