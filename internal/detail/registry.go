package detail

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"docassist-web/internal/shared/telemetry"
)

// DefaultIdleTimeout is how long an untouched view is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Factory builds a view for a user and document.
type Factory func(userID, documentID string) *View

// Registry keeps one view per user and document. Views expire after an idle
// period; an expired or removed view is closed.
type Registry struct {
	factory Factory
	idle    time.Duration
	views   *gocache.Cache

	// mu makes lookup-or-create atomic so concurrent first requests share
	// one view.
	mu sync.Mutex
	// mounts collapses concurrent first mounts of the same view.
	mounts singleflight.Group
}

// NewRegistry creates a registry. A non-positive idle uses DefaultIdleTimeout.
func NewRegistry(factory Factory, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	cleanup := idle / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	r := &Registry{
		factory: factory,
		idle:    idle,
		views:   gocache.New(idle, cleanup),
	}
	r.views.OnEvicted(func(key string, value any) {
		if v, ok := value.(*View); ok {
			v.Close()
			telemetry.Info("detail.view_evicted", map[string]any{"view": key})
		}
	})
	return r
}

// Key identifies the view of userID on documentID.
func Key(userID, documentID string) string {
	return userID + "|" + documentID
}

// Get returns the view for userID and documentID, creating and mounting it
// on first use. Every call extends the idle period. A view whose first mount
// fails is dropped again.
func (r *Registry) Get(ctx context.Context, userID, documentID string) (*View, error) {
	key := Key(userID, documentID)

	r.mu.Lock()
	var v *View
	val, found := r.views.Get(key)
	if found {
		v = val.(*View)
	} else {
		// An expired view stays in the map until the next sweep and Set
		// would replace it without eviction. Delete runs OnEvicted.
		r.views.Delete(key)
		v = r.factory(userID, documentID)
	}
	r.views.Set(key, v, gocache.DefaultExpiration)
	r.mu.Unlock()

	if v.Mounted() {
		return v, nil
	}
	_, err, _ := r.mounts.Do(key, func() (any, error) {
		if v.Mounted() {
			return nil, nil
		}
		return nil, v.Mount(ctx)
	})
	if err != nil {
		r.mu.Lock()
		if cur, ok := r.views.Get(key); ok && cur == v {
			r.views.Delete(key)
		}
		r.mu.Unlock()
		return nil, err
	}
	return v, nil
}

// Lookup returns an existing view without creating one.
func (r *Registry) Lookup(userID, documentID string) (*View, bool) {
	val, ok := r.views.Get(Key(userID, documentID))
	if !ok {
		return nil, false
	}
	return val.(*View), true
}

// Remove closes and forgets a view.
func (r *Registry) Remove(userID, documentID string) {
	r.views.Delete(Key(userID, documentID))
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	return r.views.ItemCount()
}

// Sweep evicts expired views now.
func (r *Registry) Sweep() {
	r.views.DeleteExpired()
}

// Close closes every view, including expired ones not yet swept.
func (r *Registry) Close() {
	r.views.DeleteExpired()
	for key := range r.views.Items() {
		r.views.Delete(key)
	}
}

// Run sweeps every interval until ctx is done, then closes all views.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
