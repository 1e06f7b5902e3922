package backend

import (
	"context"

	"docassist-web/internal/shared/storage/cache"
)

// Documents is satisfied by Client and CachedDocuments.
type Documents interface {
	GetDocument(ctx context.Context, id string) (Document, error)
}

// CachedDocuments serves document reads from a cache and collapses concurrent
// misses for the same document into one backend call.
type CachedDocuments struct {
	next  Documents
	cache *cache.Typed[Document]
}

// NewCachedDocuments wraps next with store.
func NewCachedDocuments(next Documents, store *cache.Typed[Document]) *CachedDocuments {
	return &CachedDocuments{next: next, cache: store}
}

func (c *CachedDocuments) GetDocument(ctx context.Context, id string) (Document, error) {
	return c.cache.GetOrLoad(ctx, documentKey(id), func(ctx context.Context) (Document, error) {
		return c.next.GetDocument(ctx, id)
	})
}

// Invalidate drops the cached copy of id, e.g. after a new analysis.
func (c *CachedDocuments) Invalidate(ctx context.Context, id string) error {
	return c.cache.Forget(ctx, documentKey(id))
}

func documentKey(id string) string {
	return "doc:" + id
}
