package generated

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores generated documents in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Document
	byUser map[string][]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Document),
		byUser: make(map[string][]Document),
	}
}

// Create stores the document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[doc.ID] = doc
	r.byUser[doc.UserID] = append(r.byUser[doc.UserID], doc)
	return nil
}

// GetByID returns a document by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if doc.UserID != userID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// ListByUser returns a user's documents newest first. An empty documentID
// lists across all source documents.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID, documentID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.byUser[userID] {
		if documentID == "" || doc.DocumentID == documentID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
