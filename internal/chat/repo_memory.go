package chat

import (
	"context"
	"sync"
)

// MemoryRepo stores transcripts in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byKey map[string][]Message
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byKey: make(map[string][]Message)}
}

func (r *MemoryRepo) Append(ctx context.Context, userID, documentID string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "\x00" + documentID
	r.byKey[key] = append(r.byKey[key], msg)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, userID, documentID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.byKey[userID+"\x00"+documentID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *MemoryRepo) Clear(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, userID+"\x00"+documentID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
