package generated

import "context"

// Repo defines persistence operations for generated documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, id string) (Document, error)
	ListByUser(ctx context.Context, userID, documentID string, limit, offset int) ([]Document, error)
}
