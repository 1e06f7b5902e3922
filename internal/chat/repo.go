package chat

import "context"

// Repo persists transcripts per user and document.
type Repo interface {
	Append(ctx context.Context, userID, documentID string, msg Message) error
	// List returns up to limit messages, oldest first.
	List(ctx context.Context, userID, documentID string, limit int) ([]Message, error)
	Clear(ctx context.Context, userID, documentID string) error
}
