package generated

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, document_id, recommendation_id, title, file_name, mime_type, size_bytes, storage_key, created_at`

// Create inserts a generated document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO generated_documents (
    id, user_id, document_id, recommendation_id, title, file_name, mime_type, size_bytes, storage_key, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.DocumentID,
		doc.RecommendationID,
		doc.Title,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a generated document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Document, error) {
	query := `SELECT ` + selectColumns + ` FROM generated_documents WHERE id = $1 LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if doc.UserID != userID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// ListByUser lists generated documents newest first. An empty documentID
// lists across all source documents.
func (r *PGRepo) ListByUser(ctx context.Context, userID, documentID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + selectColumns + `
FROM generated_documents
WHERE user_id = $1 AND ($2 = '' OR document_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, userID, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.DocumentID,
		&doc.RecommendationID,
		&doc.Title,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&doc.CreatedAt,
	)
	return doc, err
}

var _ Repo = (*PGRepo)(nil)
