package generated

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docassist-web/internal/download"
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/storage/object"
	"docassist-web/internal/shared/telemetry"
)

// SaveInput is a drafted document to store.
type SaveInput struct {
	UserID           string
	DocumentID       string
	RecommendationID string
	Title            string
	FileName         string
	ContentType      string
	Data             []byte
}

// Service contains business logic for generated documents.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Now   func() time.Time
}

// Save writes the file to the object store and records it. The stored object
// is removed again when the record cannot be written.
func (s *Service) Save(ctx context.Context, in SaveInput) (Document, error) {
	if in.UserID == "" || in.DocumentID == "" || strings.TrimSpace(in.FileName) == "" {
		return Document{}, ErrInvalidInput
	}
	if s.Repo == nil || s.Store == nil {
		return Document{}, errors.New("missing dependencies")
	}

	obj, err := s.Store.Put(ctx, in.UserID, in.FileName, in.ContentType, bytes.NewReader(in.Data))
	if err != nil {
		return Document{}, fmt.Errorf("store generated document: %w", err)
	}

	doc := Document{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		DocumentID:       in.DocumentID,
		RecommendationID: in.RecommendationID,
		Title:            in.Title,
		FileName:         in.FileName,
		MimeType:         obj.ContentType,
		SizeBytes:        obj.Size,
		StorageKey:       obj.Key,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		if delErr := s.Store.Delete(ctx, obj.Key); delErr != nil {
			telemetry.Warn("generated.cleanup_failed", map[string]any{"storage_key": obj.Key, "error": delErr.Error()})
		}
		return Document{}, fmt.Errorf("record generated document: %w", err)
	}
	return doc, nil
}

// List returns the user's generated documents, newest first.
func (s *Service) List(ctx context.Context, userID, documentID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, documentID, limit, offset)
}

// Open returns the record and a reader for its content. Documents of other
// users are reported as not found.
func (s *Service) Open(ctx context.Context, userID, id string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return Document{}, nil, ErrNotFound
		}
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, nil, ErrNotFound
		}
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// Archiver returns a download.SaveFunc that stores every delivered file for
// the given user, document and recommendation.
func (s *Service) Archiver(ctx context.Context, userID, documentID, recommendationID, title string) download.SaveFunc {
	return func(name string, data []byte, contentType string) error {
		doc, err := s.Save(ctx, SaveInput{
			UserID:           userID,
			DocumentID:       documentID,
			RecommendationID: recommendationID,
			Title:            title,
			FileName:         name,
			ContentType:      contentType,
			Data:             data,
		})
		if err != nil {
			metrics.IncArchiveFailed()
			return err
		}
		telemetry.Info("generated.saved", map[string]any{
			"generated_id": doc.ID,
			"document_id":  documentID,
			"size_bytes":   doc.SizeBytes,
		})
		return nil
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
