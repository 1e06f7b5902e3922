package generated

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryRepoListsNewestFirstPerDocument(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, docID := range []string{"d1", "d2", "d1"} {
		doc := Document{ID: string(rune('a' + i)), UserID: "u1", DocumentID: docID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	docs, err := repo.ListByUser(ctx, "u1", "d1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "c" || docs[1].ID != "a" {
		t.Fatalf("unexpected order %+v", docs)
	}

	all, _ := repo.ListByUser(ctx, "u1", "", 10, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(all))
	}

	if _, err := repo.GetByID(ctx, "u2", "a"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

var testColumns = []string{"id", "user_id", "document_id", "recommendation_id", "title", "file_name", "mime_type", "size_bytes", "storage_key", "created_at"}

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	doc := Document{ID: "g1", UserID: "u1", DocumentID: "d1", RecommendationID: "rec-1", Title: "t", FileName: "f.txt", MimeType: "text/plain", SizeBytes: 3, StorageKey: "k", CreatedAt: now}
	mock.ExpectExec("INSERT INTO generated_documents").
		WithArgs("g1", "u1", "d1", "rec-1", "t", "f.txt", "text/plain", int64(3), "k", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := (&PGRepo{DB: db}).Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, user_id, document_id").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow("g1", "u1", "d1", "rec-1", "t", "f.txt", "text/plain", int64(3), "k", now))
	mock.ExpectQuery("SELECT id, user_id, document_id").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow("g1", "u1", "d1", "rec-1", "t", "f.txt", "text/plain", int64(3), "k", now))
	mock.ExpectQuery("SELECT id, user_id, document_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(testColumns))

	doc, err := repo.GetByID(context.Background(), "u1", "g1")
	if err != nil || doc.StorageKey != "k" {
		t.Fatalf("unexpected result %+v err=%v", doc, err)
	}
	if _, err := repo.GetByID(context.Background(), "u2", "g1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM generated_documents").
		WithArgs("u1", "", 100, 0).
		WillReturnRows(sqlmock.NewRows(testColumns))

	docs, err := (&PGRepo{DB: db}).ListByUser(context.Background(), "u1", "", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
