package minio

import (
	"context"
	"testing"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), "localhost:9000", "key", "secret", "", "docs", false); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}
