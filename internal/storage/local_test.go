package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	ctx := context.Background()
	content := []byte("%PDF-1.7 payload")

	if err := store.Upload(ctx, "12/abc/file.pdf", bytes.NewReader(content), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := store.Fetch(ctx, "12/abc/file.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("fetched %q, want %q", got, content)
	}

	if err := store.Delete(ctx, "12/abc/file.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Fetch(ctx, "12/abc/file.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("fetch after delete = %v, want ErrNotFound", err)
	}
}

func TestLocalStorage_FetchMissing(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	if _, err := store.Fetch(context.Background(), "nope/missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	if err := store.Delete(context.Background(), "nope/missing.pdf"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}
