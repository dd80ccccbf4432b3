package extract

import (
	"context"
	"errors"
	"testing"
)

func ptr(s string) *string { return &s }

func TestWriter_SingleTransactionFlushesOnceAtCommit(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(store, 1, 0)
	ctx := context.Background()

	for page := 1; page <= 25; page++ {
		if err := w.Append(ctx, page, ptr("text")); err != nil {
			t.Fatalf("append page %d: %v", page, err)
		}
	}
	if len(store.commits) != 0 {
		t.Fatalf("commits before Commit = %d, want 0", len(store.commits))
	}

	if err := w.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(store.commits) != 1 || len(store.commits[0]) != 25 {
		t.Fatalf("commits = %d (first size %d), want one commit of 25 rows",
			len(store.commits), len(store.commits[0]))
	}
}

func TestWriter_BatchedModeFlushesEveryBatch(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(store, 1, 10)
	ctx := context.Background()

	for page := 1; page <= 10; page++ {
		if err := w.Append(ctx, page, ptr("text")); err != nil {
			t.Fatalf("append page %d: %v", page, err)
		}
	}
	if len(store.commits) != 1 {
		t.Fatalf("commits after 10 appends with batch size 10 = %d, want 1", len(store.commits))
	}

	if err := w.Append(ctx, 11, ptr("text")); err != nil {
		t.Fatalf("append page 11: %v", err)
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(store.commits) != 2 || len(store.commits[1]) != 1 {
		t.Fatalf("final commit did not flush the remainder: %+v", store.commits)
	}
}

func TestWriter_RollbackDiscardsOnlyOpenBuffer(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(store, 1, 2)
	ctx := context.Background()

	w.Append(ctx, 1, ptr("a"))
	w.Append(ctx, 2, ptr("b")) // flushes batch 1
	w.Append(ctx, 3, ptr("c"))
	w.Rollback() // drops page 3 only

	if err := w.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	rows := store.rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (flushed batch survives rollback)", len(rows))
	}
	if rows[0].PageNumber != 1 || rows[1].PageNumber != 2 {
		t.Fatalf("rows = %+v, want pages 1 and 2", rows)
	}
}

func TestWriter_EmptyCommitIsNoop(t *testing.T) {
	store := &fakeStore{err: errors.New("must not be called")}
	w := NewWriter(store, 1, 0)
	if err := w.Commit(context.Background()); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
}

func TestWriter_FlushErrorKeepsBuffer(t *testing.T) {
	store := &fakeStore{err: errors.New("deadlock detected")}
	w := NewWriter(store, 1, 0)
	ctx := context.Background()

	w.Append(ctx, 1, ptr("a"))
	if err := w.Commit(ctx); err == nil {
		t.Fatal("expected flush error")
	}

	// After the store recovers, the buffered page is still writable.
	store.err = nil
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if len(store.rows()) != 1 {
		t.Fatalf("rows = %d, want 1", len(store.rows()))
	}
}
