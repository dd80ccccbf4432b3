package extract

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inboxpilot/mailextract/internal/models"
)

// PageStore persists a group of page rows atomically.
type PageStore interface {
	UpsertPages(ctx context.Context, pages []models.AttachmentPage) error
}

// Writer buffers page rows and flushes them under one of two strategies:
//
//   - batchSize == 0: single-transaction mode. Everything buffered is
//     flushed once at Commit; an aborted run persists nothing.
//   - batchSize > 0: batched-commit mode. The buffer is flushed every
//     batchSize appended pages, plus a final flush at Commit. A page-level
//     rollback discards only the open buffer, never flushed batches.
type Writer struct {
	store        PageStore
	attachmentID int64
	batchSize    int
	buffer       []models.AttachmentPage
}

func NewWriter(store PageStore, attachmentID int64, batchSize int) *Writer {
	return &Writer{store: store, attachmentID: attachmentID, batchSize: batchSize}
}

// Append buffers one page row, flushing when the batch fills.
func (w *Writer) Append(ctx context.Context, pageNumber int, text *string) error {
	w.buffer = append(w.buffer, models.AttachmentPage{
		AttachmentID: w.attachmentID,
		PageNumber:   pageNumber,
		TextContent:  text,
	})
	if w.batchSize > 0 && len(w.buffer) >= w.batchSize {
		return w.flush(ctx)
	}
	return nil
}

// Rollback discards all buffered, not-yet-flushed pages and resets the
// batch counter. Previously flushed batches are untouched.
func (w *Writer) Rollback() {
	w.buffer = w.buffer[:0]
}

// Commit flushes whatever remains in the buffer.
func (w *Writer) Commit(ctx context.Context) error {
	return w.flush(ctx)
}

func (w *Writer) flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	if err := w.store.UpsertPages(ctx, w.buffer); err != nil {
		return fmt.Errorf("flush %d pages: %w", len(w.buffer), err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

// PGPageStore writes page rows through pgx. The upsert on
// (attachment_id, page_number) makes retried runs overwrite rows committed
// by an earlier partial attempt instead of duplicating them.
type PGPageStore struct {
	db TxBeginner
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewPGPageStore(db TxBeginner) *PGPageStore {
	return &PGPageStore{db: db}
}

const upsertPageSQL = `
	INSERT INTO attachment_pages (attachment_id, page_number, text_content)
	VALUES ($1, $2, $3)
	ON CONFLICT (attachment_id, page_number)
	DO UPDATE SET text_content = EXCLUDED.text_content`

func (s *PGPageStore) UpsertPages(ctx context.Context, pages []models.AttachmentPage) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin page tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range pages {
		batch.Queue(upsertPageSQL, p.AttachmentID, p.PageNumber, p.TextContent)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write page batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit page batch: %w", err)
	}
	return nil
}
