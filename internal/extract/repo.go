package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inboxpilot/mailextract/internal/models"
)

// AttachmentRepo reads attachment metadata and tracks job state. The core
// never writes attachment rows beyond the extraction_status column.
type AttachmentRepo interface {
	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	UpdateExtractionStatus(ctx context.Context, id int64, status string) error
}

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PGAttachmentRepo struct {
	db Querier
}

func NewPGAttachmentRepo(db Querier) *PGAttachmentRepo {
	return &PGAttachmentRepo{db: db}
}

func (r *PGAttachmentRepo) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	var a models.Attachment
	err := r.db.QueryRow(ctx,
		`SELECT id, email_id, filename, media_type, COALESCE(storage_path, ''),
		        size_bytes, extraction_status, created_at
		 FROM attachments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.EmailID, &a.Filename, &a.MediaType, &a.StoragePath,
		&a.SizeBytes, &a.ExtractionStatus, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment %d: %w", id, err)
	}
	return &a, nil
}

func (r *PGAttachmentRepo) UpdateExtractionStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE attachments SET extraction_status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update extraction status: %w", err)
	}
	return nil
}
