package inbound

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboxpilot/mailextract/internal/models"
	"github.com/inboxpilot/mailextract/internal/queue"
	"github.com/inboxpilot/mailextract/internal/storage"
)

// Enqueuer schedules extraction jobs. Satisfied by *queue.Client.
type Enqueuer interface {
	EnqueueAttachmentExtract(payload queue.AttachmentExtractPayload) error
}

// Email is the decoded inbound webhook payload. Attachment content arrives
// base64-encoded and is decoded by encoding/json into raw bytes.
type Email struct {
	MessageID   string       `json:"message_id"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	BodyText    string       `json:"body_text"`
	Attachments []Attachment `json:"attachments"`
}

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

type Service struct {
	db    *pgxpool.Pool
	blobs storage.Storage
	jobs  Enqueuer
	log   *slog.Logger
}

func NewService(db *pgxpool.Pool, blobs storage.Storage, jobs Enqueuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, blobs: blobs, jobs: jobs, log: log}
}

// Ingest persists an inbound email and its attachments, then enqueues one
// extraction job per PDF attachment. Enqueue failures are logged and never
// fail the write path; the job can be re-dispatched later.
func (s *Service) Ingest(ctx context.Context, in Email) (*models.Email, []models.Attachment, error) {
	var email models.Email
	err := s.db.QueryRow(ctx,
		`INSERT INTO emails (message_id, sender, recipient, subject, body_text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, message_id, sender, recipient, subject, body_text, received_at`,
		in.MessageID, in.From, in.To, in.Subject, in.BodyText,
	).Scan(&email.ID, &email.MessageID, &email.Sender, &email.Recipient,
		&email.Subject, &email.BodyText, &email.ReceivedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert email: %w", err)
	}

	var stored []models.Attachment
	for _, att := range in.Attachments {
		saved, err := s.storeAttachment(ctx, email.ID, att)
		if err != nil {
			return nil, nil, fmt.Errorf("attachment %q: %w", att.Filename, err)
		}
		stored = append(stored, *saved)

		if !IsPDF(saved.MediaType, saved.Filename) {
			continue
		}
		if err := s.jobs.EnqueueAttachmentExtract(queue.AttachmentExtractPayload{
			AttachmentID: saved.ID,
		}); err != nil {
			s.log.Error("failed to enqueue extraction",
				"attachment_id", saved.ID, "error", err)
		}
	}

	s.log.Info("email ingested",
		"email_id", email.ID, "message_id", email.MessageID, "attachments", len(stored))
	return &email, stored, nil
}

func (s *Service) storeAttachment(ctx context.Context, emailID int64, att Attachment) (*models.Attachment, error) {
	ext := filepath.Ext(att.Filename)
	path := fmt.Sprintf("%d/%s/%s%s", emailID, uuid.New(), time.Now().Format("20060102"), ext)

	if err := s.blobs.Upload(ctx, path, bytes.NewReader(att.Content), att.ContentType); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	var saved models.Attachment
	err := s.db.QueryRow(ctx,
		`INSERT INTO attachments (email_id, filename, media_type, storage_path, size_bytes, extraction_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, email_id, filename, media_type, storage_path, size_bytes, extraction_status, created_at`,
		emailID, att.Filename, att.ContentType, path, len(att.Content), models.ExtractionPending,
	).Scan(&saved.ID, &saved.EmailID, &saved.Filename, &saved.MediaType,
		&saved.StoragePath, &saved.SizeBytes, &saved.ExtractionStatus, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	return &saved, nil
}

// IsPDF decides whether an attachment enters the extraction pipeline, from
// the declared media type or the filename suffix.
func IsPDF(mediaType, filename string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// GetAttachment returns one attachment row.
func (s *Service) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	var a models.Attachment
	err := s.db.QueryRow(ctx,
		`SELECT id, email_id, filename, media_type, COALESCE(storage_path, ''),
		        size_bytes, extraction_status, created_at
		 FROM attachments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.EmailID, &a.Filename, &a.MediaType, &a.StoragePath,
		&a.SizeBytes, &a.ExtractionStatus, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &a, nil
}

// ListPages returns extracted pages for an attachment ordered by page number.
func (s *Service) ListPages(ctx context.Context, attachmentID int64) ([]models.AttachmentPage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, attachment_id, page_number, text_content, created_at
		 FROM attachment_pages WHERE attachment_id = $1 ORDER BY page_number`,
		attachmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.AttachmentPage
	for rows.Next() {
		var p models.AttachmentPage
		if err := rows.Scan(&p.ID, &p.AttachmentID, &p.PageNumber, &p.TextContent, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// SearchPages returns pages of one attachment whose text matches the query.
func (s *Service) SearchPages(ctx context.Context, attachmentID int64, q string) ([]models.AttachmentPage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, attachment_id, page_number, text_content, created_at
		 FROM attachment_pages
		 WHERE attachment_id = $1 AND text_content ILIKE '%' || $2 || '%'
		 ORDER BY page_number`,
		attachmentID, q,
	)
	if err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}
	defer rows.Close()

	var pages []models.AttachmentPage
	for rows.Next() {
		var p models.AttachmentPage
		if err := rows.Scan(&p.ID, &p.AttachmentID, &p.PageNumber, &p.TextContent, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
