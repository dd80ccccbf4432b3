package models

import (
	"time"
)

type Email struct {
	ID         int64     `json:"id" db:"id"`
	MessageID  string    `json:"message_id" db:"message_id"`
	Sender     string    `json:"sender" db:"sender"`
	Recipient  string    `json:"recipient" db:"recipient"`
	Subject    string    `json:"subject" db:"subject"`
	BodyText   string    `json:"body_text,omitempty" db:"body_text"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

type Attachment struct {
	ID               int64     `json:"id" db:"id"`
	EmailID          int64     `json:"email_id" db:"email_id"`
	Filename         string    `json:"filename" db:"filename"`
	MediaType        string    `json:"media_type" db:"media_type"`
	StoragePath      string    `json:"storage_path,omitempty" db:"storage_path"`
	SizeBytes        int64     `json:"size_bytes" db:"size_bytes"`
	ExtractionStatus string    `json:"extraction_status" db:"extraction_status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// AttachmentPage is one page of extracted text. TextContent is nil when
// extraction produced no usable text for the page, which is not an error.
type AttachmentPage struct {
	ID           int64     `json:"id" db:"id"`
	AttachmentID int64     `json:"attachment_id" db:"attachment_id"`
	PageNumber   int       `json:"page_number" db:"page_number"`
	TextContent  *string   `json:"text_content" db:"text_content"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Extraction job states. retry_scheduled transitions back to pending via
// queue redelivery; the other non-pending states are terminal except running.
const (
	ExtractionPending          = "pending"
	ExtractionRunning          = "running"
	ExtractionSuccess          = "success"
	ExtractionPartialSuccess   = "partial_success"
	ExtractionRetryScheduled   = "retry_scheduled"
	ExtractionPermanentFailure = "permanent_failure"
)
