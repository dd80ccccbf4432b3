package extract

import "fmt"

type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
)

// Outcome is the per-run aggregate returned to the job wrapper. It is
// never persisted; durable state lives in attachment_pages and the
// attachment's extraction_status column.
type Outcome struct {
	AttachmentID   int64  `json:"attachment_id"`
	TotalPages     int    `json:"total_pages"`
	SucceededPages int    `json:"succeeded_pages"`
	FailedPages    int    `json:"failed_pages"`
	Status         Status `json:"status"`
}

func (o *Outcome) Summary() string {
	return fmt.Sprintf("processed %d/%d pages (%d failed)",
		o.SucceededPages, o.TotalPages, o.FailedPages)
}
