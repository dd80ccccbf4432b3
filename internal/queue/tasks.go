package queue

const (
	TypeAttachmentExtract = "attachment:extract"
)

// AttachmentExtractPayload carries only the attachment identifier; the
// worker reloads everything else so redeliveries always see current state.
type AttachmentExtractPayload struct {
	AttachmentID int64 `json:"attachment_id"`
}
