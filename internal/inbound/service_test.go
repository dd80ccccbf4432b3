package inbound

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		filename  string
		want      bool
	}{
		{"pdf media type", "application/pdf", "report.bin", true},
		{"pdf media type with parameters", "application/pdf; name=invoice.pdf", "invoice", true},
		{"uppercase media type", "Application/PDF", "x", true},
		{"pdf extension only", "application/octet-stream", "invoice.pdf", true},
		{"uppercase extension", "application/octet-stream", "SCAN.PDF", true},
		{"plain text", "text/plain", "notes.txt", false},
		{"image", "image/png", "photo.png", false},
		{"pdf-ish but not pdf", "application/x-pdfx", "file.docx", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.mediaType, tt.filename); got != tt.want {
				t.Errorf("IsPDF(%q, %q) = %v, want %v", tt.mediaType, tt.filename, got, tt.want)
			}
		})
	}
}

func TestEmailPayloadDecodesBase64Attachments(t *testing.T) {
	content := []byte("%PDF-1.7 fake body")
	payload := []byte(`{
		"message_id": "<abc@mail.example>",
		"from": "billing@example.com",
		"to": "inbox@example.net",
		"subject": "Invoice",
		"body_text": "see attached",
		"attachments": [
			{
				"filename": "invoice.pdf",
				"content_type": "application/pdf",
				"content": "` + base64.StdEncoding.EncodeToString(content) + `"
			}
		]
	}`)

	var email Email
	if err := json.Unmarshal(payload, &email); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(email.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(email.Attachments))
	}
	att := email.Attachments[0]
	if att.Filename != "invoice.pdf" || att.ContentType != "application/pdf" {
		t.Fatalf("attachment metadata = %+v", att)
	}
	if string(att.Content) != string(content) {
		t.Fatalf("content = %q, want decoded bytes", att.Content)
	}
}
