package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/inboxpilot/mailextract/internal/storage"
)

// Options carries the extraction policy knobs. Zero values are meaningful
// for the policy fields, so defaults live in config.Load, not here.
type Options struct {
	// BatchSize selects the writer strategy: 0 runs the whole document in a
	// single transaction, >0 commits every BatchSize pages.
	BatchSize int
	// MaxErrorPercentage aborts the run once failed/total exceeds it.
	// 0 aborts on the first failed page.
	MaxErrorPercentage float64
	// TextThreshold is the minimum trimmed character count a page must
	// yield directly before the OCR fallback is skipped. 0 disables OCR.
	TextThreshold int
	// Languages is the ordered language set handed to the OCR engine.
	Languages []string
	// RenderScale upscales page rasterization for OCR; 4 lands near 300 DPI.
	RenderScale int
}

// withDefaults fills only the fields whose zero value is unusable.
func (o Options) withDefaults() Options {
	if len(o.Languages) == 0 {
		o.Languages = []string{"eng"}
	}
	if o.RenderScale == 0 {
		o.RenderScale = 4
	}
	return o
}

// Deps are the collaborators of one orchestrator. Parser, Renderer and OCR
// default to the PDF/pdftoppm/tesseract implementations when nil.
type Deps struct {
	Repo     AttachmentRepo
	Blobs    storage.Storage
	Pages    PageStore
	Parser   Parser
	Renderer Renderer
	OCR      Engine
}

// Orchestrator runs the extraction pipeline for one attachment: fetch bytes,
// open the document, extract each page with OCR fallback, and persist page
// rows under the configured transaction strategy.
type Orchestrator struct {
	deps Deps
	opts Options
	log  *slog.Logger
}

func NewOrchestrator(deps Deps, opts Options, log *slog.Logger) *Orchestrator {
	if deps.Parser == nil {
		deps.Parser = NewPDFParser()
	}
	if deps.Renderer == nil {
		deps.Renderer = NewRenderer()
	}
	if deps.OCR == nil {
		deps.OCR = NewTesseractEngine()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{deps: deps, opts: opts.withDefaults(), log: log}
}

// Run executes one extraction attempt. Page-level failures never surface
// unless their running ratio breaches MaxErrorPercentage; OCR failures
// never surface past the page they occurred on.
func (o *Orchestrator) Run(ctx context.Context, attachmentID int64) (*Outcome, error) {
	att, err := o.deps.Repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if att.StoragePath == "" {
		return nil, fmt.Errorf("attachment %d: %w", attachmentID, ErrNoLocator)
	}

	data, err := o.deps.Blobs.Fetch(ctx, att.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, att.StoragePath, err)
	}

	doc, err := o.deps.Parser.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailed, att.Filename, err)
	}

	outcome := &Outcome{AttachmentID: attachmentID, TotalPages: doc.PageCount()}
	writer := NewWriter(o.deps.Pages, attachmentID, o.opts.BatchSize)

	for page := 1; page <= outcome.TotalPages; page++ {
		if err := o.processPage(ctx, doc, writer, page); err != nil {
			outcome.FailedPages++
			writer.Rollback()
			o.log.Warn("page extraction failed",
				"attachment_id", attachmentID, "page", page, "error", err)

			// Checked after every failure so a pathological early run of
			// failures aborts fast instead of grinding through the document.
			ratio := float64(outcome.FailedPages) / float64(outcome.TotalPages) * 100
			if ratio > o.opts.MaxErrorPercentage {
				return nil, fmt.Errorf("%w: %d of %d pages failed",
					ErrThresholdExceeded, outcome.FailedPages, outcome.TotalPages)
			}
			continue
		}
		outcome.SucceededPages++
	}

	if err := writer.Commit(ctx); err != nil {
		return nil, fmt.Errorf("final commit: %w", err)
	}

	outcome.Status = StatusSuccess
	if outcome.FailedPages > 0 {
		outcome.Status = StatusPartialSuccess
	}
	o.log.Info("extraction finished",
		"attachment_id", attachmentID, "status", outcome.Status, "summary", outcome.Summary())
	return outcome, nil
}

func (o *Orchestrator) processPage(ctx context.Context, doc Document, writer *Writer, page int) error {
	text, err := doc.PageText(page)
	if err != nil {
		return err
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < o.opts.TextThreshold {
		if recognized := o.ocrPage(ctx, doc, page); recognized != "" {
			text = recognized
		}
	}

	var content *string
	if strings.TrimSpace(text) != "" {
		content = &text
	}
	return writer.Append(ctx, page, content)
}

// ocrPage renders and recognizes one page. Any failure degrades to the
// direct text by returning "".
func (o *Orchestrator) ocrPage(ctx context.Context, doc Document, page int) string {
	img, err := o.deps.Renderer.RenderPage(ctx, doc, page, o.opts.RenderScale)
	if err != nil {
		o.log.Warn("page render for OCR failed", "page", page, "error", err)
		return ""
	}
	text, err := o.deps.OCR.Recognize(ctx, img, o.opts.Languages)
	if err != nil {
		o.log.Warn("OCR failed, keeping direct text", "page", page, "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}
