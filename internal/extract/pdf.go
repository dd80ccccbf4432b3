package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Document is an opened multi-page document. PageText pulls embedded text
// directly from the document structure without rendering.
type Document interface {
	PageCount() int
	PageText(pageNumber int) (string, error)
	Bytes() []byte
}

// Parser opens a raw byte buffer as a Document.
type Parser interface {
	Open(data []byte) (Document, error)
}

type pdfParser struct{}

// NewPDFParser returns the default Parser backed by ledongthuc/pdf.
func NewPDFParser() Parser {
	return pdfParser{}
}

func (pdfParser) Open(data []byte) (Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{reader: reader, raw: data}, nil
}

type pdfDocument struct {
	reader *pdf.Reader
	raw    []byte
}

func (d *pdfDocument) PageCount() int { return d.reader.NumPage() }

func (d *pdfDocument) Bytes() []byte { return d.raw }

func (d *pdfDocument) PageText(pageNumber int) (string, error) {
	page := d.reader.Page(pageNumber)
	if page.V.IsNull() {
		// Missing page object: no embedded text, let OCR decide.
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", pageNumber, err)
	}
	return text, nil
}
