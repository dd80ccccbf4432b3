package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text from a rendered page image. Implementations must be
// safe for concurrent use from multiple worker goroutines.
type Engine interface {
	Recognize(ctx context.Context, image []byte, languages []string) (string, error)
}

type tesseractEngine struct{}

// NewTesseractEngine returns the default OCR engine backed by gosseract.
// A fresh client per call keeps the engine safe across concurrent jobs;
// tesseract's native API is not shareable between threads.
func NewTesseractEngine() Engine {
	return tesseractEngine{}
}

func (tesseractEngine) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set ocr languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}
