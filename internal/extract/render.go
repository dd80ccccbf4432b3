package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Renderer rasterizes one page of a document to an image suitable for OCR.
type Renderer interface {
	RenderPage(ctx context.Context, doc Document, pageNumber int, scale int) ([]byte, error)
}

// popplerRenderer trims the requested page into a standalone PDF with pdfcpu,
// then shells out to pdftoppm to rasterize it. DPI is 72 * scale, so the
// default scale of 4 lands near 300 DPI.
type popplerRenderer struct {
	binPath string
}

func NewRenderer() Renderer {
	path, _ := exec.LookPath("pdftoppm")
	if path == "" {
		path = "pdftoppm"
	}
	return &popplerRenderer{binPath: path}
}

func (r *popplerRenderer) RenderPage(ctx context.Context, doc Document, pageNumber int, scale int) ([]byte, error) {
	var page bytes.Buffer
	sel := []string{strconv.Itoa(pageNumber)}
	if err := api.Trim(bytes.NewReader(doc.Bytes()), &page, sel, nil); err != nil {
		return nil, fmt.Errorf("trim page %d: %w", pageNumber, err)
	}

	dir, err := os.MkdirTemp("", "pagerender")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pagePDF := filepath.Join(dir, "page.pdf")
	if err := os.WriteFile(pagePDF, page.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("write page pdf: %w", err)
	}

	outPrefix := filepath.Join(dir, "page")
	dpi := 72 * scale
	cmd := exec.CommandContext(ctx, r.binPath,
		"-png", "-singlefile", "-r", strconv.Itoa(dpi), pagePDF, outPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", pageNumber, err, bytes.TrimSpace(out))
	}

	img, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return img, nil
}
