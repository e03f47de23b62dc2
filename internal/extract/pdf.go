package extract

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func (e *Extractor) extractPDF(path string) (string, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if e.maxPages > 0 && pageCount > e.maxPages {
		return "", fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrUnreadable, pageCount, e.maxPages)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return string(b), nil
}
