package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOC  = "application/msword"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnreadable  = errors.New("extract: document could not be read")
	ErrEmpty       = errors.New("extract: document contains no text")
	ErrUnsupported = errors.New("extract: document type not supported")
)

// Extractor turns a staged document into plain text.
type Extractor struct {
	maxPages int
}

func New(maxPages int) *Extractor {
	return &Extractor{maxPages: maxPages}
}

// Extract dispatches on the sniffed MIME type. Any panic raised by a
// decoder is reported as ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, path, mimeType string) (text string, err error) {
	const op = "extract.Extract"

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%s: %w: decoder panic: %v", op, ErrUnreadable, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var raw string
	switch mimeType {
	case MIMETypePDF:
		raw, err = e.extractPDF(path)
	case MIMETypeDOCX:
		raw, err = extractDOCX(path)
	case MIMETypeDOC:
		return "", fmt.Errorf("%s: legacy .doc: %w", op, ErrUnsupported)
	default:
		return "", fmt.Errorf("%s: %s: %w", op, mimeType, ErrUnsupported)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	text = normalize(raw)
	if text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmpty)
	}
	return text, nil
}

var (
	spaceRun = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	s = spaceRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
