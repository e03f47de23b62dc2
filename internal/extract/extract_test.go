package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildPDF assembles a small valid PDF with one text line per page and a
// correct cross-reference table.
func buildPDF(t *testing.T, pages ...string) string {
	t.Helper()

	n := len(pages)
	// 1: catalog, 2: pages, 3: font, then (page, content) pairs.
	objects := make([]string, 0, 3+2*n)
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func buildDOCX(t *testing.T, paragraphs ...string) string {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body.String())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "resume.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestExtract_PDF(t *testing.T) {
	path := buildPDF(t, "Senior Go Engineer")

	text, err := New(5).Extract(context.Background(), path, MIMETypePDF)
	require.NoError(t, err)
	require.Contains(t, text, "Senior Go Engineer")
}

func TestExtract_PDFTooManyPages(t *testing.T) {
	path := buildPDF(t, "one", "two", "three")

	_, err := New(2).Extract(context.Background(), path, MIMETypePDF)
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtract_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf"), 0o600))

	_, err := New(5).Extract(context.Background(), path, MIMETypePDF)
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtract_DOCX(t *testing.T) {
	path := buildDOCX(t, "Jane Doe", "Backend Developer", "Go, PostgreSQL")

	text, err := New(5).Extract(context.Background(), path, MIMETypeDOCX)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe\nBackend Developer\nGo, PostgreSQL", text)
}

func TestExtract_EmptyDOCX(t *testing.T) {
	path := buildDOCX(t, "   ", "")

	_, err := New(5).Extract(context.Background(), path, MIMETypeDOCX)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestExtract_DOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "odd.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	_, err = New(5).Extract(context.Background(), path, MIMETypeDOCX)
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtract_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.doc")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o600))

	_, err := New(5).Extract(context.Background(), path, MIMETypeDOC)
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = New(5).Extract(context.Background(), path, "image/png")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(5).Extract(ctx, "unused", MIMETypePDF)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	in := "  Jane\t\tDoe \r\n\r\n\r\n\r\nGo  developer\x00 "
	require.Equal(t, "Jane Doe\n\nGo developer", normalize(in))
}
