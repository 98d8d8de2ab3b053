package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF handouts. They get structural checks and the
// reading-time outline only; PDF carries no lintable markup.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*content.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lessonlint-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	out := &content.Document{
		Title:    strings.TrimSuffix(filename, ".pdf"),
		Filename: filename,
	}

	// One section per page; form feed is the page separator.
	pages := strings.Split(text, "\f")
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		out.Sections = append(out.Sections, &content.Section{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
		})
	}

	if len(out.Sections) == 0 && strings.TrimSpace(text) != "" {
		out.Sections = []*content.Section{{Text: strings.TrimSpace(text)}}
	}

	return out, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}
