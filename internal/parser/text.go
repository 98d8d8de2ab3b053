package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
)

// TextParser handles plain text lesson material.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*content.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	type para struct {
		text string
		line int
	}
	var paragraphs []para
	var current strings.Builder
	lineNo := 0
	startLine := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, para{text: current.String(), line: startLine})
				current.Reset()
			}
		} else {
			if current.Len() == 0 {
				startLine = lineNo
			} else {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, para{text: current.String(), line: startLine})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out := &content.Document{
		Title:    strings.TrimSuffix(filename, ".txt"),
		Filename: filename,
	}

	// Each paragraph becomes an untitled section.
	for _, p := range paragraphs {
		out.Sections = append(out.Sections, &content.Section{
			Text: p.text,
			Line: p.line,
		})
	}

	return out, nil
}
