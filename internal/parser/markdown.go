package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown lesson files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*content.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	out := &content.Document{
		Title:    strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
		Filename: filename,
	}
	titleFromHeading := false

	// Walk top-level blocks and build a section tree from heading levels.
	// A stack tracks the current nesting.
	type stackEntry struct {
		node  *content.Section
		level int
	}

	// Root is level 0, so every h1+ nests under it.
	root := &content.Section{}
	stack := []stackEntry{{node: root, level: 0}}

	var currentText bytes.Buffer

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.Text != "" {
				top.Text += "\n\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flushText()
			level := node.Level
			title := string(node.Text(src))

			section := &content.Section{
				Title: title,
				Level: level,
				Line:  blockLine(node, src),
			}

			// Pop the stack until we find a parent with a lower level.
			for len(stack) > 1 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}

			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, section)
			stack = append(stack, stackEntry{node: section, level: level})

			if !titleFromHeading && level == 1 && title != "" {
				out.Title = title
				titleFromHeading = true
			}

		default:
			t := extractText(n, src)
			if t != "" {
				if currentText.Len() > 0 {
					currentText.WriteString("\n\n")
				}
				currentText.WriteString(t)
			}
		}
	}
	flushText()

	out.Sections = root.Children
	// Headingless documents get a single untitled section.
	if len(out.Sections) == 0 && root.Text != "" {
		out.Sections = []*content.Section{{Text: root.Text}}
	}

	collectInventories(doc, src, out)

	return out, nil
}

// collectInventories walks the full AST recording links, images, and code
// fences with their source lines.
func collectInventories(doc ast.Node, src []byte, out *content.Document) {
	blockLine := 0
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			if l := lineOfBlock(n, src); l > 0 {
				blockLine = l
			}
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			lang := ""
			if node.Info != nil {
				if fields := strings.Fields(string(node.Info.Value(src))); len(fields) > 0 {
					lang = fields[0]
				}
			}
			out.CodeFences = append(out.CodeFences, content.CodeFence{
				Language: lang,
				Line:     blockLine,
			})
		case *ast.CodeBlock:
			out.CodeFences = append(out.CodeFences, content.CodeFence{Line: blockLine})
		case *ast.Link:
			out.Links = append(out.Links, content.Link{
				Text:   string(node.Text(src)),
				Target: string(node.Destination),
				Line:   inlineLine(node, src, blockLine),
			})
		case *ast.AutoLink:
			out.Links = append(out.Links, content.Link{
				Text:   string(node.URL(src)),
				Target: string(node.URL(src)),
				Line:   blockLine,
			})
		case *ast.Image:
			out.Images = append(out.Images, content.Image{
				Alt:    string(node.Text(src)),
				Target: string(node.Destination),
				Line:   inlineLine(node, src, blockLine),
			})
		}
		return ast.WalkContinue, nil
	})
}

// blockLine returns the 1-based source line of a block node.
func blockLine(n ast.Node, src []byte) int {
	l := lineOfBlock(n, src)
	if l == 0 {
		return 1
	}
	return l
}

func lineOfBlock(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	return lineAt(src, lines.At(0).Start)
}

// inlineLine approximates the line of an inline node from its first text
// segment, falling back to the enclosing block's line.
func inlineLine(n ast.Node, src []byte, fallback int) int {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return lineAt(src, t.Segment.Start)
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	// Also handle inline children.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
