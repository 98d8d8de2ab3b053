package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML lesson files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*content.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &content.Document{
		Title:    strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
		Filename: filename,
	}

	if title := findTitle(doc); title != "" {
		out.Title = title
	}

	// Build the section tree from heading tags, mirroring the Markdown walk.
	type stackEntry struct {
		node  *content.Section
		level int
	}
	root := &content.Section{}
	stack := []stackEntry{{node: root, level: 0}}
	var currentText strings.Builder

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

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			level := headingLevel(n.Data)
			if level > 0 {
				flushText()
				title := textContent(n)

				section := &content.Section{
					Title: title,
					Level: level,
					Line:  headingLine(src, title, level),
				}
				for len(stack) > 1 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, section)
				stack = append(stack, stackEntry{node: section, level: level})
				return // Heading text already extracted.
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "a":
				out.Links = append(out.Links, content.Link{
					Text:   textContent(n),
					Target: attrValue(n, "href"),
					Line:   sourceLine(src, attrValue(n, "href")),
				})
			case "img":
				out.Images = append(out.Images, content.Image{
					Alt:    attrValue(n, "alt"),
					Target: attrValue(n, "src"),
					Line:   sourceLine(src, attrValue(n, "src")),
				})
				return
			case "pre":
				out.CodeFences = append(out.CodeFences, content.CodeFence{})
				t := textContent(n)
				if t != "" {
					if currentText.Len() > 0 {
						currentText.WriteString("\n\n")
					}
					currentText.WriteString(t)
				}
				return
			case "p", "li", "td", "blockquote":
				t := textContent(n)
				if t != "" {
					if currentText.Len() > 0 {
						currentText.WriteString("\n\n")
					}
					currentText.WriteString(t)
				}
				collectRefs(n, src, out)
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	flushText()

	out.Sections = root.Children
	if len(out.Sections) == 0 && root.Text != "" {
		out.Sections = []*content.Section{{Text: root.Text}}
	}

	return out, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// collectRefs records anchors and images nested inside a text-bearing element.
func collectRefs(n *html.Node, src []byte, out *content.Document) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "a":
				out.Links = append(out.Links, content.Link{
					Text:   textContent(c),
					Target: attrValue(c, "href"),
					Line:   sourceLine(src, attrValue(c, "href")),
				})
			case "img":
				out.Images = append(out.Images, content.Image{
					Alt:    attrValue(c, "alt"),
					Target: attrValue(c, "src"),
					Line:   sourceLine(src, attrValue(c, "src")),
				})
			}
		}
		collectRefs(c, src, out)
	}
}

// sourceLine approximates the 1-based line of the first occurrence of needle
// in the raw source. Parsed HTML nodes carry no positions, so repeated
// targets all map to their first occurrence; not found stays 0 (unknown).
func sourceLine(src []byte, needle string) int {
	if needle == "" {
		return 0
	}
	i := bytes.Index(src, []byte(needle))
	if i < 0 {
		return 0
	}
	return bytes.Count(src[:i], []byte("\n")) + 1
}

// headingLine locates a heading by its closing tag. Headings with nested
// markup stay at line 0.
func headingLine(src []byte, title string, level int) int {
	return sourceLine(src, fmt.Sprintf(">%s</h%d>", title, level))
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
