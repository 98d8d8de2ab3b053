package parser

import (
	"strings"
	"testing"
)

const lessonHTML = `<!doctype html>
<html>
<head><title>Turbo Drive</title></head>
<body>
<nav><a href="/home">Home</a></nav>
<h1>Turbo Drive</h1>
<p>Turbo intercepts <a href="https://turbo.hotwired.dev">link clicks</a>.</p>
<h2>Events</h2>
<ul><li>See <a href="#setup">setup</a>.</li></ul>
<img src="flow.png" alt="request flow">
<pre>document.addEventListener("turbo:load", init);</pre>
<h2>Setup</h2>
<p>Install the package.</p>
</body>
</html>`

func TestHTMLParser(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(lessonHTML), "turbo.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Turbo Drive" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(doc.Sections))
	}
	h1 := doc.Sections[0]
	if h1.Title != "Turbo Drive" || h1.Level != 1 {
		t.Errorf("unexpected h1: %+v", h1)
	}
	if h1.Line != 6 {
		t.Errorf("expected h1 on line 6, got %d", h1.Line)
	}
	if !strings.Contains(h1.Text, "link clicks") {
		t.Errorf("expected paragraph text under h1, got %q", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	if h1.Children[0].Title != "Events" || h1.Children[1].Title != "Setup" {
		t.Errorf("unexpected children: %+v", h1.Children)
	}

	// The nav link is skipped; the body anchors are recorded with lines.
	targets := map[string]int{}
	for _, l := range doc.Links {
		targets[l.Target] = l.Line
	}
	if _, ok := targets["/home"]; ok {
		t.Errorf("expected nav links skipped, got %+v", doc.Links)
	}
	if line, ok := targets["https://turbo.hotwired.dev"]; !ok || line != 7 {
		t.Errorf("expected external link on line 7, got %+v", doc.Links)
	}
	if line, ok := targets["#setup"]; !ok || line != 9 {
		t.Errorf("expected fragment link on line 9, got %+v", doc.Links)
	}

	if len(doc.Images) != 1 || doc.Images[0].Alt != "request flow" {
		t.Errorf("unexpected images: %+v", doc.Images)
	}
	if doc.Images[0].Line != 10 {
		t.Errorf("expected image on line 10, got %d", doc.Images[0].Line)
	}
	if len(doc.CodeFences) != 1 {
		t.Errorf("expected 1 code block, got %d", len(doc.CodeFences))
	}
}

func TestHTMLParser_NoTitleTag(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>bare fragment</p>"), "frag.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "frag" {
		t.Errorf("expected filename-derived title, got %q", doc.Title)
	}
	if len(doc.Sections) != 1 || !strings.Contains(doc.Sections[0].Text, "bare fragment") {
		t.Errorf("expected headingless text collected, got %+v", doc.Sections)
	}
}

func TestTextParser(t *testing.T) {
	input := "First paragraph\nspans two lines.\n\n\nSecond paragraph.\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected filename-derived title, got %q", doc.Title)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Line != 1 || doc.Sections[1].Line != 5 {
		t.Errorf("unexpected paragraph lines: %d, %d", doc.Sections[0].Line, doc.Sections[1].Line)
	}
	if !strings.Contains(doc.Sections[0].Text, "spans two lines") {
		t.Errorf("expected joined paragraph, got %q", doc.Sections[0].Text)
	}
}
