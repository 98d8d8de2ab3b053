package lint

import (
	"testing"

	"github.com/lessonlint/lessonlint/internal/content"
)

// lessonDoc builds a well-formed document that passes every rule.
func lessonDoc() *content.Document {
	return &content.Document{
		Filename: "lesson.md",
		Title:    "Page Lifecycle",
		Sections: []*content.Section{
			{
				Title: "Page Lifecycle", Level: 1, Line: 1, Text: "Intro.",
				Children: []*content.Section{
					{Title: "Turbo Drive", Level: 2, Line: 5, Text: "Body."},
					{Title: "Stimulus", Level: 2, Line: 9, Text: "Body."},
				},
			},
		},
	}
}

func runRules(t *testing.T, doc *content.Document, opts Options) []Finding {
	t.Helper()
	return NewRunner(DefaultConfig(), opts).Check(doc, nil)
}

func findRule(findings []Finding, rule string) *Finding {
	for i := range findings {
		if findings[i].Rule == rule {
			return &findings[i]
		}
	}
	return nil
}

func TestRunner_CleanDocument(t *testing.T) {
	findings := runRules(t, lessonDoc(), Options{})
	if len(findings) != 0 {
		t.Errorf("expected no findings for a clean document, got %+v", findings)
	}
}

func TestHeadingIncrement(t *testing.T) {
	doc := lessonDoc()
	// h1 -> h3 skips a level.
	doc.Sections[0].Children = []*content.Section{
		{Title: "Deep", Level: 3, Line: 5, Text: "Body.",
			Children: []*content.Section{}},
	}
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "heading-increment")
	if f == nil {
		t.Fatalf("expected a heading-increment finding, got %+v", findings)
	}
	if f.Severity != SeverityWarning || f.Line != 5 {
		t.Errorf("unexpected finding: %+v", f)
	}
	if f.File != "lesson.md" {
		t.Errorf("expected filename tagged on finding, got %q", f.File)
	}
}

func TestSingleTitle_MultipleH1(t *testing.T) {
	doc := lessonDoc()
	doc.Sections = append(doc.Sections,
		&content.Section{Title: "Second Title", Level: 1, Line: 20, Text: "More."})
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "single-title")
	if f == nil || f.Line != 20 {
		t.Fatalf("expected single-title finding on line 20, got %+v", findings)
	}
}

func TestSingleTitle_NoH1(t *testing.T) {
	doc := &content.Document{
		Filename: "lesson.md",
		Sections: []*content.Section{
			{Title: "Orphan", Level: 2, Line: 1, Text: "Body."},
		},
	}
	findings := runRules(t, doc, Options{})
	if findRule(findings, "single-title") == nil {
		t.Errorf("expected single-title finding for headings without an h1, got %+v", findings)
	}
}

func TestDuplicateHeading(t *testing.T) {
	doc := lessonDoc()
	doc.Sections[0].Children = append(doc.Sections[0].Children,
		&content.Section{Title: "Turbo Drive", Level: 2, Line: 13, Text: "Again."})
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "duplicate-heading")
	if f == nil || f.Line != 13 {
		t.Fatalf("expected duplicate-heading finding on line 13, got %+v", findings)
	}
}

func TestEmptySection(t *testing.T) {
	doc := lessonDoc()
	doc.Sections[0].Children[1].Text = "   "
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "empty-section")
	if f == nil || f.Line != 9 {
		t.Fatalf("expected empty-section finding on line 9, got %+v", findings)
	}
}

func TestInternalAnchor(t *testing.T) {
	doc := lessonDoc()
	doc.Links = []content.Link{
		{Target: "#turbo-drive", Line: 3},
		{Target: "#no-such-heading", Line: 4},
	}
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "internal-anchor")
	if f == nil {
		t.Fatalf("expected internal-anchor finding, got %+v", findings)
	}
	if f.Line != 4 || f.Severity != SeverityError {
		t.Errorf("unexpected finding: %+v", f)
	}
	if len(findings) != 1 {
		t.Errorf("expected the valid anchor to pass, got %+v", findings)
	}
}

func TestRelativeLink(t *testing.T) {
	doc := lessonDoc()
	doc.Links = []content.Link{
		{Target: "./stimulus.md", Line: 3},
		{Target: "missing.md", Line: 4},
		{Target: "./stimulus.md#turbo-drive", Line: 6},
		{Target: "https://example.com/gone", Line: 7}, // external, not this rule's job
	}
	resolve := func(target string) bool { return target == "./stimulus.md" }
	findings := runRules(t, doc, Options{ResolveLink: resolve})

	var relative []Finding
	for _, f := range findings {
		if f.Rule == "relative-link" {
			relative = append(relative, f)
		}
	}
	if len(relative) != 1 {
		t.Fatalf("expected exactly one relative-link finding, got %+v", findings)
	}
	if relative[0].Line != 4 {
		t.Errorf("expected finding on line 4, got %+v", relative[0])
	}
}

func TestRelativeLink_SkippedWithoutResolver(t *testing.T) {
	doc := lessonDoc()
	doc.Links = []content.Link{{Target: "missing.md", Line: 3}}
	findings := runRules(t, doc, Options{})
	if findRule(findings, "relative-link") != nil {
		t.Errorf("expected relative-link to be skipped without a resolver, got %+v", findings)
	}
}

func TestImageAlt(t *testing.T) {
	doc := lessonDoc()
	doc.Images = []content.Image{
		{Target: "diagram.png", Alt: "lifecycle diagram", Line: 3},
		{Target: "bare.png", Alt: "", Line: 7},
	}
	findings := runRules(t, doc, Options{})
	f := findRule(findings, "image-alt")
	if f == nil || f.Line != 7 {
		t.Fatalf("expected image-alt finding on line 7, got %+v", findings)
	}
}

func TestRunner_FindingsSorted(t *testing.T) {
	doc := lessonDoc()
	doc.Images = []content.Image{{Target: "bare.png", Line: 30}}
	doc.Links = []content.Link{{Target: "#nowhere", Line: 3}}
	findings := runRules(t, doc, Options{})
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", findings)
	}
	if findings[0].Line > findings[1].Line {
		t.Errorf("expected findings sorted by line, got %+v", findings)
	}
}

func TestIsExternalTarget(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"//cdn.example.com/x.js", true},
		{"mailto:help@example.com", true},
		{"./lesson.md", false},
		{"#anchor", false},
		{"images/x.png", false},
	}
	for _, tt := range tests {
		if got := IsExternalTarget(tt.target); got != tt.want {
			t.Errorf("IsExternalTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
