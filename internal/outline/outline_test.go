package outline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lessonlint/lessonlint/internal/content"
)

func TestBuild(t *testing.T) {
	doc := &content.Document{
		Title: "Page Lifecycle",
		Sections: []*content.Section{
			{
				Title: "Page Lifecycle", Level: 1, Text: "Intro paragraph.",
				Children: []*content.Section{
					{Title: "Turbo Drive", Level: 2, Text: strings.Repeat("word ", 250),
						Children: []*content.Section{
							{Title: "Events", Level: 3, Text: "Short."},
						}},
					{Title: "Stimulus", Level: 2, Text: ""},
				},
			},
		},
	}

	entries := Build(doc)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}

	if entries[0].Title != "Page Lifecycle" || entries[0].Minutes != 1 {
		t.Errorf("unexpected root entry: %+v", entries[0])
	}

	turbo := entries[1]
	if turbo.Words != 250 || turbo.Minutes != 2 {
		t.Errorf("expected 250 words over 2 minutes, got %+v", turbo)
	}
	wantBC := []string{"Page Lifecycle", "Turbo Drive"}
	if !reflect.DeepEqual(turbo.Breadcrumb, wantBC) {
		t.Errorf("expected breadcrumb %v, got %v", wantBC, turbo.Breadcrumb)
	}

	events := entries[2]
	if !reflect.DeepEqual(events.Breadcrumb, []string{"Page Lifecycle", "Turbo Drive", "Events"}) {
		t.Errorf("unexpected breadcrumb: %v", events.Breadcrumb)
	}

	// A titled section with no text still appears, at zero minutes.
	if entries[3].Title != "Stimulus" || entries[3].Minutes != 0 {
		t.Errorf("unexpected empty-section entry: %+v", entries[3])
	}

	if got := TotalMinutes(entries); got != 4 {
		t.Errorf("expected 4 total minutes, got %d", got)
	}
}

func TestBuild_UntitledSectionsWithoutText(t *testing.T) {
	doc := &content.Document{
		Sections: []*content.Section{{Title: "", Level: 0, Text: "  "}},
	}
	if entries := Build(doc); len(entries) != 0 {
		t.Errorf("expected no entries for blank untitled section, got %+v", entries)
	}
}

func TestReadingMinutes(t *testing.T) {
	tests := []struct {
		words, want int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, tt := range tests {
		if got := ReadingMinutes(tt.words); got != tt.want {
			t.Errorf("ReadingMinutes(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one\ttwo\nthree  "); got != 3 {
		t.Errorf("expected 3 words, got %d", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("expected 0 words, got %d", got)
	}
}
