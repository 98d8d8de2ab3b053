// Package outline derives a reading-time outline from a parsed lesson.
package outline

import (
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
)

// Entry describes one section of the outline.
type Entry struct {
	Breadcrumb []string `json:"breadcrumb"` // Heading hierarchy, e.g. ["Turbo Drive", "Events"]
	Title      string   `json:"title"`
	Words      int      `json:"words"`
	Minutes    int      `json:"minutes"`
}

// wordsPerMinute is the reading speed assumed for time estimates. Technical
// lesson prose reads slower than the usual 250 wpm figure.
const wordsPerMinute = 200

// Build walks the section tree depth-first and produces one entry per
// section that carries text or a heading.
func Build(doc *content.Document) []Entry {
	var entries []Entry
	for _, s := range doc.Sections {
		entries = walkSection(s, nil, entries)
	}
	return entries
}

func walkSection(s *content.Section, breadcrumb []string, entries []Entry) []Entry {
	var bc []string
	bc = append(bc, breadcrumb...)
	if s.Title != "" {
		bc = append(bc, s.Title)
	}

	words := WordCount(s.Text)
	if words > 0 || s.Title != "" {
		entries = append(entries, Entry{
			Breadcrumb: copyBreadcrumb(bc),
			Title:      s.Title,
			Words:      words,
			Minutes:    ReadingMinutes(words),
		})
	}

	for _, child := range s.Children {
		entries = walkSection(child, bc, entries)
	}
	return entries
}

// TotalMinutes sums the reading time of all entries.
func TotalMinutes(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Minutes
	}
	return total
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingMinutes estimates reading time, with a one-minute floor for any
// non-empty section.
func ReadingMinutes(words int) int {
	if words == 0 {
		return 0
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
