// Package report assembles per-file lint results into a lint report.
package report

import (
	"time"

	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/outline"
	"github.com/lessonlint/lessonlint/internal/quiz"
)

// Report is the result of one lint run over one or more lesson files.
type Report struct {
	ID           string       `json:"report_id"`
	CreatedAt    time.Time    `json:"created_at"`
	Files        []FileReport `json:"files"`
	Summary      lint.Count   `json:"summary"`
	QuizBlocks   int          `json:"quiz_blocks"`
	LinksChecked int          `json:"links_checked"`
	LinksBroken  int          `json:"links_broken"`
	Passed       bool         `json:"passed"`
}

// FileReport holds everything produced for a single lesson file.
type FileReport struct {
	Filename       string          `json:"filename"`
	Title          string          `json:"title"`
	Findings       []lint.Finding  `json:"findings"`
	Counts         lint.Count      `json:"counts"`
	Quizzes        []quiz.Block    `json:"quizzes,omitempty"`
	Outline        []outline.Entry `json:"outline,omitempty"`
	ReadingMinutes int             `json:"reading_minutes"`
}

// New starts an empty report.
func New(id string) *Report {
	return &Report{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Passed:    true,
	}
}

// AddFile records one file's results and folds them into the summary.
func (r *Report) AddFile(fr FileReport) {
	if fr.Findings == nil {
		fr.Findings = []lint.Finding{}
	}
	fr.Counts = lint.Tally(fr.Findings)
	lint.Sort(fr.Findings)
	r.Files = append(r.Files, fr)
	r.Summary.Add(fr.Counts)
	r.QuizBlocks += len(fr.Quizzes)
	if fr.Counts.Errors > 0 {
		r.Passed = false
	}
}
