package report

import (
	"testing"

	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/quiz"
)

func TestReportAddFile(t *testing.T) {
	r := New("01TESTREPORT0000000000001")
	if !r.Passed {
		t.Fatal("new report should start passing")
	}

	r.AddFile(FileReport{
		Filename: "clean.md",
		Findings: []lint.Finding{
			{Rule: "image-alt", Severity: lint.SeverityWarning, File: "clean.md", Line: 4},
		},
		Quizzes: []quiz.Block{{ID: "q1"}, {ID: "q2"}},
	})
	if !r.Passed {
		t.Error("warnings alone should not fail the report")
	}
	if r.QuizBlocks != 2 {
		t.Errorf("expected 2 quiz blocks, got %d", r.QuizBlocks)
	}
	if r.Files[0].Counts.Warnings != 1 {
		t.Errorf("expected per-file tally, got %+v", r.Files[0].Counts)
	}

	r.AddFile(FileReport{
		Filename: "broken.md",
		Findings: []lint.Finding{
			{Rule: "internal-anchor", Severity: lint.SeverityError, File: "broken.md", Line: 9},
		},
	})
	if r.Passed {
		t.Error("an error-severity finding should fail the report")
	}
	if r.Summary.Errors != 1 || r.Summary.Warnings != 1 {
		t.Errorf("unexpected summary: %+v", r.Summary)
	}
}

func TestReportAddFile_NilFindings(t *testing.T) {
	r := New("01TESTREPORT0000000000002")
	r.AddFile(FileReport{Filename: "empty.md"})
	if r.Files[0].Findings == nil {
		t.Error("expected empty findings slice for JSON output, got nil")
	}
	if !r.Passed {
		t.Error("expected report to stay passing")
	}
}
