package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/lessonlint/lessonlint/internal/content"
	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/linkcheck"
	"github.com/lessonlint/lessonlint/internal/outline"
	"github.com/lessonlint/lessonlint/internal/parser"
	"github.com/lessonlint/lessonlint/internal/quiz"
	"github.com/lessonlint/lessonlint/internal/report"
	"github.com/lessonlint/lessonlint/internal/storage/sqlite"
)

// Worker processes a single lint job.
type Worker struct {
	lintCfg lint.Config
	checker *linkcheck.Checker // nil disables external link checks
	store   *sqlite.Store      // nil disables report persistence
	log     *slog.Logger
}

func NewWorker(lintCfg lint.Config, checker *linkcheck.Checker, store *sqlite.Store, log *slog.Logger) *Worker {
	return &Worker{
		lintCfg: lintCfg,
		checker: checker,
		store:   store,
		log:     log,
	}
}

// Process runs the full lint pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	files := job.Files()
	job.SetTotalFiles(len(files))

	// Relative links resolve against the uploaded set.
	names := map[string]bool{}
	for _, f := range files {
		names[f.Name] = true
	}
	resolve := func(target string) bool {
		return names[path.Clean(strings.TrimPrefix(target, "./"))]
	}
	runner := lint.NewRunner(w.lintCfg, lint.Options{ResolveLink: resolve})

	rpt := report.New(generateULID())
	hadErrors := false

	job.SetStatus(StatusParsing, "parsing")
	for _, f := range files {
		select {
		case <-ctx.Done():
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "canceled")
			return
		default:
		}

		fr, err := w.lintFile(ctx, runner, f, job)
		job.IncrFilesProcessed()
		if err != nil {
			log.Error("lint failed", "file", f.Name, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", f.Name, err))
			hadErrors = true
			continue
		}
		job.AddFindings(lint.Tally(fr.Findings))
		rpt.AddFile(*fr)
	}

	if len(rpt.Files) == 0 {
		job.SetStatus(StatusFailed, "parsing")
		job.SetReport(rpt)
		return
	}

	log.Info("lint complete",
		"files", len(rpt.Files),
		"errors", rpt.Summary.Errors,
		"warnings", rpt.Summary.Warnings,
	)

	rpt.LinksChecked = job.Snapshot().Progress.LinksChecked
	rpt.LinksBroken = job.Snapshot().Progress.LinksBroken

	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.store.SaveReport(ctx, rpt); err != nil {
			log.Error("report store failed", "report_id", rpt.ID, "error", err)
			job.AddError(fmt.Sprintf("store report: %s", err))
			hadErrors = true
		}
	}

	job.SetReport(rpt)
	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// lintFile parses one lesson file and runs every check that applies to it.
func (w *Worker) lintFile(ctx context.Context, runner *lint.Runner, f File, job *Job) (*report.FileReport, error) {
	p, err := parser.ForFile(f.Name)
	if err != nil {
		return nil, err
	}

	job.SetStatus(StatusParsing, "parsing")
	doc, err := p.Parse(bytes.NewReader(f.Data), f.Name)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	job.SetStatus(StatusLinting, "linting")
	findings := runner.Check(doc, f.Data)

	var blocks []quiz.Block
	if parser.IsMarkdown(f.Name) {
		var quizFindings []lint.Finding
		blocks, quizFindings = quiz.Check(f.Name, f.Data)
		findings = append(findings, w.lintCfg.Apply(quizFindings)...)
	}

	if w.checker != nil && w.lintCfg.Enabled("external-link") {
		job.SetStatus(StatusLinkCheck, "linkcheck")
		findings = append(findings, w.checkExternalLinks(ctx, doc, f.Name, job)...)
	}

	entries := outline.Build(doc)

	lint.Sort(findings)
	return &report.FileReport{
		Filename:       f.Name,
		Title:          doc.Title,
		Findings:       findings,
		Quizzes:        blocks,
		Outline:        entries,
		ReadingMinutes: outline.TotalMinutes(entries),
	}, nil
}

// checkExternalLinks verifies each external URL referenced by the document,
// retrying transient failures with backoff.
func (w *Worker) checkExternalLinks(ctx context.Context, doc *content.Document, filename string, job *Job) []lint.Finding {
	var findings []lint.Finding

	for _, l := range doc.Links {
		if !lint.IsExternalTarget(l.Target) || strings.HasPrefix(l.Target, "mailto:") {
			continue
		}

		var res linkcheck.Result
		var lastErr error
		for attempt := 0; attempt < MaxRetries; attempt++ {
			res, lastErr = w.checker.Check(ctx, l.Target)
			if lastErr == nil || !IsRetryable(lastErr) {
				break
			}
			w.log.Warn("retryable link check error",
				"url", l.Target, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(Backoff(attempt)):
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
			if ctx.Err() != nil {
				break
			}
		}

		broken := 0
		if lastErr != nil {
			// Retries exhausted; cache the failure so other files skip it.
			res.URL = l.Target
			if res.Error == "" {
				res.Error = lastErr.Error()
			}
			w.checker.Remember(res)
			broken = 1
			findings = append(findings, lint.Finding{
				Rule:     "external-link",
				Severity: lint.SeverityError,
				File:     filename,
				Line:     l.Line,
				Message:  fmt.Sprintf("link %s is unreachable: %s", l.Target, res.Error),
			})
		} else if !res.OK {
			broken = 1
			findings = append(findings, lint.Finding{
				Rule:     "external-link",
				Severity: lint.SeverityError,
				File:     filename,
				Line:     l.Line,
				Message:  fmt.Sprintf("link %s returned status %d", l.Target, res.Status),
			})
		}
		job.AddLinks(1, broken)
	}

	return w.lintCfg.Apply(findings)
}
