// Command lessonlint lints lesson files locally, without the HTTP service.
//
//	lessonlint [-rules rules.yml] [-format text|json] [-outline] [-links] path ...
//
// Paths may be files or directories; directories are walked for supported
// extensions. The exit code is 1 when any error-severity finding exists.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lessonlint/lessonlint/internal/content"
	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/linkcheck"
	"github.com/lessonlint/lessonlint/internal/outline"
	"github.com/lessonlint/lessonlint/internal/parser"
	"github.com/lessonlint/lessonlint/internal/pipeline"
	"github.com/lessonlint/lessonlint/internal/quiz"
	"github.com/lessonlint/lessonlint/internal/report"
)

func main() {
	rulesPath := flag.String("rules", "", "path to YAML rule configuration")
	format := flag.String("format", "text", "output format: text or json")
	showOutline := flag.Bool("outline", false, "include the reading-time outline in output")
	linksFlag := flag.Bool("links", false, "check external URLs over HTTP")
	linkTimeout := flag.Duration("link-timeout", 10*time.Second, "per-request timeout for link checks")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: lessonlint [flags] path ...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}

	lintCfg := lint.DefaultConfig()
	if *rulesPath != "" {
		var err error
		lintCfg, err = lint.LoadConfig(*rulesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	files, err := collectFiles(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no lintable files found")
		os.Exit(2)
	}

	var checker *linkcheck.Checker
	if *linksFlag {
		checker = linkcheck.NewChecker(*linkTimeout, 8)
		defer checker.Close()
	}

	rpt := report.New(pipeline.NewReportID())
	failed := false

	for _, path := range files {
		fr, err := lintPath(path, lintCfg, checker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		rpt.AddFile(*fr)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rpt)
	default:
		printText(rpt, *showOutline)
	}

	if failed || !rpt.Passed {
		os.Exit(1)
	}
}

// lintPath runs the full check set on one file, resolving relative links
// against the file's own directory.
func lintPath(path string, lintCfg lint.Config, checker *linkcheck.Checker) (*report.FileReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	// Report findings under the path as given on the command line.
	doc.Filename = path

	dir := filepath.Dir(path)
	runner := lint.NewRunner(lintCfg, lint.Options{
		ResolveLink: func(target string) bool {
			_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(target)))
			return err == nil
		},
	})

	findings := runner.Check(doc, data)

	var blocks []quiz.Block
	if parser.IsMarkdown(path) {
		var quizFindings []lint.Finding
		blocks, quizFindings = quiz.Check(path, data)
		findings = append(findings, lintCfg.Apply(quizFindings)...)
	}

	if checker != nil && lintCfg.Enabled("external-link") {
		findings = append(findings, lintCfg.Apply(checkLinks(doc, checker))...)
	}

	entries := outline.Build(doc)
	lint.Sort(findings)

	return &report.FileReport{
		Filename:       path,
		Title:          doc.Title,
		Findings:       findings,
		Quizzes:        blocks,
		Outline:        entries,
		ReadingMinutes: outline.TotalMinutes(entries),
	}, nil
}

// checkLinks verifies each external URL in the document, retrying transient
// failures with backoff.
func checkLinks(doc *content.Document, checker *linkcheck.Checker) []lint.Finding {
	ctx := context.Background()
	var findings []lint.Finding

	for _, l := range doc.Links {
		if !lint.IsExternalTarget(l.Target) || strings.HasPrefix(l.Target, "mailto:") {
			continue
		}

		var res linkcheck.Result
		var lastErr error
		for attempt := 0; attempt < pipeline.MaxRetries; attempt++ {
			res, lastErr = checker.Check(ctx, l.Target)
			if lastErr == nil || !pipeline.IsRetryable(lastErr) {
				break
			}
			time.Sleep(pipeline.Backoff(attempt))
		}

		if lastErr != nil {
			res.URL = l.Target
			if res.Error == "" {
				res.Error = lastErr.Error()
			}
			checker.Remember(res)
			findings = append(findings, lint.Finding{
				Rule:     "external-link",
				Severity: lint.SeverityError,
				File:     doc.Filename,
				Line:     l.Line,
				Message:  fmt.Sprintf("link %s is unreachable: %s", l.Target, res.Error),
			})
		} else if !res.OK {
			findings = append(findings, lint.Finding{
				Rule:     "external-link",
				Severity: lint.SeverityError,
				File:     doc.Filename,
				Line:     l.Line,
				Message:  fmt.Sprintf("link %s returned status %d", l.Target, res.Status),
			})
		}
	}
	return findings
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && parser.IsSupportedExtension(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func printText(rpt *report.Report, showOutline bool) {
	for _, fr := range rpt.Files {
		for _, f := range fr.Findings {
			fmt.Printf("%s:%d: [%s] %s: %s\n", f.File, f.Line, f.Severity, f.Rule, f.Message)
		}
		if showOutline {
			fmt.Printf("%s: outline (%d min):\n", fr.Filename, fr.ReadingMinutes)
			for _, e := range fr.Outline {
				indent := strings.Repeat("  ", len(e.Breadcrumb))
				title := e.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Printf("%s%s (%d words)\n", indent, title, e.Words)
			}
		}
	}
	fmt.Printf("%d files, %d quiz blocks: %d errors, %d warnings, %d infos\n",
		len(rpt.Files), rpt.QuizBlocks,
		rpt.Summary.Errors, rpt.Summary.Warnings, rpt.Summary.Infos)
}
