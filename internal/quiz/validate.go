package quiz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lessonlint/lessonlint/internal/lint"
)

// Check extracts all quiz blocks from Markdown source and validates them.
// Blocks are returned even when invalid, with best-effort fields, so reports
// can show what was authored.
func Check(filename string, src []byte) ([]Block, []lint.Finding) {
	raws := scan(src)
	blocks := make([]Block, 0, len(raws))
	var findings []lint.Finding

	seen := map[string]int{} // id -> line of first occurrence

	add := func(rule string, sev lint.Severity, line int, format string, args ...any) {
		findings = append(findings, lint.Finding{
			Rule:     rule,
			Severity: sev,
			File:     filename,
			Line:     line,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for _, raw := range raws {
		b := Block{
			ID:      raw.id,
			Class:   raw.class,
			Prompt:  raw.prompt,
			Options: raw.options,
			Line:    raw.line,
		}

		if len(raw.junk) > 0 {
			add("quiz-syntax", lint.SeverityError, raw.line,
				"unparseable text in quiz attributes: %q", strings.Join(raw.junk, " "))
		}
		if raw.class != "choose_best" {
			add("quiz-syntax", lint.SeverityWarning, raw.line,
				"unsupported quiz class %q (expected choose_best)", raw.class)
		}

		// #id: required, slug-safe, unique per document.
		switch {
		case raw.id == "":
			add("quiz-id", lint.SeverityError, raw.line, "quiz block has no #id")
		case !lint.IsSlug(strings.ToLower(raw.id)):
			add("quiz-id", lint.SeverityError, raw.line, "quiz id %q is not a safe identifier", raw.id)
		default:
			if first, dup := seen[raw.id]; dup {
				add("quiz-id", lint.SeverityError, raw.line,
					"quiz id %q already used on line %d", raw.id, first)
			} else {
				seen[raw.id] = raw.line
			}
		}

		// title: required for rendering.
		if titles := raw.attrValues("title"); len(titles) == 0 || strings.TrimSpace(titles[0]) == "" {
			add("quiz-title", lint.SeverityWarning, raw.line, "quiz block has no title")
		} else {
			b.Title = titles[0]
		}

		// points: positive integer, default 1 when omitted.
		b.Points = 1
		if points := raw.attrValues("points"); len(points) > 0 {
			n, err := strconv.Atoi(points[0])
			if err != nil || n <= 0 {
				add("quiz-points", lint.SeverityError, raw.line,
					"points must be a positive integer, got %q", points[0])
			} else {
				b.Points = n
			}
		}

		// options: the numbered list preceding the attribute line.
		if len(raw.options) == 0 {
			add("quiz-options", lint.SeverityError, raw.line,
				"quiz block has no option list")
		} else if len(raw.options) < 2 {
			add("quiz-options", lint.SeverityError, raw.line,
				"quiz block needs at least two options, found %d", len(raw.options))
		}

		// answer: exactly one, integer, indexing an existing option.
		answers := raw.attrValues("answer")
		switch {
		case len(answers) == 0:
			add("quiz-answer", lint.SeverityError, raw.line, "quiz block has no answer attribute")
		case len(answers) > 1:
			add("quiz-answer", lint.SeverityError, raw.line,
				"quiz block has %d answer attributes, expected exactly one", len(answers))
		default:
			n, err := strconv.Atoi(answers[0])
			if err != nil {
				add("quiz-answer", lint.SeverityError, raw.line,
					"answer must be an integer option index, got %q", answers[0])
			} else if len(raw.options) > 0 && (n < 1 || n > len(raw.options)) {
				add("quiz-answer", lint.SeverityError, raw.line,
					"answer %d is out of range for %d options", n, len(raw.options))
			} else {
				b.Answer = n
			}
		}

		blocks = append(blocks, b)
	}

	return blocks, findings
}
