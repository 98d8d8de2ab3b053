package lint

import (
	"fmt"
	"strings"

	"github.com/lessonlint/lessonlint/internal/content"
)

// Rule checks one structural property of a parsed lesson.
type Rule interface {
	ID() string
	Check(doc *content.Document, src []byte) []Finding
}

// Options configures context-dependent rules.
type Options struct {
	// ResolveLink reports whether a relative link target exists. When nil,
	// the relative-link rule is skipped (no way to resolve).
	ResolveLink func(target string) bool
}

// Runner applies the configured rule set to a document.
type Runner struct {
	cfg   Config
	rules []Rule
}

// NewRunner builds a runner with the full structural rule set.
func NewRunner(cfg Config, opts Options) *Runner {
	return &Runner{
		cfg: cfg,
		rules: []Rule{
			headingIncrementRule{},
			singleTitleRule{},
			duplicateHeadingRule{},
			emptySectionRule{},
			internalAnchorRule{},
			relativeLinkRule{resolve: opts.ResolveLink},
			imageAltRule{},
		},
	}
}

// Check runs all enabled rules and returns findings sorted and tagged with
// the document's filename, with configured severity overrides applied.
func (r *Runner) Check(doc *content.Document, src []byte) []Finding {
	var out []Finding
	for _, rule := range r.rules {
		if !r.cfg.Enabled(rule.ID()) {
			continue
		}
		out = append(out, rule.Check(doc, src)...)
	}
	for i := range out {
		out[i].File = doc.Filename
	}
	out = r.cfg.Apply(out)
	Sort(out)
	return out
}

// heading-increment: heading levels must not skip (h2 followed by h4).
type headingIncrementRule struct{}

func (headingIncrementRule) ID() string { return "heading-increment" }

func (headingIncrementRule) Check(doc *content.Document, _ []byte) []Finding {
	var out []Finding
	prev := 0
	for _, h := range doc.Headings() {
		if prev > 0 && h.Level > prev+1 {
			out = append(out, Finding{
				Rule:     "heading-increment",
				Severity: SeverityWarning,
				Line:     h.Line,
				Message:  fmt.Sprintf("heading level jumps from h%d to h%d: %q", prev, h.Level, h.Title),
			})
		}
		prev = h.Level
	}
	return out
}

// single-title: exactly one h1 per document.
type singleTitleRule struct{}

func (singleTitleRule) ID() string { return "single-title" }

func (singleTitleRule) Check(doc *content.Document, _ []byte) []Finding {
	var out []Finding
	seen := 0
	for _, h := range doc.Headings() {
		if h.Level != 1 {
			continue
		}
		seen++
		if seen > 1 {
			out = append(out, Finding{
				Rule:     "single-title",
				Severity: SeverityWarning,
				Line:     h.Line,
				Message:  fmt.Sprintf("multiple top-level headings: %q", h.Title),
			})
		}
	}
	if seen == 0 && len(doc.Headings()) > 0 {
		out = append(out, Finding{
			Rule:     "single-title",
			Severity: SeverityWarning,
			Line:     doc.Headings()[0].Line,
			Message:  "document has headings but no top-level (h1) title",
		})
	}
	return out
}

// duplicate-heading: two headings that produce the same anchor slug.
type duplicateHeadingRule struct{}

func (duplicateHeadingRule) ID() string { return "duplicate-heading" }

func (duplicateHeadingRule) Check(doc *content.Document, _ []byte) []Finding {
	var out []Finding
	seen := map[string]string{}
	for _, h := range doc.Headings() {
		slug := Slugify(h.Title)
		if slug == "" {
			continue
		}
		if first, ok := seen[slug]; ok {
			out = append(out, Finding{
				Rule:     "duplicate-heading",
				Severity: SeverityWarning,
				Line:     h.Line,
				Message:  fmt.Sprintf("heading %q duplicates anchor of %q", h.Title, first),
			})
			continue
		}
		seen[slug] = h.Title
	}
	return out
}

// empty-section: a heading with no prose and no subsections.
type emptySectionRule struct{}

func (emptySectionRule) ID() string { return "empty-section" }

func (emptySectionRule) Check(doc *content.Document, _ []byte) []Finding {
	var out []Finding
	doc.Walk(func(s *content.Section) {
		if s.Level > 0 && strings.TrimSpace(s.Text) == "" && len(s.Children) == 0 {
			out = append(out, Finding{
				Rule:     "empty-section",
				Severity: SeverityWarning,
				Line:     s.Line,
				Message:  fmt.Sprintf("section %q has no content", s.Title),
			})
		}
	})
	return out
}

// internal-anchor: #fragment links must match a heading anchor.
type internalAnchorRule struct{}

func (internalAnchorRule) ID() string { return "internal-anchor" }

func (internalAnchorRule) Check(doc *content.Document, _ []byte) []Finding {
	anchors := map[string]bool{}
	for _, h := range doc.Headings() {
		anchors[Slugify(h.Title)] = true
	}

	var out []Finding
	for _, l := range doc.Links {
		if !strings.HasPrefix(l.Target, "#") {
			continue
		}
		frag := strings.TrimPrefix(l.Target, "#")
		if frag == "" || anchors[frag] {
			continue
		}
		out = append(out, Finding{
			Rule:     "internal-anchor",
			Severity: SeverityError,
			Line:     l.Line,
			Message:  fmt.Sprintf("link target %q matches no heading anchor", l.Target),
		})
	}
	return out
}

// relative-link: relative targets must resolve against the lint set.
type relativeLinkRule struct {
	resolve func(target string) bool
}

func (relativeLinkRule) ID() string { return "relative-link" }

func (r relativeLinkRule) Check(doc *content.Document, _ []byte) []Finding {
	if r.resolve == nil {
		return nil
	}
	var out []Finding
	for _, l := range doc.Links {
		target := l.Target
		if target == "" || strings.HasPrefix(target, "#") || IsExternalTarget(target) {
			continue
		}
		// Drop any fragment before resolving the path.
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		if target == "" || r.resolve(target) {
			continue
		}
		out = append(out, Finding{
			Rule:     "relative-link",
			Severity: SeverityError,
			Line:     l.Line,
			Message:  fmt.Sprintf("relative link target %q does not resolve", l.Target),
		})
	}
	return out
}

// image-alt: images need non-empty alt text.
type imageAltRule struct{}

func (imageAltRule) ID() string { return "image-alt" }

func (imageAltRule) Check(doc *content.Document, _ []byte) []Finding {
	var out []Finding
	for _, img := range doc.Images {
		if strings.TrimSpace(img.Alt) != "" {
			continue
		}
		out = append(out, Finding{
			Rule:     "image-alt",
			Severity: SeverityWarning,
			Line:     img.Line,
			Message:  fmt.Sprintf("image %q has no alt text", img.Target),
		})
	}
	return out
}

// IsExternalTarget reports whether a link target points off-site.
func IsExternalTarget(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") ||
		strings.HasPrefix(target, "mailto:")
}
