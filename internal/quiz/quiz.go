// Package quiz parses and validates the inline quiz annotations embedded in
// Markdown lessons. A quiz block is a prompt paragraph, a numbered option
// list, and a trailing attribute line:
//
//	{: .choose_best #page_lifecycle_1 title="When does load fire?" points="1" answer="2" }
package quiz

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// Block is one authored quiz question.
type Block struct {
	ID      string   `json:"id"`
	Class   string   `json:"class"`
	Title   string   `json:"title"`
	Points  int      `json:"points"`
	Answer  int      `json:"answer"` // 1-based index into Options
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Line    int      `json:"line"` // 1-based line of the attribute line
}

// rawBlock holds a block before attribute validation.
type rawBlock struct {
	class   string
	id      string
	attrs   []attr // key="value" pairs in source order
	junk    []string
	prompt  string
	options []string
	line    int
}

type attr struct {
	key string
	val string
}

var (
	attrLineRe = regexp.MustCompile(`^\{:\s*(.*?)\s*\}\s*$`)
	tokenRe    = regexp.MustCompile(`\.[A-Za-z0-9_-]+|#[A-Za-z0-9_-]+|[A-Za-z0-9_-]+="[^"]*"`)
	listItemRe = regexp.MustCompile(`^\s{0,3}\d+[.)]\s+(.*)$`)
)

// scan walks the Markdown source and extracts raw quiz blocks. Attribute
// lines whose class is not a quiz class are styling hints and are skipped.
func scan(src []byte) []rawBlock {
	var blocks []rawBlock

	var paraBuf []string
	lastPara := ""
	var options []string
	listPending := false

	flushPara := func() {
		if len(paraBuf) > 0 {
			lastPara = strings.TrimSpace(strings.Join(paraBuf, "\n"))
			paraBuf = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	inFence := false

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// Quiz annotations never live inside code fences.
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := attrLineRe.FindStringSubmatch(trimmed); m != nil {
			raw := parseAttrLine(m[1])
			raw.line = lineNo
			if strings.HasPrefix(raw.class, "choose_") {
				flushPara()
				raw.prompt = lastPara
				raw.options = options
				blocks = append(blocks, raw)
			}
			options = nil
			listPending = false
			continue
		}

		if m := listItemRe.FindStringSubmatch(line); m != nil {
			flushPara()
			if !listPending {
				options = nil
				listPending = true
			}
			options = append(options, strings.TrimSpace(m[1]))
			continue
		}

		if trimmed == "" {
			flushPara()
			continue
		}

		// Indented continuation of the current option.
		if listPending && (strings.HasPrefix(line, "   ") || strings.HasPrefix(line, "\t")) && len(options) > 0 {
			options[len(options)-1] += " " + trimmed
			continue
		}

		// New prose invalidates any pending option list.
		listPending = false
		options = nil
		paraBuf = append(paraBuf, line)
	}

	return blocks
}

// parseAttrLine tokenizes the inside of a {: ... } attribute line.
func parseAttrLine(inner string) rawBlock {
	var raw rawBlock
	matched := tokenRe.FindAllString(inner, -1)
	leftover := tokenRe.ReplaceAllString(inner, "")
	if strings.TrimSpace(leftover) != "" {
		raw.junk = append(raw.junk, strings.TrimSpace(leftover))
	}
	for _, tok := range matched {
		switch {
		case strings.HasPrefix(tok, "."):
			raw.class = strings.TrimPrefix(tok, ".")
		case strings.HasPrefix(tok, "#"):
			raw.id = strings.TrimPrefix(tok, "#")
		default:
			eq := strings.IndexByte(tok, '=')
			key := tok[:eq]
			val := strings.Trim(tok[eq+1:], `"`)
			raw.attrs = append(raw.attrs, attr{key: key, val: val})
		}
	}
	return raw
}

func (r rawBlock) attrValues(key string) []string {
	var out []string
	for _, a := range r.attrs {
		if a.key == key {
			out = append(out, a.val)
		}
	}
	return out
}
