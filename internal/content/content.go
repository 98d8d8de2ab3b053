package content

// Document is the root of a parsed lesson file.
type Document struct {
	Title    string     // Document title (from first heading, metadata, or filename)
	Filename string     // Source filename as uploaded
	Sections []*Section // Top-level sections

	// Flat inventories collected during parsing, used by lint rules.
	Links      []Link
	Images     []Image
	CodeFences []CodeFence
}

// Section is a recursive heading-delimited region of the document.
type Section struct {
	Title    string     // Heading text (empty for leading untitled content)
	Level    int        // Heading level 1-6 (0 for untitled content)
	Line     int        // 1-based source line of the heading (0 if N/A)
	Text     string     // Prose under this heading, before any subsection
	Children []*Section // Subsections
}

// Link is a hyperlink found anywhere in the document.
type Link struct {
	Text   string // Link text (may be empty)
	Target string // Destination: URL, relative path, or #fragment
	Line   int    // 1-based source line (0 if unknown)
}

// Image is an embedded image reference.
type Image struct {
	Alt    string
	Target string
	Line   int
}

// CodeFence is a fenced or indented code block.
type CodeFence struct {
	Language string // Info string language, e.g. "js" (empty if none)
	Line     int
}

// Walk visits every section depth-first.
func (d *Document) Walk(fn func(s *Section)) {
	var visit func(sections []*Section)
	visit = func(sections []*Section) {
		for _, s := range sections {
			fn(s)
			visit(s.Children)
		}
	}
	visit(d.Sections)
}

// Headings returns all sections with a non-zero heading level, in document order.
func (d *Document) Headings() []*Section {
	var out []*Section
	d.Walk(func(s *Section) {
		if s.Level > 0 {
			out = append(out, s)
		}
	})
	return out
}
