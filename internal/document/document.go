// Package document holds the in-memory form of a file being patched: the raw
// text used for substring search and the line sequence used for range edits.
package document

import "strings"

// Document is a text file split into lines. Lines carry no "\n" terminator;
// a "\r" from CRLF files stays part of the line so the text round-trips unchanged.
type Document struct {
	Path         string
	lines        []string
	finalNewline bool
}

// Parse splits text into a Document. Parse(s).Text() == s for every s.
func Parse(path, text string) *Document {
	d := &Document{Path: path}
	d.SetText(text)
	return d
}

// Text returns the document as a single string.
func (d *Document) Text() string {
	s := strings.Join(d.lines, "\n")
	if d.finalNewline {
		s += "\n"
	}
	return s
}

// SetText replaces the whole document content.
func (d *Document) SetText(text string) {
	d.finalNewline = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" && !d.finalNewline {
		d.lines = []string{}
		return
	}
	d.lines = strings.Split(text, "\n")
}

// Lines returns a copy of the line view.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// SetLines replaces the line view, keeping the trailing newline state.
func (d *Document) SetLines(lines []string) {
	d.lines = make([]string, len(lines))
	copy(d.lines, lines)
}

// Len returns the number of lines.
func (d *Document) Len() int {
	return len(d.lines)
}

// LineAt returns the 0-based line number containing byte offset off.
func (d *Document) LineAt(off int) int {
	if off <= 0 {
		return 0
	}
	text := d.Text()
	if off > len(text) {
		off = len(text)
	}
	return strings.Count(text[:off], "\n")
}

// SplitLines splits text the way Parse does, for callers that only need the line view.
func SplitLines(text string) []string {
	return Parse("", text).lines
}
