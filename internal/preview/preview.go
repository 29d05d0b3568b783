// Package preview renders pending document changes as unified diffs.
package preview

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

type lineKind int

const (
	same lineKind = iota
	removed
	added
)

type line struct {
	kind lineKind
	text string
}

// Unified returns a unified diff turning before into after, labelled with
// path. It returns "" when the texts are equal.
func Unified(path, before, after string, context int) (string, error) {
	if before == after {
		return "", nil
	}
	if context < 0 {
		context = DefaultContext
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    hunks(lineDiff(before, after), context),
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func lineDiff(before, after string) []line {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []line
	for _, d := range diffs {
		kind := same
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = removed
		case diffmatchpatch.DiffInsert:
			kind = added
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			out = append(out, line{kind: kind, text: text})
		}
	}
	return out
}

// hunks groups the line diff into hunks, merging changes whose context
// windows touch.
func hunks(ls []line, context int) []*diff.Hunk {
	var result []*diff.Hunk

	i := 0
	oldLine, newLine := 0, 0
	for i < len(ls) {
		if ls[i].kind == same {
			i++
			oldLine++
			newLine++
			continue
		}

		lead := 0
		for lead < context && i-lead-1 >= 0 && ls[i-lead-1].kind == same {
			lead++
		}
		start := i - lead
		oldStart, newStart := oldLine-lead, newLine-lead

		// Extend to the last change reachable without a gap wider than
		// two context windows.
		end := i
		gap := 0
		for j := i; j < len(ls) && gap <= 2*context; j++ {
			if ls[j].kind == same {
				gap++
				continue
			}
			gap = 0
			end = j
		}
		stop := end + 1
		for k := 0; k < context && stop < len(ls) && ls[stop].kind == same; k++ {
			stop++
		}

		h := &diff.Hunk{}
		var body strings.Builder
		var origLines, newLines int32
		for _, l := range ls[start:stop] {
			switch l.kind {
			case same:
				body.WriteString(" " + terminate(l.text))
				origLines++
				newLines++
			case removed:
				body.WriteString("-" + terminate(l.text))
				origLines++
			case added:
				body.WriteString("+" + terminate(l.text))
				newLines++
			}
		}
		h.OrigLines, h.NewLines = origLines, newLines
		h.OrigStartLine = startLine(oldStart, origLines)
		h.NewStartLine = startLine(newStart, newLines)
		h.Body = []byte(body.String())
		result = append(result, h)

		for _, l := range ls[i:stop] {
			if l.kind != added {
				oldLine++
			}
			if l.kind != removed {
				newLine++
			}
		}
		i = stop
	}
	return result
}

// noNewline marks a last line that has no trailing newline.
const noNewline = "\\ No newline at end of file\n"

// terminate ends a body line, adding the no-newline marker when the source
// line had no newline of its own.
func terminate(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n" + noNewline
}

// startLine converts a 0-based index to a hunk header line number. Empty
// sides name the line before the change.
func startLine(index int, count int32) int32 {
	if count == 0 {
		return int32(index)
	}
	return int32(index + 1)
}
