// Package diag produces numbered line windows so an operator can confirm a
// boundary before trusting an automated edit.
package diag

import (
	"fmt"
	"strings"

	"github.com/sokinpui/vpatch.go/model"
)

// DefaultRadius is the number of lines shown on each side of the center line.
const DefaultRadius = 5

// Window returns the lines within radius of center (0-based), numbered from 1.
// The window is clamped to the document; an empty document yields nil.
func Window(lines []string, center, radius int) []model.ContextLine {
	if len(lines) == 0 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}
	if center < 0 {
		center = 0
	}
	if center >= len(lines) {
		center = len(lines) - 1
	}
	lo := max(0, center-radius)
	hi := min(len(lines), center+radius+1)

	out := make([]model.ContextLine, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, model.ContextLine{
			Number: i + 1,
			Text:   lines[i],
			Center: i == center,
		})
	}
	return out
}

// Render formats a window, marking the center line with '>'.
func Render(window []model.ContextLine) string {
	if len(window) == 0 {
		return ""
	}
	width := len(fmt.Sprint(window[len(window)-1].Number))
	var b strings.Builder
	for _, l := range window {
		marker := " "
		if l.Center {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %*d: %s\n", marker, width, l.Number, strings.TrimRight(l.Text, "\r"))
	}
	return b.String()
}
