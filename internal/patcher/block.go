package patcher

import (
	"errors"
	"strings"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/model"
)

// Block describes a span delimited by two anchors and the text that replaces it.
type Block struct {
	Start   string
	End     string
	Content string
	// KeepEnd leaves the end anchor in place: the span is [start, endStart).
	KeepEnd bool
}

// Replace substitutes old with new. With all set every occurrence is replaced;
// otherwise the match is resolved under the policy. It returns the number of
// replacements made.
func Replace(text, old, new string, all bool, p anchor.Policy) (string, int, error) {
	if all {
		n := anchor.Count(text, old, 0)
		if n == 0 {
			if old == "" {
				return text, 0, anchor.ErrEmptyPattern
			}
			return text, 0, anchor.ErrNotFound
		}
		return strings.ReplaceAll(text, old, new), n, nil
	}
	pos, err := anchor.Resolve(text, anchor.Anchor{Pattern: old}, p)
	if err != nil {
		return text, 0, err
	}
	return text[:pos] + new + text[pos+len(old):], 1, nil
}

// ReplaceBlock replaces the span from the start anchor to the end anchor with
// b.Content. The end anchor is searched strictly after the start match, so it
// can never resolve backwards. On any error text is returned unchanged.
func ReplaceBlock(text string, b Block, p anchor.Policy) (string, error) {
	start, end, err := FindBlock(text, b, p)
	if err != nil {
		return text, err
	}
	return text[:start] + b.Content + text[end:], nil
}

// FindBlock resolves the byte span [start, end) that ReplaceBlock would replace.
// The policy applies to the start anchor; the end anchor is the nearest match
// after it.
func FindBlock(text string, b Block, p anchor.Policy) (int, int, error) {
	if b.End == "" {
		return 0, 0, &BoundaryError{Start: b.Start, End: b.End, Detail: "end anchor is empty"}
	}
	start, err := anchor.Resolve(text, anchor.Anchor{Pattern: b.Start}, p)
	if err != nil {
		return 0, 0, err
	}
	after := start + len(b.Start)
	endPos, err := anchor.Locate(text, anchor.Anchor{Pattern: b.End, From: after})
	if err != nil {
		if !errors.Is(err, anchor.ErrNotFound) {
			return 0, 0, err
		}
		detail := "end anchor not found after start anchor"
		if before, berr := anchor.Locate(text, anchor.Anchor{Pattern: b.End}); berr == nil && before < after {
			detail = "end anchor only occurs before start anchor"
		}
		return 0, 0, &BoundaryError{Start: b.Start, End: b.End, Detail: detail}
	}
	if b.KeepEnd {
		return start, endPos, nil
	}
	return start, endPos + len(b.End), nil
}

// Insert places content immediately before or after the anchor match.
func Insert(text, at, content string, pos model.Position, p anchor.Policy) (string, error) {
	idx, err := anchor.Resolve(text, anchor.Anchor{Pattern: at}, p)
	if err != nil {
		return text, err
	}
	if pos == model.After {
		idx += len(at)
	}
	return text[:idx] + content + text[idx:], nil
}
