// Package anchor locates literal markers inside a document.
package anchor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Errors returned by anchor resolution.
var (
	// ErrNotFound indicates the literal pattern does not occur in the searched text.
	ErrNotFound = errors.New("anchor not found")

	// ErrAmbiguous indicates the pattern occurs more than once under the unique policy.
	ErrAmbiguous = errors.New("anchor matches more than once")

	// ErrEmptyPattern indicates an anchor with no text.
	ErrEmptyPattern = errors.New("anchor pattern is empty")
)

// Policy decides what happens when an anchor matches several times.
type Policy string

const (
	// Unique fails when the anchor matches more than once.
	Unique Policy = "unique"
	// First takes the first match.
	First Policy = "first"
)

// ParsePolicy converts a flag or plan value into a Policy. Empty means Unique.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Unique:
		return Unique, nil
	case First:
		return First, nil
	}
	return "", fmt.Errorf("unknown anchor policy %q (want unique or first)", s)
}

// Anchor is a literal pattern and the offset the search starts from.
type Anchor struct {
	Pattern string
	From    int
}

// AmbiguousError reports how many times an anchor matched.
type AmbiguousError struct {
	Pattern string
	Count   int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("anchor %q matches %d times; make it longer or allow the first match", Short(e.Pattern), e.Count)
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// Locate returns the byte offset of the first occurrence of a.Pattern at or
// after a.From.
func Locate(text string, a Anchor) (int, error) {
	if a.Pattern == "" {
		return -1, ErrEmptyPattern
	}
	from := clamp(a.From, len(text))
	idx := strings.Index(text[from:], a.Pattern)
	if idx < 0 {
		return -1, ErrNotFound
	}
	return from + idx, nil
}

// Count returns the number of non-overlapping occurrences of pattern at or after from.
func Count(text, pattern string, from int) int {
	if pattern == "" {
		return 0
	}
	return strings.Count(text[clamp(from, len(text)):], pattern)
}

// Resolve locates a and applies the policy to multiple matches.
func Resolve(text string, a Anchor, p Policy) (int, error) {
	pos, err := Locate(text, a)
	if err != nil {
		return -1, err
	}
	if p != First {
		if n := Count(text, a.Pattern, a.From); n > 1 {
			return -1, &AmbiguousError{Pattern: a.Pattern, Count: n}
		}
	}
	return pos, nil
}

// Contains reports whether pattern occurs anywhere in text.
func Contains(text, pattern string) bool {
	return pattern != "" && strings.Contains(text, pattern)
}

// NearMiss looks for the first non-blank line of pattern in lines, ignoring
// differences in whitespace. It returns the 0-based line or -1. Used to point
// an operator at an anchor that drifted only in indentation.
func NearMiss(lines []string, pattern string) int {
	var needle string
	for _, l := range strings.Split(pattern, "\n") {
		if n := normalize(l); n != "" {
			needle = n
			break
		}
	}
	if needle == "" {
		return -1
	}
	for i, line := range lines {
		if strings.Contains(normalize(line), needle) {
			return i
		}
	}
	return -1
}

// Short truncates a pattern for messages.
func Short(pattern string) string {
	const max = 60
	p := strings.ReplaceAll(pattern, "\n", `\n`)
	if utf8.RuneCountInString(p) > max {
		return string([]rune(p)[:max]) + "..."
	}
	return p
}

// normalize trims a line and collapses internal whitespace runs to one space.
func normalize(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
