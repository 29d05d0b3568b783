// Package lines implements range edits over a document's line sequence:
// partition checks, reordering, relocation and boundary verification.
package lines

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by line range operations.
var (
	// ErrRangePartition indicates ranges that do not exactly partition the document.
	// A reorder built on such ranges would drop or duplicate lines.
	ErrRangePartition = errors.New("line ranges do not partition the document")

	// ErrBoundary indicates a range whose edges do not hold the expected lines,
	// or a move whose destination is inconsistent with its source.
	ErrBoundary = errors.New("line range boundary mismatch")
)

// PartitionError describes why a set of ranges is not a partition.
type PartitionError struct {
	Ranges []Range
	Total  int
	Detail string
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%v over %d lines: %s", e.Ranges, e.Total, e.Detail)
}

func (e *PartitionError) Unwrap() error { return ErrRangePartition }

// BoundaryMismatch reports the line that failed verification.
type BoundaryMismatch struct {
	Line     int // 0-based
	Expected string
	Actual   string
	Detail   string
}

func (e *BoundaryMismatch) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("line %d: expected %q, found %q", e.Line+1, e.Expected, e.Actual)
}

func (e *BoundaryMismatch) Unwrap() error { return ErrBoundary }

// Validate checks that ranges, taken together, cover [0, n) with no gaps and
// no overlaps. Order of the slice does not matter.
func Validate(ranges []Range, n int) error {
	end, err := validatePrefix(ranges, n)
	if err != nil {
		return err
	}
	if end != n {
		return &PartitionError{Ranges: ranges, Total: n, Detail: fmt.Sprintf("lines [%d,%d) are not covered", end, n)}
	}
	return nil
}

// validatePrefix checks that ranges partition [0, k) for some k <= n and returns k.
func validatePrefix(ranges []Range, n int) (int, error) {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	next := 0
	var prev Range
	for i, r := range sorted {
		if !r.IsValid() {
			return 0, &PartitionError{Ranges: ranges, Total: n, Detail: fmt.Sprintf("range %s is inverted or negative", r)}
		}
		if r.End > n {
			return 0, &PartitionError{Ranges: ranges, Total: n, Detail: fmt.Sprintf("range %s runs past the last line", r)}
		}
		if r.Start > next {
			return 0, &PartitionError{Ranges: ranges, Total: n, Detail: fmt.Sprintf("gap at lines [%d,%d)", next, r.Start)}
		}
		if i > 0 && prev.Overlaps(r) {
			return 0, &PartitionError{Ranges: ranges, Total: n, Detail: fmt.Sprintf("range %s overlaps %s", r, prev)}
		}
		next, prev = r.End, r
	}
	return next, nil
}

// Reorder concatenates ranges in the given order and appends the untouched
// trailing lines after the last range. The ranges must partition a prefix of
// lines and order must name every range exactly once; otherwise nothing is
// produced and a *PartitionError is returned.
func Reorder(lines []string, ranges []Range, order []int) ([]string, error) {
	end, err := validatePrefix(ranges, len(lines))
	if err != nil {
		return nil, err
	}
	if len(order) != len(ranges) {
		return nil, &PartitionError{Ranges: ranges, Total: len(lines), Detail: fmt.Sprintf("order has %d entries for %d ranges", len(order), len(ranges))}
	}
	seen := make([]bool, len(ranges))
	for _, idx := range order {
		if idx < 0 || idx >= len(ranges) || seen[idx] {
			return nil, &PartitionError{Ranges: ranges, Total: len(lines), Detail: fmt.Sprintf("order %v does not name each range once", order)}
		}
		seen[idx] = true
	}

	out := make([]string, 0, len(lines))
	for _, idx := range order {
		r := ranges[idx]
		out = append(out, lines[r.Start:r.End]...)
	}
	out = append(out, lines[end:]...)
	return out, nil
}

// MovePlan returns the partition and order that relocate from so that it
// starts just before line to. The destination may not fall inside from, and a
// destination at either edge of from would leave the document unchanged.
func MovePlan(from Range, to, n int) ([]Range, []int, error) {
	if !from.IsValid() || from.IsEmpty() || from.End > n {
		return nil, nil, &PartitionError{Ranges: []Range{from}, Total: n, Detail: fmt.Sprintf("source range %s is not inside the document", from)}
	}
	if to < 0 || to > n {
		return nil, nil, &BoundaryMismatch{Line: to, Detail: fmt.Sprintf("destination line %d is outside the document (%d lines)", to, n)}
	}
	switch {
	case to < from.Start:
		return []Range{{0, to}, {to, from.Start}, from, {from.End, n}}, []int{0, 2, 1, 3}, nil
	case to > from.End:
		return []Range{{0, from.Start}, from, {from.End, to}, {to, n}}, []int{0, 2, 1, 3}, nil
	}
	return nil, nil, &BoundaryMismatch{Line: to, Detail: fmt.Sprintf("destination line %d is inside or at the edge of source range %s", to, from)}
}

// Move relocates the lines in from to just before line to.
func Move(lines []string, from Range, to int) ([]string, error) {
	ranges, order, err := MovePlan(from, to, len(lines))
	if err != nil {
		return nil, err
	}
	if err := Validate(ranges, len(lines)); err != nil {
		return nil, err
	}
	return Reorder(lines, ranges, order)
}

// Replace substitutes the lines in r with repl.
func Replace(lines []string, r Range, repl []string) ([]string, error) {
	if err := Validate([]Range{{0, r.Start}, r, {r.End, len(lines)}}, len(lines)); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines)-r.Len()+len(repl))
	out = append(out, lines[:r.Start]...)
	out = append(out, repl...)
	out = append(out, lines[r.End:]...)
	return out, nil
}

// Verify checks that the first and last line of r hold the expected text,
// compared after trimming surrounding whitespace. Empty expectations are not checked.
// A range outside the document is a *PartitionError whatever is expected.
func Verify(lines []string, r Range, expectFirst, expectLast string) error {
	if !r.IsValid() || r.End > len(lines) {
		return &PartitionError{Ranges: []Range{r}, Total: len(lines), Detail: fmt.Sprintf("range %s is not inside the document", r)}
	}
	if r.IsEmpty() {
		if expectFirst == "" && expectLast == "" {
			return nil
		}
		return &BoundaryMismatch{Line: r.Start, Detail: fmt.Sprintf("empty range %s has no lines to verify", r)}
	}
	if expectFirst != "" {
		if got := lines[r.Start]; !sameLine(got, expectFirst) {
			return &BoundaryMismatch{Line: r.Start, Expected: expectFirst, Actual: strings.TrimSpace(got)}
		}
	}
	if expectLast != "" {
		if got := lines[r.End-1]; !sameLine(got, expectLast) {
			return &BoundaryMismatch{Line: r.End - 1, Expected: expectLast, Actual: strings.TrimSpace(got)}
		}
	}
	return nil
}

func sameLine(line, expected string) bool {
	return strings.TrimSpace(line) == strings.TrimSpace(expected)
}
