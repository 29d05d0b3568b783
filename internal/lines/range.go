package lines

import "fmt"

// Range is a half-open, 0-based line interval: [Start, End).
type Range struct {
	Start int // Inclusive first line
	End   int // Exclusive end line
}

// NewRange creates a Range from start and end line numbers.
func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Len returns the number of lines in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range has no lines.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid returns true if the range is not inverted and not negative.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

// Overlaps returns true if this range shares a line with other.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}
