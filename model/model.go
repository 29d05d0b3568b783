package model

import "fmt"

// Kind identifies the variant of an edit operation.
type Kind string

const (
	KindReplace      Kind = "replace"
	KindBlockReplace Kind = "block_replace"
	KindInsert       Kind = "insert"
	KindLineMove     Kind = "line_move"
	KindLineReplace  Kind = "line_replace"
	KindFieldUpdate  Kind = "field_update"
)

// IsDocumentEdit reports whether operations of this kind edit the target document
// (as opposed to a configuration record).
func (k Kind) IsDocumentEdit() bool {
	return k != KindFieldUpdate
}

// Position selects where an insert places its content relative to the anchor.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// LineSpan is a half-open, 0-based line interval as written in plans: [Start, End).
type LineSpan struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

func (s LineSpan) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Operation is a single self-contained edit in a plan. Which fields are
// meaningful depends on Kind.
type Operation struct {
	ID   string `yaml:"id"`
	Kind Kind   `yaml:"kind" validate:"required,oneof=replace block_replace insert line_move line_replace field_update"`

	// Guard is the post-condition anchor: its presence means the edit already happened.
	Guard string `yaml:"guard"`
	// FirstMatch accepts the first of several anchor matches instead of failing.
	FirstMatch bool `yaml:"firstMatch"`

	// replace
	Old string `yaml:"old" validate:"required_if=Kind replace"`
	New string `yaml:"new"`
	All bool   `yaml:"all"`

	// block_replace
	Start   string `yaml:"start" validate:"required_if=Kind block_replace"`
	End     string `yaml:"end" validate:"required_if=Kind block_replace"`
	KeepEnd bool   `yaml:"keepEnd"`

	// insert
	Anchor   string   `yaml:"anchor" validate:"required_if=Kind insert"`
	Position Position `yaml:"position" validate:"omitempty,oneof=before after"`

	// block_replace, insert, line_replace
	Content string `yaml:"content"`

	// line_move, line_replace
	From        *LineSpan `yaml:"from" validate:"required_if=Kind line_move,required_if=Kind line_replace"`
	To          int       `yaml:"to"`
	ExpectFirst string    `yaml:"expectFirst"`
	ExpectLast  string    `yaml:"expectLast"`

	// field_update
	File  string `yaml:"file"`
	Key   string `yaml:"key" validate:"required_if=Kind field_update"`
	Value any    `yaml:"value"`
}

// Status is the outcome of one operation.
type Status string

const (
	Applied               Status = "applied"
	SkippedAlreadyApplied Status = "skipped"
	Failed                Status = "failed"
)

// Failure classifies why an operation failed.
type Failure string

const (
	AnchorNotFound      Failure = "AnchorNotFound"
	AmbiguousAnchor     Failure = "AmbiguousAnchor"
	BoundaryError       Failure = "BoundaryError"
	RangePartitionError Failure = "RangePartitionError"
	MalformedRecord     Failure = "MalformedRecord"
	FieldMissing        Failure = "FieldMissing"
	Unguarded           Failure = "Unguarded"
	IOError             Failure = "IOError"
)

// ContextLine is one numbered line of a diagnostic window.
type ContextLine struct {
	Number int
	Text   string
	Center bool
}

// PatchResult is the outcome of a single operation.
type PatchResult struct {
	ID      string
	Kind    Kind
	File    string
	Status  Status
	Failure Failure
	Reason  string
	Context []ContextLine
}

// Summary holds the results of a run for display.
type Summary struct {
	RunID     string
	Results   []PatchResult
	Written   []string
	Unchanged []string
	Previews  map[string]string
	Aborted   bool
	Message   string
}

// Count returns how many results have the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// OK reports whether the run finished without failures.
func (s Summary) OK() bool {
	return !s.Aborted && s.Count(Failed) == 0
}
