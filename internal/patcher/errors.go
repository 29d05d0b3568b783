package patcher

import (
	"errors"
	"fmt"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/internal/lines"
	"github.com/sokinpui/vpatch.go/internal/record"
	"github.com/sokinpui/vpatch.go/model"
)

// Errors returned by the patch engine.
var (
	// ErrBoundary indicates start and end anchors that do not delimit a block.
	ErrBoundary = errors.New("block boundary error")

	// ErrUnguarded indicates an operation that inserts or moves content
	// without a post-condition anchor, so a re-run could not be detected.
	ErrUnguarded = errors.New("operation has no guard")

	// ErrNotDocumentOp indicates a record operation handed to the document engine.
	ErrNotDocumentOp = errors.New("not a document operation")

	// ErrAborted marks a run stopped by a fatal failure.
	ErrAborted = errors.New("run aborted")
)

// BoundaryError describes inconsistent start/end anchors.
type BoundaryError struct {
	Start  string
	End    string
	Detail string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("block %q .. %q: %s", anchor.Short(e.Start), anchor.Short(e.End), e.Detail)
}

func (e *BoundaryError) Unwrap() error { return ErrBoundary }

// Classify maps an error to its failure kind.
func Classify(err error) model.Failure {
	switch {
	case errors.Is(err, lines.ErrRangePartition):
		return model.RangePartitionError
	case errors.Is(err, anchor.ErrAmbiguous):
		return model.AmbiguousAnchor
	case errors.Is(err, anchor.ErrNotFound), errors.Is(err, anchor.ErrEmptyPattern):
		return model.AnchorNotFound
	case errors.Is(err, ErrBoundary), errors.Is(err, lines.ErrBoundary):
		return model.BoundaryError
	case errors.Is(err, record.ErrMalformedRecord):
		return model.MalformedRecord
	case errors.Is(err, record.ErrFieldMissing), errors.Is(err, record.ErrEmptyKey):
		return model.FieldMissing
	case errors.Is(err, ErrUnguarded), errors.Is(err, ErrNotDocumentOp):
		return model.Unguarded
	}
	return model.IOError
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, lines.ErrRangePartition)
}
