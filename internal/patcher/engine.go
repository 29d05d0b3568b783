// Package patcher applies edit operations to a document: literal and block
// replacement, anchored inserts, and line range moves and replacements. Every
// operation is checked against its guard first so a plan can be re-run.
package patcher

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/internal/diag"
	"github.com/sokinpui/vpatch.go/internal/document"
	"github.com/sokinpui/vpatch.go/internal/lines"
	"github.com/sokinpui/vpatch.go/model"
)

// Engine applies document operations.
type Engine struct {
	policy anchor.Policy
	radius int
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the default anchor policy.
func WithPolicy(p anchor.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithRadius sets how many lines of context failures carry.
func WithRadius(r int) Option {
	return func(e *Engine) { e.radius = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. Anchors must be unique unless configured otherwise.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy: anchor.Unique,
		radius: diag.DefaultRadius,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies ops to doc in order. A failed operation leaves doc as it was
// before that operation and later operations still run. A range partition
// violation stops the run: the returned error wraps ErrAborted and the caller
// must not write doc.
func (e *Engine) Run(doc *document.Document, ops []model.Operation) ([]model.PatchResult, error) {
	results := make([]model.PatchResult, 0, len(ops))
	for _, op := range ops {
		res, err := e.Apply(doc, op)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("%w: %s: %w", ErrAborted, res.ID, err)
		}
	}
	return results, nil
}

// Apply runs one operation against doc. The returned error is non-nil only
// for failures that must abort the run; every other failure is reported in
// the result.
func (e *Engine) Apply(doc *document.Document, op model.Operation) (model.PatchResult, error) {
	res := model.PatchResult{ID: op.ID, Kind: op.Kind, File: doc.Path}
	log := e.logger.With(zap.String("op", op.ID), zap.String("kind", string(op.Kind)), zap.String("file", doc.Path))

	text := doc.Text()
	if guardSatisfied(text, op) {
		res.Status = model.SkippedAlreadyApplied
		res.Reason = "post-condition already present"
		log.Debug("skipping operation, already applied")
		return res, nil
	}
	if op.Guard == "" && RequiresGuard(op) {
		return e.fail(doc, res, ErrUnguarded, -1), nil
	}

	var err error
	line := -1
	switch op.Kind {
	case model.KindReplace:
		line, err = e.applyReplace(doc, op)
	case model.KindBlockReplace:
		line, err = e.applyBlock(doc, op)
	case model.KindInsert:
		line, err = e.applyInsert(doc, op)
	case model.KindLineMove:
		line, err = e.applyMove(doc, op)
	case model.KindLineReplace:
		line, err = e.applyLineReplace(doc, op)
	default:
		err = fmt.Errorf("%w: %s", ErrNotDocumentOp, op.Kind)
	}
	if err != nil {
		res = e.fail(doc, res, err, line)
		log.Warn("operation failed", zap.String("failure", string(res.Failure)), zap.Error(err))
		if IsFatal(err) {
			return res, err
		}
		return res, nil
	}

	res.Status = model.Applied
	log.Debug("operation applied")
	return res, nil
}

func (e *Engine) policyFor(op model.Operation) anchor.Policy {
	if op.FirstMatch {
		return anchor.First
	}
	return e.policy
}

func (e *Engine) applyReplace(doc *document.Document, op model.Operation) (int, error) {
	text := doc.Text()
	out, _, err := Replace(text, op.Old, op.New, op.All, e.policyFor(op))
	if err != nil {
		return anchorLine(doc, op.Old, err), withPattern(err, op.Old)
	}
	doc.SetText(out)
	return -1, nil
}

func (e *Engine) applyBlock(doc *document.Document, op model.Operation) (int, error) {
	text := doc.Text()
	b := Block{Start: op.Start, End: op.End, Content: op.Content, KeepEnd: op.KeepEnd}
	out, err := ReplaceBlock(text, b, e.policyFor(op))
	if err != nil {
		var be *BoundaryError
		if errors.As(err, &be) {
			if pos, lerr := anchor.Locate(text, anchor.Anchor{Pattern: op.Start}); lerr == nil {
				return doc.LineAt(pos), err
			}
		}
		return anchorLine(doc, op.Start, err), withPattern(err, op.Start)
	}
	doc.SetText(out)
	return -1, nil
}

func (e *Engine) applyInsert(doc *document.Document, op model.Operation) (int, error) {
	pos := op.Position
	if pos == "" {
		pos = model.After
	}
	out, err := Insert(doc.Text(), op.Anchor, op.Content, pos, e.policyFor(op))
	if err != nil {
		return anchorLine(doc, op.Anchor, err), withPattern(err, op.Anchor)
	}
	doc.SetText(out)
	return -1, nil
}

func (e *Engine) applyMove(doc *document.Document, op model.Operation) (int, error) {
	if op.From == nil {
		return -1, &lines.BoundaryMismatch{Detail: "line_move has no source range"}
	}
	src := doc.Lines()
	r := lines.NewRange(op.From.Start, op.From.End)
	if err := lines.Verify(src, r, op.ExpectFirst, op.ExpectLast); err != nil {
		return mismatchLine(err, r.Start), err
	}
	out, err := lines.Move(src, r, op.To)
	if err != nil {
		return mismatchLine(err, op.To), err
	}
	doc.SetLines(out)
	return -1, nil
}

func (e *Engine) applyLineReplace(doc *document.Document, op model.Operation) (int, error) {
	if op.From == nil {
		return -1, &lines.BoundaryMismatch{Detail: "line_replace has no source range"}
	}
	src := doc.Lines()
	r := lines.NewRange(op.From.Start, op.From.End)
	if err := lines.Verify(src, r, op.ExpectFirst, op.ExpectLast); err != nil {
		return mismatchLine(err, r.Start), err
	}
	out, err := lines.Replace(src, r, document.SplitLines(op.Content))
	if err != nil {
		return r.Start, err
	}
	doc.SetLines(out)
	return -1, nil
}

// fail fills in a failed result with its classification and, when line is
// known, a window of surrounding lines.
func (e *Engine) fail(doc *document.Document, res model.PatchResult, err error, line int) model.PatchResult {
	res.Status = model.Failed
	res.Failure = Classify(err)
	res.Reason = err.Error()
	if line >= 0 {
		res.Context = diag.Window(doc.Lines(), line, e.radius)
		if res.Failure == model.AnchorNotFound {
			res.Reason += fmt.Sprintf(" (similar text at line %d, whitespace differs)", line+1)
		}
	}
	return res
}

// withPattern names the anchor in errors that do not already carry it.
func withPattern(err error, pattern string) error {
	var amb *anchor.AmbiguousError
	var be *BoundaryError
	if errors.As(err, &amb) || errors.As(err, &be) {
		return err
	}
	return fmt.Errorf("%w: %q", err, anchor.Short(pattern))
}

// anchorLine picks the line to show for an anchor failure: the first match
// when the anchor is ambiguous, a whitespace-insensitive near miss when it is
// missing.
func anchorLine(doc *document.Document, pattern string, err error) int {
	if errors.Is(err, anchor.ErrAmbiguous) {
		if pos, lerr := anchor.Locate(doc.Text(), anchor.Anchor{Pattern: pattern}); lerr == nil {
			return doc.LineAt(pos)
		}
	}
	if errors.Is(err, anchor.ErrNotFound) {
		return anchor.NearMiss(doc.Lines(), pattern)
	}
	return -1
}

func mismatchLine(err error, fallback int) int {
	var bm *lines.BoundaryMismatch
	if errors.As(err, &bm) {
		return bm.Line
	}
	return fallback
}
