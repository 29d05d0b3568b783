package patcher

import (
	"strings"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/model"
)

// AlreadyApplied reports whether the post-condition anchor is present.
func AlreadyApplied(text, guard string) bool {
	return anchor.Contains(text, guard)
}

// NeedsGuard reports whether operations of kind k add or move content and so
// must declare a guard to be safely re-runnable.
func NeedsGuard(k model.Kind) bool {
	switch k {
	case model.KindBlockReplace, model.KindInsert, model.KindLineMove, model.KindLineReplace:
		return true
	}
	return false
}

// RequiresGuard reports whether op cannot be re-run safely without a guard.
// A replace whose new text contains the old text would match again forever.
func RequiresGuard(op model.Operation) bool {
	if NeedsGuard(op.Kind) {
		return true
	}
	return op.Kind == model.KindReplace && op.Old != "" && strings.Contains(op.New, op.Old)
}

// guardSatisfied decides whether op has already been applied to text. A
// replace without an explicit guard counts as applied once old is gone and new
// (if any) is present.
func guardSatisfied(text string, op model.Operation) bool {
	if op.Guard != "" {
		return AlreadyApplied(text, op.Guard)
	}
	if op.Kind == model.KindReplace {
		if anchor.Contains(text, op.Old) {
			return false
		}
		return op.New == "" || anchor.Contains(text, op.New)
	}
	return false
}
