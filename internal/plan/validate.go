package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sokinpui/vpatch.go/internal/patcher"
	"github.com/sokinpui/vpatch.go/model"
)

var planValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct rules and the cross-field rules the tags cannot
// express. It fills in default IDs. All problems are reported together.
func Validate(p *Plan) error {
	var problems []string

	if err := planValidate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	ids := make(map[string]int)
	for i := range p.Operations {
		op := &p.Operations[i]
		if op.ID == "" {
			op.ID = fmt.Sprintf("%s#%d", op.Kind, i+1)
		}
		if prev, dup := ids[op.ID]; dup {
			problems = append(problems, fmt.Sprintf("operation %d: id %q already used by operation %d", i+1, op.ID, prev+1))
		}
		ids[op.ID] = i
		problems = append(problems, checkOperation(p, i, *op)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidPlan, strings.Join(problems, "\n  - "))
	}
	return nil
}

func checkOperation(p *Plan, i int, op model.Operation) []string {
	var problems []string
	add := func(format string, a ...any) {
		problems = append(problems, fmt.Sprintf("operation %d (%s): ", i+1, op.ID)+fmt.Sprintf(format, a...))
	}

	if op.Kind.IsDocumentEdit() && p.Document == "" {
		add("no document to apply to")
	}
	if op.Guard == "" && patcher.RequiresGuard(op) {
		add("%s must declare a guard so a re-run can be detected", op.Kind)
	}
	switch op.Kind {
	case model.KindReplace:
		if op.Old == op.New {
			add("old and new are identical")
		}
	case model.KindLineMove:
		if op.From != nil && op.To >= op.From.Start && op.To <= op.From.End {
			add("destination %d is inside or at the edge of source %s", op.To, op.From)
		}
		fallthrough
	case model.KindLineReplace:
		if op.From != nil && (op.From.Start < 0 || op.From.End < op.From.Start) {
			add("source range %s is inverted or negative", op.From)
		}
	case model.KindFieldUpdate:
		target := p.TargetOf(op)
		if target == "" {
			add("no record file (set file or the plan's record)")
		}
		if target != "" && p.Document != "" && p.hasDocumentOps() && samePath(target, p.Document) {
			add("record file %s is also the plan's document", target)
		}
		if op.Value == nil {
			add("value is required")
		}
	}
	return problems
}

func (p *Plan) hasDocumentOps() bool {
	for _, op := range p.Operations {
		if op.Kind.IsDocumentEdit() {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	ns = strings.TrimPrefix(ns, "Plan.")
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", ns, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", ns, fe.Tag())
}
