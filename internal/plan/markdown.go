package plan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sokinpui/vpatch.go/model"
)

// fence is a fenced code block from a Markdown plan.
type fence struct {
	// Hint is the heading or paragraph right before the block.
	Hint string
	// Info is the info string split on whitespace, e.g. ["field:content", "keep-newline"].
	Info    []string
	Content string
}

// extractFences walks the Markdown AST and returns every fenced code block in
// document order with its preceding hint.
func extractFences(source []byte) ([]fence, error) {
	var fences []fence
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var f fence
		if block.Info != nil {
			f.Info = strings.Fields(string(block.Info.Segment.Value(source)))
		}
		var content bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		f.Content = content.String()

		if prev := block.PreviousSibling(); prev != nil {
			switch prev.(type) {
			case *ast.Heading, *ast.Paragraph:
				f.Hint = blockText(prev, source)
			}
		}
		fences = append(fences, f)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return fences, nil
}

func blockText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return strings.TrimSpace(b.String())
}

// parseMarkdown builds a plan from fenced blocks. A "plan" block holds
// plan-level YAML, an "op" block starts an operation, and "field:<name>"
// blocks set a text field of the latest operation to the block's literal
// content (the final newline is dropped unless marked keep-newline).
func parseMarkdown(source []byte) (*Plan, error) {
	fences, err := extractFences(source)
	if err != nil {
		return nil, fmt.Errorf("parsing markdown plan: %w", err)
	}

	p := &Plan{}
	var current *model.Operation
	for n, f := range fences {
		if len(f.Info) == 0 {
			continue
		}
		tag := f.Info[0]
		switch {
		case tag == "plan":
			var header Plan
			if err := decodeStrict([]byte(f.Content), &header); err != nil {
				return nil, fmt.Errorf("block %d (plan): %w", n+1, err)
			}
			if len(header.Operations) > 0 {
				return nil, fmt.Errorf("block %d (plan): operations belong in op blocks", n+1)
			}
			p.Document, p.Record, p.Policy = header.Document, header.Record, header.Policy

		case tag == "op":
			var op model.Operation
			if strings.TrimSpace(f.Content) != "" {
				if err := decodeStrict([]byte(f.Content), &op); err != nil {
					return nil, fmt.Errorf("block %d (op): %w", n+1, err)
				}
			}
			if op.ID == "" {
				op.ID = f.Hint
			}
			p.Operations = append(p.Operations, op)
			current = &p.Operations[len(p.Operations)-1]

		case strings.HasPrefix(tag, "field:"):
			if current == nil {
				return nil, fmt.Errorf("block %d (%s): no op block before it", n+1, tag)
			}
			value := f.Content
			if !hasFlag(f.Info[1:], "keep-newline") {
				value = strings.TrimSuffix(value, "\n")
			}
			if err := setField(current, strings.TrimPrefix(tag, "field:"), value); err != nil {
				return nil, fmt.Errorf("block %d: %w", n+1, err)
			}
		}
	}
	return p, nil
}

func hasFlag(flags []string, name string) bool {
	for _, f := range flags {
		if f == name {
			return true
		}
	}
	return false
}

// setField assigns a literal payload to a text field of op.
func setField(op *model.Operation, name, value string) error {
	switch name {
	case "old":
		op.Old = value
	case "new":
		op.New = value
	case "start":
		op.Start = value
	case "end":
		op.End = value
	case "anchor":
		op.Anchor = value
	case "content":
		op.Content = value
	case "guard":
		op.Guard = value
	case "expectFirst":
		op.ExpectFirst = value
	case "expectLast":
		op.ExpectLast = value
	case "value":
		op.Value = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}
