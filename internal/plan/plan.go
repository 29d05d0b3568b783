// Package plan loads edit plans from YAML or Markdown files and validates
// them before any file is touched.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/model"
)

// Format is the syntax of a plan source.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ErrInvalidPlan wraps every plan validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan is an ordered list of operations and the files they apply to.
type Plan struct {
	// Document is the target of every document operation.
	Document string `yaml:"document"`
	// Record is the default file for field_update operations.
	Record string `yaml:"record"`
	// Policy is the anchor policy: unique (default) or first.
	Policy     string            `yaml:"policy" validate:"omitempty,oneof=unique first"`
	Operations []model.Operation `yaml:"operations" validate:"required,min=1,dive"`
}

// AnchorPolicy returns the plan's anchor policy.
func (p *Plan) AnchorPolicy() anchor.Policy {
	pol, err := anchor.ParsePolicy(p.Policy)
	if err != nil {
		return anchor.Unique
	}
	return pol
}

// TargetOf returns the file an operation applies to.
func (p *Plan) TargetOf(op model.Operation) string {
	if op.Kind.IsDocumentEdit() {
		return p.Document
	}
	if op.File != "" {
		return op.File
	}
	return p.Record
}

// Files returns the distinct target files in first-use order.
func (p *Plan) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, op := range p.Operations {
		f := p.TargetOf(op)
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// FormatOf picks the format from a file name's extension, falling back to
// the content when the name is empty or unrecognized.
func FormatOf(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	}
	return DetectFormat(data)
}

// DetectFormat guesses the format of plan content with no file name, such as
// content piped on stdin: a fenced block whose info string is op or plan
// means Markdown.
func DetectFormat(data []byte) Format {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		var info string
		switch {
		case strings.HasPrefix(trimmed, "```"):
			info = strings.TrimLeft(trimmed, "`")
		case strings.HasPrefix(trimmed, "~~~"):
			info = strings.TrimLeft(trimmed, "~")
		default:
			continue
		}
		if fields := strings.Fields(info); len(fields) > 0 && (fields[0] == "op" || fields[0] == "plan") {
			return FormatMarkdown
		}
	}
	return FormatYAML
}

// Parse decodes and validates plan content.
func Parse(data []byte, format Format) (*Plan, error) {
	p, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Decode parses plan content without validating it, so callers can apply
// overrides first.
func Decode(data []byte, format Format) (*Plan, error) {
	switch format {
	case FormatMarkdown:
		return parseMarkdown(data)
	case FormatYAML, "":
		return parseYAML(data)
	}
	return nil, fmt.Errorf("unknown plan format %q", format)
}

func parseYAML(data []byte) (*Plan, error) {
	var p Plan
	if err := decodeStrict(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &p, nil
}

// decodeStrict decodes YAML and rejects unknown keys, so a misspelled field
// cannot silently drop a guard.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
