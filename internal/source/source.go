package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/vpatch.go/internal/ui"
)

// Content is plan text and where it came from. Name is a file path, or
// empty for stdin and clipboard content.
type Content struct {
	Name string
	Text string
}

// SourceProvider determines and retrieves the plan content.
type SourceProvider struct {
	stdin     io.Reader
	isPiped   func() bool
	clipboard func() (string, error)
}

// New creates a new SourceProvider.
func New() *SourceProvider {
	return &SourceProvider{
		stdin:     os.Stdin,
		isPiped:   stdinIsPiped,
		clipboard: clipboard.ReadAll,
	}
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// GetContent reads the plan from path when given ("-" means stdin).
// Otherwise it reads stdin if piped, or the clipboard.
func (sp *SourceProvider) GetContent(path string) (Content, error) {
	switch {
	case path == "-":
		return sp.readStdin()
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return Content{}, fmt.Errorf("failed to read plan file: %w", err)
		}
		return Content{Name: path, Text: string(data)}, nil
	case sp.isPiped():
		return sp.readStdin()
	}

	ui.Header("--- Reading plan from clipboard ---")
	text, err := sp.clipboard()
	if err != nil {
		return Content{}, fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return Content{}, nil
	}
	return Content{Text: text}, nil
}

func (sp *SourceProvider) readStdin() (Content, error) {
	ui.Header("--- Reading plan from stdin ---")
	data, err := io.ReadAll(sp.stdin)
	if err != nil {
		return Content{}, fmt.Errorf("failed to read from stdin: %w", err)
	}
	return Content{Text: string(data)}, nil
}
