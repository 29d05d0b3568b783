package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sokinpui/vpatch.go/internal/diag"
	"github.com/sokinpui/vpatch.go/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	FaintColor   = color.New(color.Faint)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

// --- Summaries ---

// PrintRunSummary prints every operation result in plan order, followed by
// the files that were written.
func PrintRunSummary(s model.Summary) {
	Header("\n--- Run Summary ---")
	if s.Message != "" {
		Info(s.Message)
	}
	if len(s.Results) == 0 {
		Info("No operations were run.")
		return
	}

	for _, r := range s.Results {
		label := fmt.Sprintf("%-8s %s (%s)", r.Status, r.ID, r.Kind)
		switch r.Status {
		case model.Applied:
			Success("  %s", label)
		case model.SkippedAlreadyApplied:
			InfoColor.Fprintf(os.Stderr, "  %s\n", label)
		case model.Failed:
			Error("  %s: %s: %s", label, r.Failure, r.Reason)
			if len(r.Context) > 0 {
				FaintColor.Fprint(os.Stderr, indent(diag.Render(r.Context), "      "))
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d applied, %d skipped, %d failed\n",
		s.Count(model.Applied), s.Count(model.SkippedAlreadyApplied), s.Count(model.Failed))

	if len(s.Written) > 0 {
		Success("Wrote %d file(s):", len(s.Written))
		for _, f := range s.Written {
			Path("- %s", f)
		}
	}
	if len(s.Unchanged) > 0 {
		Info("Unchanged %d file(s):", len(s.Unchanged))
		for _, f := range s.Unchanged {
			Path("- %s", f)
		}
	}
	if s.Aborted {
		Error("Run aborted; remaining files were not written.")
	}
}

// PrintDiff writes a unified diff to stdout, colored when stdout is a terminal.
func PrintDiff(d string) {
	for _, line := range strings.SplitAfter(d, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			HeaderColor.Print(line)
		case strings.HasPrefix(line, "@@"):
			InfoColor.Print(line)
		case strings.HasPrefix(line, "+"):
			SuccessColor.Print(line)
		case strings.HasPrefix(line, "-"):
			ErrorColor.Print(line)
		default:
			fmt.Print(line)
		}
	}
}

func indent(s, prefix string) string {
	if s == "" {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix + l)
	}
	return b.String()
}
