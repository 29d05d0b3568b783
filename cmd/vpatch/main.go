package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/sokinpui/vpatch.go/cli"
	"github.com/sokinpui/vpatch.go/internal/logging"
	"github.com/sokinpui/vpatch.go/internal/tui"
	"github.com/sokinpui/vpatch.go/internal/ui"
	"github.com/sokinpui/vpatch.go/model"
	"github.com/sokinpui/vpatch.go/vpatch"
)

const (
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}
	defer func() { _ = logger.Sync() }()

	app, err := vpatch.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return exitUsage
	}
	app.SetLogger(logger)

	// --show prints a window of the document and does not run a plan.
	if cfg.Show > 0 {
		out, err := app.Show(cfg.Document, cfg.Show)
		if err != nil {
			ui.Error("Error: %v", err)
			return exitFailed
		}
		fmt.Print(out)
		return 0
	}

	plain := cfg.NoAnimation || !isatty.IsTerminal(os.Stdout.Fd())
	var summary model.Summary
	if plain {
		summary, err = app.Execute()
		if err == nil {
			ui.PrintRunSummary(summary)
		}
	} else {
		summary, err = runTUI(app)
	}
	if err != nil {
		var de *vpatch.DetailedError
		if plain && errors.As(err, &de) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", de.Stack)
		}
		ui.Error("Error: %v", err)
		if errors.Is(err, vpatch.ErrPlan) {
			return exitUsage
		}
		return exitFailed
	}

	printPreviews(summary.Previews)
	if !summary.OK() {
		return exitFailed
	}
	return 0
}

func runTUI(app *vpatch.App) (model.Summary, error) {
	p := tea.NewProgram(tui.New(app))
	app.SetProgressCallback(func(current, total int) {
		p.Send(tui.ProgressMsg{Current: current, Total: total})
	})
	final, err := p.Run()
	if err != nil {
		return model.Summary{}, fmt.Errorf("error running program: %w", err)
	}
	return final.(tui.Model).Result()
}

func printPreviews(previews map[string]string) {
	paths := make([]string, 0, len(previews))
	for p := range previews {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		ui.PrintDiff(previews[p])
	}
}
