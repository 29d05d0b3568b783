package vpatch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sokinpui/vpatch.go/cli"
	"github.com/sokinpui/vpatch.go/internal/diag"
	"github.com/sokinpui/vpatch.go/internal/plan"
	"github.com/sokinpui/vpatch.go/model"
)

// Config for using vpatch as a library.
type Config struct {
	// Document overrides the plan's target document.
	Document string
	// Directories relative paths are resolved against. Defaults to the working directory.
	LookupDirs []string
	// Compute previews instead of writing files.
	DryRun bool
	// Anchor policy override: "unique" or "first".
	Policy string
	// Re-indent updated JSON records.
	ReformatRecords bool
	// Lines of context attached to failures. Zero means the default.
	Radius int
	// Logger for per-operation decisions. Nil disables logging.
	Logger *zap.Logger
}

// Apply parses plan content (YAML or Markdown, detected from the content)
// and applies it to the files it names.
func Apply(planContent string, config Config) (model.Summary, error) {
	radius := config.Radius
	if radius == 0 {
		radius = diag.DefaultRadius
	}
	cliCfg := &cli.Config{
		Document:        config.Document,
		LookupDirs:      config.LookupDirs,
		DryRun:          config.DryRun,
		Policy:          config.Policy,
		ReformatRecords: config.ReformatRecords,
		Radius:          radius,
	}

	app, err := New(cliCfg)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to initialize vpatch app: %w", err)
	}
	app.SetLogger(config.Logger)

	p, err := app.Parse(planContent, plan.DetectFormat([]byte(planContent)))
	if err != nil {
		return model.Summary{}, err
	}
	return app.Run(p)
}
