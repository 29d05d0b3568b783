package vpatch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokinpui/vpatch.go/cli"
	"github.com/sokinpui/vpatch.go/internal/diag"
	"github.com/sokinpui/vpatch.go/internal/document"
	"github.com/sokinpui/vpatch.go/internal/fs"
	"github.com/sokinpui/vpatch.go/internal/nvim"
	"github.com/sokinpui/vpatch.go/internal/patcher"
	"github.com/sokinpui/vpatch.go/internal/plan"
	"github.com/sokinpui/vpatch.go/internal/preview"
	"github.com/sokinpui/vpatch.go/internal/record"
	"github.com/sokinpui/vpatch.go/internal/source"
	"github.com/sokinpui/vpatch.go/internal/ui"
	"github.com/sokinpui/vpatch.go/model"
)

// ErrPlan marks errors in the plan itself: unreadable, malformed or invalid.
// Nothing has been touched when it is returned.
var ErrPlan = errors.New("plan error")

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	logger           *zap.Logger
	pathResolver     *fs.PathResolver
	sourceProvider   *source.SourceProvider
	progressCallback ProgressUpdate
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	if cfg == nil {
		cfg = &cli.Config{Radius: diag.DefaultRadius}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		cfg:            cfg,
		logger:         zap.NewNop(),
		pathResolver:   fs.NewPathResolver(cfg.LookupDirs),
		sourceProvider: source.New(),
	}, nil
}

// SetLogger sets the structured logger. A nil logger disables logging.
func (a *App) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	a.logger = l
}

// SetProgressCallback sets a function to be called as each file is processed.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// Execute reads the plan from the configured source and runs it.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	content, err := a.sourceProvider.GetContent(a.cfg.Plan)
	if err != nil {
		return model.Summary{}, fmt.Errorf("%w: %w", ErrPlan, err)
	}
	if content.Text == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	p, err := a.Parse(content.Text, plan.FormatOf(content.Name, []byte(content.Text)))
	if err != nil {
		return model.Summary{}, err
	}
	return a.Run(p)
}

// Parse decodes plan content, applies the configured overrides and validates it.
func (a *App) Parse(content string, format plan.Format) (*plan.Plan, error) {
	p, err := plan.Decode([]byte(content), format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlan, err)
	}
	if a.cfg.Document != "" {
		p.Document = a.cfg.Document
	}
	if a.cfg.Policy != "" {
		p.Policy = a.cfg.Policy
	}
	if err := plan.Validate(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlan, err)
	}
	return p, nil
}

// indexedOp keeps an operation's position in the plan so results can be
// reported in plan order after per-file grouping.
type indexedOp struct {
	index int
	op    model.Operation
}

type indexedResult struct {
	index  int
	result model.PatchResult
}

// Run applies a validated plan. Each target file is read once, has all of
// its operations applied in plan order, and is written once if its bytes
// changed. A fatal failure stops the run; the file it occurred in and every
// later file are left unwritten.
func (a *App) Run(p *plan.Plan) (model.Summary, error) {
	runID := uuid.NewString()
	log := a.logger.With(zap.String("run", runID))

	engine := patcher.New(
		patcher.WithPolicy(p.AnchorPolicy()),
		patcher.WithRadius(a.cfg.Radius),
		patcher.WithLogger(log),
	)

	byFile := make(map[string][]indexedOp)
	for i, op := range p.Operations {
		target := p.TargetOf(op)
		byFile[target] = append(byFile[target], indexedOp{index: i, op: op})
	}

	summary := model.Summary{RunID: runID}
	var results []indexedResult
	files := p.Files()
	if a.progressCallback != nil {
		a.progressCallback(0, len(files))
	}

	for n, name := range files {
		ops := byFile[name]
		var (
			fileResults []indexedResult
			outcome     fileOutcome
			err         error
		)
		if ops[0].op.Kind.IsDocumentEdit() {
			fileResults, outcome, err = a.runDocument(engine, name, ops)
		} else {
			fileResults, outcome = a.runRecord(log, name, ops)
		}
		results = append(results, fileResults...)
		a.tally(&summary, outcome)

		if a.progressCallback != nil {
			a.progressCallback(n+1, len(files))
		}
		if err != nil {
			log.Error("run aborted", zap.String("file", name), zap.Error(err))
			summary.Aborted = true
			summary.Message = err.Error()
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].index < results[j].index })
	for _, r := range results {
		summary.Results = append(summary.Results, r.result)
	}

	if a.cfg.Nvim && !a.cfg.DryRun && len(summary.Written) > 0 {
		a.reloadEditor(summary.Written)
	}

	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

type fileOutcome struct {
	path    string
	written bool
	preview string
}

func (a *App) tally(summary *model.Summary, out fileOutcome) {
	switch {
	case out.preview != "":
		if summary.Previews == nil {
			summary.Previews = make(map[string]string)
		}
		summary.Previews[out.path] = out.preview
	case out.written:
		summary.Written = append(summary.Written, out.path)
	case out.path != "":
		summary.Unchanged = append(summary.Unchanged, out.path)
	}
}

// runDocument applies every document operation for one file. A non-nil
// error means the run must stop.
func (a *App) runDocument(engine *patcher.Engine, name string, ops []indexedOp) ([]indexedResult, fileOutcome, error) {
	path, data, perm, err := a.readTarget(name)
	if err != nil {
		return failAll(ops, name, model.IOError, err), fileOutcome{}, nil
	}

	doc := document.Parse(name, string(data))
	plain := make([]model.Operation, len(ops))
	for i, o := range ops {
		plain[i] = o.op
	}
	res, runErr := engine.Run(doc, plain)

	out := make([]indexedResult, len(res))
	for i, r := range res {
		r.File = name
		out[i] = indexedResult{index: ops[i].index, result: r}
	}
	if runErr != nil {
		for i := range out {
			if out[i].result.Status == model.Applied {
				out[i].result.Reason = "not written: run aborted"
			}
		}
		return out, fileOutcome{}, runErr
	}

	outcome, err := a.commit(path, data, []byte(doc.Text()), perm)
	if err != nil {
		return markWriteFailure(out, err), fileOutcome{}, nil
	}
	return out, outcome, nil
}

// runRecord applies field updates to one configuration record.
func (a *App) runRecord(log *zap.Logger, name string, ops []indexedOp) ([]indexedResult, fileOutcome) {
	path, data, perm, err := a.readTarget(name)
	if err != nil {
		return failAll(ops, name, model.IOError, err), fileOutcome{}
	}

	rec := data
	out := make([]indexedResult, 0, len(ops))
	changed := false
	for _, o := range ops {
		res := model.PatchResult{ID: o.op.ID, Kind: o.op.Kind, File: name}
		l := log.With(zap.String("op", o.op.ID), zap.String("file", name), zap.String("key", o.op.Key))

		same, err := record.Equal(rec, o.op.Key, o.op.Value)
		if err == nil && same {
			res.Status = model.SkippedAlreadyApplied
			res.Reason = fmt.Sprintf("%s already holds the requested value", o.op.Key)
			l.Debug("skipping field update, already applied")
			out = append(out, indexedResult{o.index, res})
			continue
		}
		if err == nil {
			var updated []byte
			updated, err = record.SetField(rec, o.op.Key, o.op.Value)
			if err == nil {
				rec = updated
				changed = true
				res.Status = model.Applied
				l.Debug("field updated")
				out = append(out, indexedResult{o.index, res})
				continue
			}
		}
		res.Status = model.Failed
		res.Failure = patcher.Classify(err)
		res.Reason = err.Error()
		l.Warn("field update failed", zap.Error(err))
		out = append(out, indexedResult{o.index, res})
	}

	if changed && a.cfg.ReformatRecords {
		pretty, err := record.Reformat(rec)
		if err != nil {
			return markWriteFailure(out, err), fileOutcome{}
		}
		rec = pretty
	}

	outcome, err := a.commit(path, data, rec, perm)
	if err != nil {
		return markWriteFailure(out, err), fileOutcome{}
	}
	return out, outcome
}

func (a *App) readTarget(name string) (string, []byte, os.FileMode, error) {
	path := a.pathResolver.ResolveExisting(name)
	if path == "" {
		return "", nil, 0, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	data, perm, err := fs.ReadFile(path)
	if err != nil {
		return "", nil, 0, err
	}
	return path, data, perm, nil
}

// commit writes after over path when it differs from before. In dry-run
// mode it renders a preview instead.
func (a *App) commit(path string, before, after []byte, perm os.FileMode) (fileOutcome, error) {
	out := fileOutcome{path: path}
	if bytes.Equal(before, after) {
		return out, nil
	}
	if a.cfg.DryRun {
		diff, err := preview.Unified(a.relativePath(path), string(before), string(after), preview.DefaultContext)
		if err != nil {
			return fileOutcome{}, err
		}
		out.preview = diff
		return out, nil
	}
	if err := fs.WriteAtomic(path, after, perm); err != nil {
		return fileOutcome{}, fmt.Errorf("writing %s: %w", path, err)
	}
	out.written = true
	return out, nil
}

func failAll(ops []indexedOp, file string, kind model.Failure, err error) []indexedResult {
	out := make([]indexedResult, len(ops))
	for i, o := range ops {
		out[i] = indexedResult{index: o.index, result: model.PatchResult{
			ID:      o.op.ID,
			Kind:    o.op.Kind,
			File:    file,
			Status:  model.Failed,
			Failure: kind,
			Reason:  err.Error(),
		}}
	}
	return out
}

// markWriteFailure turns applied results into IO failures when their file
// could not be written.
func markWriteFailure(results []indexedResult, err error) []indexedResult {
	for i := range results {
		if results[i].result.Status == model.Applied {
			results[i].result.Status = model.Failed
			results[i].result.Failure = model.IOError
			results[i].result.Reason = err.Error()
		}
	}
	return results
}

func (a *App) reloadEditor(paths []string) {
	manager, err := nvim.New("")
	if err != nil {
		ui.Warning("Skipping editor reload: %v", err)
		return
	}
	defer manager.Close()

	if _, failed := manager.ReloadFiles(paths); len(failed) > 0 {
		a.logger.Warn("nvim reload failed", zap.Strings("files", failed))
	}
}

// Show returns a numbered window of the document around line (1-based).
func (a *App) Show(name string, line int) (string, error) {
	_, data, _, err := a.readTarget(name)
	if err != nil {
		return "", err
	}
	doc := document.Parse(name, string(data))
	if line < 1 || line > doc.Len() {
		return "", fmt.Errorf("line %d is outside %s (%d lines)", line, name, doc.Len())
	}
	return diag.Render(diag.Window(doc.Lines(), line-1, a.cfg.Radius)), nil
}

func (a *App) relativePath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil {
		return p
	}
	return rel
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	makeRelative := func(absPaths []string) []string {
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			relPaths[i] = a.relativePath(p)
		}
		return relPaths
	}

	summary.Written = makeRelative(summary.Written)
	summary.Unchanged = makeRelative(summary.Unchanged)
	if len(summary.Previews) > 0 {
		previews := make(map[string]string, len(summary.Previews))
		for p, d := range summary.Previews {
			previews[a.relativePath(p)] = d
		}
		summary.Previews = previews
	}
}
