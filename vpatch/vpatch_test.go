package vpatch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sokinpui/vpatch.go/cli"
	"github.com/sokinpui/vpatch.go/model"
	"github.com/sokinpui/vpatch.go/vpatch"
)

const sqlRunner = `import React from 'react';

export function SqlRunner() {
    const csv = exportToFormat('csv');
    const json = exportToFormat('json');
    return <Table rows={rows} />;
}
`

const packageJSON = `{
  "name": "client",
  "version": "1.0.0",
  "private": true
}
`

const fixPlan = `
document: SqlRunner.jsx
record: package.json
operations:
  - kind: replace
    id: export-fn
    old: exportToFormat
    new: exportData
    all: true
  - kind: insert
    id: import-hook
    anchor: "import React from 'react';\n"
    content: "import { useState } from 'react';\n"
    position: after
    guard: "import { useState }"
  - kind: field_update
    id: bump
    key: version
    value: "1.0.1"
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SqlRunner.jsx"), []byte(sqlRunner), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(packageJSON), 0o644))
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func statuses(s model.Summary) []model.Status {
	out := make([]model.Status, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.Status
	}
	return out
}

func TestApplyIsIdempotent(t *testing.T) {
	dir := setup(t)
	cfg := vpatch.Config{LookupDirs: []string{dir}, Logger: zaptest.NewLogger(t)}

	first, err := vpatch.Apply(fixPlan, cfg)
	require.NoError(t, err)
	assert.True(t, first.OK())
	assert.Equal(t, []model.Status{model.Applied, model.Applied, model.Applied}, statuses(first))
	assert.Len(t, first.Written, 2)
	assert.NotEmpty(t, first.RunID)

	doc := readFile(t, filepath.Join(dir, "SqlRunner.jsx"))
	assert.Contains(t, doc, "import React from 'react';\nimport { useState } from 'react';\n")
	assert.Equal(t, 2, strings.Count(doc, "exportData("))
	assert.NotContains(t, doc, "exportToFormat")

	rec := readFile(t, filepath.Join(dir, "package.json"))
	assert.Equal(t, strings.Replace(packageJSON, `"1.0.0"`, `"1.0.1"`, 1), rec)

	info, err := os.Stat(filepath.Join(dir, "SqlRunner.jsx"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	second, err := vpatch.Apply(fixPlan, cfg)
	require.NoError(t, err)
	assert.True(t, second.OK())
	assert.Equal(t, []model.Status{model.SkippedAlreadyApplied, model.SkippedAlreadyApplied, model.SkippedAlreadyApplied}, statuses(second))
	assert.Empty(t, second.Written)
	assert.Len(t, second.Unchanged, 2)
	assert.Equal(t, doc, readFile(t, filepath.Join(dir, "SqlRunner.jsx")))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestApplyFieldUpdateKeepsOtherBytes(t *testing.T) {
	dir := t.TempDir()
	rec := "{\"version\":\"1.0.0\",  \"scripts\": {\"a\":1}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(rec), 0o644))

	plan := "operations:\n  - kind: field_update\n    file: package.json\n    key: version\n    value: \"1.0.1\"\n"
	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}})
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.Equal(t, "{\"version\":\"1.0.1\",  \"scripts\": {\"a\":1}}", readFile(t, filepath.Join(dir, "package.json")))
}

func TestApplyRecordFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(`{"name":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"name":`), 0o644))

	plan := `
operations:
  - kind: field_update
    id: missing-field
    file: good.json
    key: version
    value: "1.0.1"
  - kind: field_update
    id: malformed
    file: bad.json
    key: version
    value: "1.0.1"
  - kind: field_update
    id: missing-file
    file: absent.json
    key: version
    value: "1.0.1"
`
	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}})
	require.NoError(t, err)
	require.Len(t, s.Results, 3)
	assert.Equal(t, model.FieldMissing, s.Results[0].Failure)
	assert.Equal(t, model.MalformedRecord, s.Results[1].Failure)
	assert.Equal(t, model.IOError, s.Results[2].Failure)
	assert.False(t, s.OK())
	assert.Equal(t, `{"name":"x"}`, readFile(t, filepath.Join(dir, "good.json")))
}

func TestPartitionViolationLeavesFilesUnwritten(t *testing.T) {
	dir := setup(t)
	plan := `
document: SqlRunner.jsx
record: package.json
operations:
  - kind: replace
    old: exportToFormat
    new: exportData
    all: true
  - kind: line_move
    id: bad-move
    from: {start: 2, end: 40}
    to: 0
    guard: "never present"
  - kind: field_update
    key: version
    value: "2.0.0"
`
	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}})
	require.NoError(t, err)
	assert.True(t, s.Aborted)
	assert.False(t, s.OK())
	require.Len(t, s.Results, 2)
	assert.Equal(t, model.RangePartitionError, s.Results[1].Failure)
	assert.Empty(t, s.Written)

	assert.Equal(t, sqlRunner, readFile(t, filepath.Join(dir, "SqlRunner.jsx")))
	assert.Equal(t, packageJSON, readFile(t, filepath.Join(dir, "package.json")))
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := setup(t)
	s, err := vpatch.Apply(fixPlan, vpatch.Config{LookupDirs: []string{dir}, DryRun: true})
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.Empty(t, s.Written)
	require.Len(t, s.Previews, 2)
	for path, d := range s.Previews {
		assert.Contains(t, d, "+++ b/"+path)
	}

	assert.Equal(t, sqlRunner, readFile(t, filepath.Join(dir, "SqlRunner.jsx")))
	assert.Equal(t, packageJSON, readFile(t, filepath.Join(dir, "package.json")))
}

func TestApplyMarkdownPlan(t *testing.T) {
	dir := setup(t)
	plan := "# SqlRunner fixes\n\n" +
		"```plan\ndocument: SqlRunner.jsx\n```\n\n" +
		"## table-props\n\n" +
		"```op\nkind: block_replace\nstart: \"<Table\"\nend: \"/>\"\nguard: \"maxHeight\"\n```\n\n" +
		"```field:content\n<Table rows={rows} maxHeight={400} />\n```\n"

	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}})
	require.NoError(t, err)
	require.Len(t, s.Results, 1)
	assert.Equal(t, "table-props", s.Results[0].ID)
	assert.Equal(t, model.Applied, s.Results[0].Status, s.Results[0].Reason)
	assert.Contains(t, readFile(t, filepath.Join(dir, "SqlRunner.jsx")), "return <Table rows={rows} maxHeight={400} />;\n")
}

func TestApplyPlanErrors(t *testing.T) {
	_, err := vpatch.Apply("operations: [", vpatch.Config{})
	assert.ErrorIs(t, err, vpatch.ErrPlan)

	_, err = vpatch.Apply("document: x\noperations:\n  - kind: teleport\n", vpatch.Config{})
	assert.ErrorIs(t, err, vpatch.ErrPlan)

	_, err = vpatch.Apply(fixPlan, vpatch.Config{Policy: "sometimes"})
	assert.Error(t, err)

	// The --document override is checked against record targets too.
	_, err = vpatch.Apply(fixPlan, vpatch.Config{Document: "package.json"})
	assert.ErrorIs(t, err, vpatch.ErrPlan)
}

func TestDocumentOverride(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.Rename(filepath.Join(dir, "SqlRunner.jsx"), filepath.Join(dir, "Other.jsx")))

	plan := "operations:\n  - kind: replace\n    old: exportToFormat\n    new: exportData\n    all: true\n"
	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}, Document: "Other.jsx"})
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.NotContains(t, readFile(t, filepath.Join(dir, "Other.jsx")), "exportToFormat")
}

func TestAmbiguousAnchorPolicy(t *testing.T) {
	dir := setup(t)
	plan := "document: SqlRunner.jsx\noperations:\n  - kind: replace\n    old: exportToFormat\n    new: exportData\n"

	s, err := vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}})
	require.NoError(t, err)
	require.Len(t, s.Results, 1)
	assert.Equal(t, model.AmbiguousAnchor, s.Results[0].Failure)
	assert.NotEmpty(t, s.Results[0].Context)
	assert.Equal(t, sqlRunner, readFile(t, filepath.Join(dir, "SqlRunner.jsx")))

	s, err = vpatch.Apply(plan, vpatch.Config{LookupDirs: []string{dir}, Policy: "first"})
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.Equal(t, 1, strings.Count(readFile(t, filepath.Join(dir, "SqlRunner.jsx")), "exportToFormat"))
}

func TestShow(t *testing.T) {
	dir := setup(t)
	app, err := vpatch.New(&cli.Config{LookupDirs: []string{dir}, Document: "SqlRunner.jsx", Radius: 1, Show: 4})
	require.NoError(t, err)

	out, err := app.Show("SqlRunner.jsx", 4)
	require.NoError(t, err)
	assert.Equal(t, "  3: export function SqlRunner() {\n> 4:     const csv = exportToFormat('csv');\n  5:     const json = exportToFormat('json');\n", out)

	_, err = app.Show("SqlRunner.jsx", 99)
	assert.Error(t, err)
}
