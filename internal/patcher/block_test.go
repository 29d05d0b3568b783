package patcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/model"
)

func TestReplace(t *testing.T) {
	out, n, err := Replace("abc<<X>>def", "<<X>>", "<<Y>>", false, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "abc<<Y>>def", out)

	out, n, err = Replace("a.b.c", ".", "-", true, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "a-b-c", out)

	_, _, err = Replace("a.b.c", ".", "-", false, anchor.Unique)
	assert.ErrorIs(t, err, anchor.ErrAmbiguous)

	out, _, err = Replace("a.b.c", ".", "-", false, anchor.First)
	require.NoError(t, err)
	assert.Equal(t, "a-b.c", out)

	out, _, err = Replace("abc", "zzz", "y", true, anchor.Unique)
	assert.ErrorIs(t, err, anchor.ErrNotFound)
	assert.Equal(t, "abc", out)
}

func TestReplaceBlock(t *testing.T) {
	text := "head <span>old</span> <input a /> tail"

	out, err := ReplaceBlock(text, Block{Start: "<span>", End: "/>", Content: "<div/>"}, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, "head <div/> tail", out)

	out, err = ReplaceBlock(text, Block{Start: "<span>", End: "/>", Content: "<div>", KeepEnd: true}, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, "head <div>/> tail", out)
}

func TestReplaceBlockMissingStartIsNoOp(t *testing.T) {
	text := "nothing to see"
	out, err := ReplaceBlock(text, Block{Start: "<span>", End: "</span>", Content: "x"}, anchor.Unique)
	assert.ErrorIs(t, err, anchor.ErrNotFound)
	assert.Equal(t, text, out)
}

func TestReplaceBlockEndBeforeStart(t *testing.T) {
	text := "END ... START ..."
	out, err := ReplaceBlock(text, Block{Start: "START", End: "END", Content: "x"}, anchor.Unique)
	require.ErrorIs(t, err, ErrBoundary)
	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Detail, "before start")
	assert.Equal(t, text, out)

	_, err = ReplaceBlock("START only", Block{Start: "START", End: "END"}, anchor.Unique)
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Detail, "not found after")
}

// The end anchor is searched after the start match, never overlapping it.
func TestReplaceBlockEndSearchedAfterStart(t *testing.T) {
	out, err := ReplaceBlock("x[ab]y[cd]", Block{Start: "[", End: "]", Content: "<>"}, anchor.First)
	require.NoError(t, err)
	assert.Equal(t, "x<>y[cd]", out)

	out, err = ReplaceBlock("aXa", Block{Start: "a", End: "a", Content: "-"}, anchor.First)
	require.NoError(t, err)
	assert.Equal(t, "-", out)
}

func TestInsert(t *testing.T) {
	out, err := Insert("a\nANCHOR\nb", "ANCHOR", "\nNEW", model.After, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, "a\nANCHOR\nNEW\nb", out)

	out, err = Insert("a\nANCHOR\nb", "ANCHOR", "NEW\n", model.Before, anchor.Unique)
	require.NoError(t, err)
	assert.Equal(t, "a\nNEW\nANCHOR\nb", out)

	_, err = Insert("x", "ANCHOR", "NEW", model.After, anchor.Unique)
	assert.ErrorIs(t, err, anchor.ErrNotFound)
}

func TestRequiresGuard(t *testing.T) {
	assert.False(t, RequiresGuard(model.Operation{Kind: model.KindReplace, Old: "a", New: "b"}))
	assert.True(t, RequiresGuard(model.Operation{Kind: model.KindReplace, Old: "a", New: "a;b"}))
	assert.True(t, RequiresGuard(model.Operation{Kind: model.KindLineMove}))
	assert.False(t, RequiresGuard(model.Operation{Kind: model.KindFieldUpdate}))
}
