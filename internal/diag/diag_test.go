package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	src := []string{"a", "b", "c", "d", "e", "f"}

	w := Window(src, 2, 1)
	require.Len(t, w, 3)
	assert.Equal(t, 2, w[0].Number)
	assert.Equal(t, "c", w[1].Text)
	assert.True(t, w[1].Center)
	assert.False(t, w[0].Center)

	w = Window(src, 0, 3)
	require.Len(t, w, 4)
	assert.Equal(t, 1, w[0].Number)

	w = Window(src, 99, 1)
	require.Len(t, w, 2)
	assert.Equal(t, 6, w[1].Number)
	assert.True(t, w[1].Center)

	assert.Nil(t, Window(nil, 0, 3))
	assert.Len(t, Window(src, 3, -1), 1)
}

func TestRender(t *testing.T) {
	src := make([]string, 12)
	for i := range src {
		src[i] = "x"
	}
	src[9] = "center\r"
	out := Render(Window(src, 9, 1))
	assert.Equal(t, "   9: x\n> 10: center\n  11: x\n", out)
	assert.Empty(t, Render(nil))
}
