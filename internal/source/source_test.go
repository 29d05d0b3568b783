package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(stdin string, piped bool, clip string, clipErr error) *SourceProvider {
	return &SourceProvider{
		stdin:     strings.NewReader(stdin),
		isPiped:   func() bool { return piped },
		clipboard: func() (string, error) { return clip, clipErr },
	}
}

func TestGetContentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operations: []\n"), 0o644))

	got, err := fakeProvider("", true, "", nil).GetContent(path)
	require.NoError(t, err)
	assert.Equal(t, Content{Name: path, Text: "operations: []\n"}, got)
}

func TestGetContentFromStdin(t *testing.T) {
	got, err := fakeProvider("from stdin", true, "from clipboard", nil).GetContent("")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got.Text)
	assert.Empty(t, got.Name)

	got, err = fakeProvider("dash", false, "", nil).GetContent("-")
	require.NoError(t, err)
	assert.Equal(t, "dash", got.Text)
}

func TestGetContentFromClipboard(t *testing.T) {
	got, err := fakeProvider("", false, "from clipboard", nil).GetContent("")
	require.NoError(t, err)
	assert.Equal(t, "from clipboard", got.Text)

	got, err = fakeProvider("", false, "  \n", nil).GetContent("")
	require.NoError(t, err)
	assert.Empty(t, got.Text)

	_, err = fakeProvider("", false, "", errors.New("no xclip")).GetContent("")
	assert.ErrorContains(t, err, "no xclip")
}
