package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkPDFs(t *testing.T) {
	root := t.TempDir()
	mkfile := func(rel string) string {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		return path
	}

	want := []string{
		mkfile("Acme-call.pdf"),
		mkfile("nested/Globex-presentation.PDF"),
	}
	mkfile("notes.txt")
	mkfile("__MACOSX/Acme-call.pdf")

	got, err := WalkPDFs(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

func TestWalkPDFsSingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got, err := WalkPDFs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, got)
}

func TestWalkPDFsMissingPath(t *testing.T) {
	_, err := WalkPDFs(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
