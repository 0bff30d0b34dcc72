package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStateMediaTypeFollowsContent checks re-detection on every change.
func TestStateMediaTypeFollowsContent(t *testing.T) {
	st := NewState("pdf", []byte("hello"), "en", t.TempDir(), fakeDetect)
	assert.Equal(t, "text/plain; charset=utf-8", st.MediaType())
	assert.Equal(t, "text/plain; charset=utf-8", st.OriginalMediaType())

	require.NoError(t, st.SetContent([]byte("%PDF-1.7")))
	assert.Equal(t, "application/pdf", st.MediaType())
	assert.Equal(t, fakeDetect(st.Content()), st.MediaType())
	assert.Equal(t, "hello", string(st.OriginalContent()))
	assert.Equal(t, "text/plain; charset=utf-8", st.OriginalMediaType())
	assert.Equal(t, "pdf", st.Action())
	assert.Equal(t, "en", st.Language())
}

// TestStateContentFileInvalidation verifies the scratch file tracks content.
func TestStateContentFileInvalidation(t *testing.T) {
	dir := t.TempDir()
	st := NewState("txt", []byte("first"), "en", dir, fakeDetect)

	path, err := st.ContentFile(".txt")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".txt"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	again, err := st.ContentFile("")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	require.NoError(t, st.SetContent([]byte("second")))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "stale scratch file should be removed")

	next, err := st.ContentFile(".txt")
	require.NoError(t, err)
	data, err = os.ReadFile(next)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

// TestStateContentFileSuffixChange replaces a file with the wrong suffix.
func TestStateContentFileSuffixChange(t *testing.T) {
	st := NewState("pdf", []byte("<html></html>"), "en", t.TempDir(), fakeDetect)

	plain, err := st.ContentFile("")
	require.NoError(t, err)
	html, err := st.ContentFile(".html")
	require.NoError(t, err)
	assert.NotEqual(t, plain, html)
	assert.True(t, strings.HasSuffix(html, ".html"))

	_, err = os.Stat(plain)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

// TestStateTempPathInsideScratch checks generated paths.
func TestStateTempPathInsideScratch(t *testing.T) {
	dir := t.TempDir()
	st := NewState("pdf", nil, "en", dir, fakeDetect)

	a := st.TempPath("out-", ".pdf")
	b := st.TempPath("out-", ".pdf")
	assert.NotEqual(t, a, b)
	assert.Equal(t, dir, filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "out-"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	_, err := os.Stat(a)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

// TestStateResetContentFileTolerant ignores files already gone.
func TestStateResetContentFileTolerant(t *testing.T) {
	st := NewState("pdf", []byte("x"), "en", t.TempDir(), fakeDetect)
	path, err := st.ContentFile("")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	require.NoError(t, st.ResetContentFile())
	require.NoError(t, st.ResetContentFile())
}
