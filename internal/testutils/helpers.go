// Package testutils holds fixtures shared by the tests of several packages.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/namesake/internal/config"
	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/pattern"
)

// Page is a small document with a dead name in the title, the body and an
// input value.
const Page = `<!DOCTYPE html>
<html><head><title>Ann</title></head><body><p>Hi Ann</p><input value="Ann"/></body></html>`

// Config returns the default configuration with pairs as first names. Without
// pairs it maps Ann to Emma.
func Config(pairs ...pattern.NamePair) *config.Config {
	if len(pairs) == 0 {
		pairs = []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}
	}
	cfg := config.Default()
	cfg.Names.First = pairs
	return cfg
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// MustParse parses s as a complete document.
func MustParse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode().Perm()
	require.Equal(t, expectedMode, actualMode,
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode, expectedMode)
}

// WaitForContent waits until path contains substr.
func WaitForContent(t *testing.T, path, substr string, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), substr)
	}, timeout, 10*time.Millisecond, "%s never contained %q", path, substr)
}
