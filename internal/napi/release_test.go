package napi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltArtifacts(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	for _, name := range []string{
		"new-api-linux-amd64",
		"new-api-windows-amd64.exe",
		"stray-file",
		".napi.lock",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, name), []byte("x"), 0o755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(binDir, "new-api-subdir"), 0o755))

	paths, err := builtArtifacts()
	require.NoError(t, err)
	require.Len(t, paths, 2, "only app binaries count")
	for _, p := range paths {
		assert.True(t, strings.HasPrefix(filepath.Base(p), "new-api-"))
	}
}

func TestBuiltArtifactsEmpty(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.MkdirAll(binDir, 0o755))

	_, err := builtArtifacts()
	require.Error(t, err, "an empty bin dir means nothing was built")
}

func TestHandleReleaseCommand(t *testing.T) {
	cfg := setupProject(t)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	binaries := []string{"new-api-linux-amd64", "new-api-darwin-arm64"}
	for _, name := range binaries {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, name), []byte(name), 0o755))
	}

	require.NoError(t, handleReleaseCommand(cfg))

	for _, name := range binaries {
		_, err := os.Stat(filepath.Join(releaseDir, name+".tar.gz"))
		assert.NoError(t, err, "archive for %s", name)
	}

	data, err := os.ReadFile(filepath.Join(releaseDir, "checksums"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, len(binaries))
	for _, name := range binaries {
		assert.Contains(t, string(data), name+".tar.gz")
	}
}

func TestHandleReleaseCommandNoBuilds(t *testing.T) {
	cfg := setupProject(t)
	require.Error(t, handleReleaseCommand(cfg))
}

func TestHandleReleaseCommandBadFormat(t *testing.T) {
	cfg := setupProject(t)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "new-api-linux-amd64"), []byte("x"), 0o755))
	cfg.Values["RELEASE_FORMAT"] = "rar"

	require.Error(t, handleReleaseCommand(cfg))
}
