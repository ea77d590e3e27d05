package napi

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake binary contents"), 0o755))
	return path
}

func readSingleEntry(t *testing.T, r io.Reader) (string, []byte) {
	t.Helper()
	tr := tar.NewReader(r)
	hdr, err := tr.Next()
	require.NoError(t, err)
	data, err := io.ReadAll(tr)
	require.NoError(t, err)
	_, err = tr.Next()
	require.ErrorIs(t, err, io.EOF, "archive must hold exactly one entry")
	return hdr.Name, data
}

func TestArchiveArtifactGz(t *testing.T) {
	src := writeTestArtifact(t, "new-api-linux-amd64")
	destDir := t.TempDir()

	path, err := archiveArtifact(src, destDir, "gz")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "new-api-linux-amd64.tar.gz"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gzr, err := pgzip.NewReader(f)
	require.NoError(t, err)

	name, data := readSingleEntry(t, gzr)
	assert.Equal(t, "new-api-linux-amd64", name)
	assert.Equal(t, "fake binary contents", string(data))
}

func TestArchiveArtifactZst(t *testing.T) {
	src := writeTestArtifact(t, "new-api-windows-amd64.exe")
	destDir := t.TempDir()

	path, err := archiveArtifact(src, destDir, "zst")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "new-api-windows-amd64.exe.tar.zst"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	name, data := readSingleEntry(t, zr)
	assert.Equal(t, "new-api-windows-amd64.exe", name)
	assert.Equal(t, "fake binary contents", string(data))
}

func TestArchiveArtifactUnknownFormat(t *testing.T) {
	src := writeTestArtifact(t, "new-api-linux-amd64")
	_, err := archiveArtifact(src, t.TempDir(), "rar")
	require.Error(t, err)
}

func TestArchiveArtifactMissingSource(t *testing.T) {
	_, err := archiveArtifact(filepath.Join(t.TempDir(), "absent"), t.TempDir(), "gz")
	require.Error(t, err)
}

func TestReleaseFormat(t *testing.T) {
	tests := []struct {
		configured string
		want       string
		wantErr    bool
	}{
		{"", "gz", false},
		{"gz", "gz", false},
		{"xz", "xz", false},
		{"zst", "zst", false},
		{"rar", "", true},
	}
	for _, tt := range tests {
		cfg := &Config{Values: map[string]string{}}
		if tt.configured != "" {
			cfg.Values["RELEASE_FORMAT"] = tt.configured
		}
		got, err := releaseFormat(cfg)
		if tt.wantErr {
			assert.Error(t, err, "format %q", tt.configured)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
