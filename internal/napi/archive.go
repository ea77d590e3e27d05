package napi

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// archiveFormats maps the configured release format to a file extension.
var archiveFormats = map[string]string{
	"gz":  ".tar.gz",
	"xz":  ".tar.xz",
	"zst": ".tar.zst",
}

// releaseFormat returns the configured archive format, defaulting to gz.
func releaseFormat(cfg *Config) (string, error) {
	format := cfg.Values["RELEASE_FORMAT"]
	if format == "" {
		format = "gz"
	}
	if _, ok := archiveFormats[format]; !ok {
		return "", fmt.Errorf("unknown release format %q (want gz, xz or zst)", format)
	}
	return format, nil
}

// archiveArtifact wraps one built binary into a single-entry tarball in
// destDir and returns the archive path.
func archiveArtifact(srcPath, destDir, format string) (string, error) {
	ext, ok := archiveFormats[format]
	if !ok {
		return "", fmt.Errorf("unknown archive format: %s", format)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create release directory: %w", err)
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("artifact missing: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(srcPath)+ext)
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	var cw io.WriteCloser
	switch format {
	case "gz":
		cw = pgzip.NewWriter(out)
	case "xz":
		cw, err = xz.NewWriter(out)
	case "zst":
		cw, err = zstd.NewWriter(out)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s writer: %w", format, err)
	}

	tw := tar.NewWriter(cw)

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return "", err
	}
	hdr.Name = filepath.Base(srcPath)
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "root", "root"

	if err := tw.WriteHeader(hdr); err != nil {
		return "", err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tw, src); err != nil {
		src.Close()
		return "", err
	}
	src.Close()

	if err := tw.Close(); err != nil {
		return "", err
	}
	if err := cw.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}
