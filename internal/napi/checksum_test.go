package napi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lukechampine.com/blake3"
)

func TestComputeChecksums(t *testing.T) {
	dir := t.TempDir()
	contents := map[string]string{
		"a.tar.gz": "alpha",
		"b.tar.gz": "beta",
		"c.tar.gz": "gamma",
	}
	var paths []string
	for name, body := range contents {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}

	sums, err := ComputeChecksums(paths)
	if err != nil {
		t.Fatalf("ComputeChecksums: %v", err)
	}
	if len(sums) != len(paths) {
		t.Fatalf("got %d sums for %d files", len(sums), len(paths))
	}

	for _, p := range paths {
		want := blake3.Sum256([]byte(contents[filepath.Base(p)]))
		if got := sums[p]; got != fmt.Sprintf("%x", want) {
			t.Errorf("digest mismatch for %s: %s", filepath.Base(p), got)
		}
	}
}

func TestComputeChecksumsEmpty(t *testing.T) {
	sums, err := ComputeChecksums(nil)
	if err != nil {
		t.Fatalf("ComputeChecksums(nil): %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("expected empty map, got %v", sums)
	}
}

func TestComputeChecksumsMissingFile(t *testing.T) {
	_, err := ComputeChecksums([]string{filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestWriteChecksumManifest(t *testing.T) {
	dir := t.TempDir()
	// Deliberately unsorted input.
	names := []string{"zeta.tar.gz", "alpha.tar.gz"}
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}

	manifest := filepath.Join(dir, "checksums")
	if err := writeChecksumManifest(paths, manifest); err != nil {
		t.Fatalf("writeChecksumManifest: %v", err)
	}

	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 manifest lines, got %d:\n%s", len(lines), data)
	}
	if !strings.HasSuffix(lines[0], "  alpha.tar.gz") || !strings.HasSuffix(lines[1], "  zeta.tar.gz") {
		t.Errorf("manifest not sorted by name:\n%s", data)
	}
	for _, line := range lines {
		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 || len(fields[0]) != 64 {
			t.Errorf("malformed manifest line: %q", line)
		}
	}
}
