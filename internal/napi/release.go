package napi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// builtArtifacts lists the backend binaries currently present in binDir.
func builtArtifacts() ([]string, error) {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return nil, fmt.Errorf("no build output at %s, build first: %w", binDir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), appName+"-") {
			continue
		}
		paths = append(paths, filepath.Join(binDir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s binaries in %s, build first", appName, binDir)
	}
	return paths, nil
}

// handleReleaseCommand archives every built binary into the release dir
// and writes a BLAKE3 checksum manifest next to the archives.
func handleReleaseCommand(cfg *Config) error {
	artifacts, err := builtArtifacts()
	if err != nil {
		return err
	}

	format, err := releaseFormat(cfg)
	if err != nil {
		return err
	}

	var archives []string
	for _, artifact := range artifacts {
		colArrow.Print("-> ")
		colSuccess.Printf("Archiving %s\n", filepath.Base(artifact))
		archivePath, err := archiveArtifact(artifact, releaseDir, format)
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", filepath.Base(artifact), err)
		}
		archives = append(archives, archivePath)
	}

	manifestPath := filepath.Join(releaseDir, "checksums")
	if err := writeChecksumManifest(archives, manifestPath); err != nil {
		return err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Release ready: %d archives + checksums in %s\n", len(archives), releaseDir)
	return nil
}
