package napi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// handleUploadCommand pushes the release archives and checksum manifest to
// the configured release bucket under <app>/<version>/.
func handleUploadCommand(ctx context.Context, cfg *Config) error {
	client, err := NewR2Client(cfg)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(releaseDir)
	if err != nil {
		return fmt.Errorf("no release at %s, run 'napi release' first: %w", releaseDir, err)
	}

	version := readVersion()
	prefix := fmt.Sprintf("%s/%s/", appName, version)

	uploaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key := prefix + e.Name()
		path := filepath.Join(releaseDir, e.Name())

		colArrow.Print("-> ")
		colSuccess.Printf("Uploading %s\n", key)
		if err := client.UploadLocalFile(ctx, key, path); err != nil {
			return fmt.Errorf("upload of %s failed: %w", e.Name(), err)
		}
		uploaded++
	}

	if uploaded == 0 {
		return fmt.Errorf("nothing to upload in %s", releaseDir)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Uploaded %d files to %s\n", uploaded, prefix)
	return nil
}
