package napi

import (
	"fmt"
	"os"
	"path/filepath"
)

// handleCleanCommand removes build outputs. With all set it also drops the
// dependency cache and release directory.
func handleCleanCommand(all bool) error {
	targets := []string{binDir, distDir}
	if all {
		targets = append(targets,
			filepath.Join(webDir, "node_modules"),
			releaseDir,
			logDir,
		)
	}

	label := "build outputs"
	if all {
		label = "build outputs, web dependencies, releases and logs"
	}
	colArrow.Print("-> ")
	colWarn.Printf("This will remove %s.\n", label)
	if !askForConfirmation(colArrow, "Are you sure you want to proceed?") {
		colArrow.Print("-> ")
		colSuccess.Println("Cleanup canceled.")
		return nil
	}

	for _, dir := range targets {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		debugf("Removing %s\n", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}

	colArrow.Print("-> ")
	colSuccess.Println("Cleanup finished.")
	return nil
}
