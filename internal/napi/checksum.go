package napi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"lukechampine.com/blake3"
)

// ComputeChecksums hashes the given files with BLAKE3, fanning out over a
// small worker pool. Returns path -> hex digest.
func ComputeChecksums(paths []string) (map[string]string, error) {
	results := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	numWorkers := runtime.NumCPU()
	if len(paths) < numWorkers {
		numWorkers = len(paths)
	}

	jobs := make(chan string, len(paths))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 64*1024)
			for path := range jobs {
				hash, err := hashFile(path, buf)
				mu.Lock()
				if err != nil {
					errOnce.Do(func() { firstErr = err })
				} else {
					results[path] = hash
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

func hashFile(path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// writeChecksumManifest writes "<hash>  <basename>" lines for the given
// files, sorted by name, to outPath.
func writeChecksumManifest(paths []string, outPath string) error {
	sums, err := ComputeChecksums(paths)
	if err != nil {
		return fmt.Errorf("failed to compute checksums: %w", err)
	}

	sorted := append([]string{}, paths...)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})

	var out string
	for _, p := range sorted {
		out += fmt.Sprintf("%s  %s\n", sums[p], filepath.Base(p))
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write checksum manifest: %w", err)
	}
	return nil
}
