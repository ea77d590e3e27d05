package napi

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// LoadEnvFile reads a flat KEY=VALUE file. Blank lines and # comments are
// ignored, lines without '=' are skipped, matching surrounding quotes are
// stripped from values. A missing file is an error; launching without its
// configuration is never attempted.
func LoadEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read environment file %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// LocateExecutable computes the backend binary path for a host platform
// using the same naming convention the pipeline writes artifacts with.
// Fails when no file exists at the computed path.
func LocateExecutable(hostOS, hostArch, dir string) (string, error) {
	t, err := ResolveTarget(hostOS, hostArch)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, t.ArtifactName(appName))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no binary for %s at %s, build it first", t, path)
	}
	return path, nil
}

// mergeEnv overlays file-sourced keys on the inherited environment.
// File values win on key collision.
func mergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, shadowed := overrides[key]; !shadowed {
			merged = append(merged, kv)
		}
	}
	for k, v := range overrides {
		merged = append(merged, k+"="+v)
	}
	return merged
}

// forwardSignals relays every signal received on sigs to proc so the child
// gets a chance to shut down gracefully before the launcher exits.
func forwardSignals(sigs <-chan os.Signal, proc *os.Process) {
	for sig := range sigs {
		if proc == nil {
			continue
		}
		if err := proc.Signal(sig); err != nil {
			debugf("signal forward failed: %v\n", err)
		}
	}
}

// RunApp launches the backend binary for the current host, merging the
// .env configuration over the inherited environment, and returns the exit
// code napi itself should exit with.
func RunApp(cfg *Config) int {
	envPath := filepath.Join(rootDir, EnvFile)
	if p := cfg.Values["NAPI_ENV_FILE"]; p != "" {
		envPath = p
	}

	envMap, err := LoadEnvFile(envPath)
	if err != nil {
		colArrow.Print("-> ")
		colError.Printf("%v\n", err)
		return 1
	}

	exe, err := LocateExecutable(runtime.GOOS, runtime.GOARCH, binDir)
	if err != nil {
		colArrow.Print("-> ")
		colError.Printf("%v\n", err)
		return 1
	}

	// Direct process creation, no shell interpretation.
	cmd := exec.Command(exe)
	cmd.Dir = rootDir
	cmd.Env = mergeEnv(os.Environ(), envMap)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	colArrow.Print("-> ")
	colSuccess.Printf("Starting %s\n", filepath.Base(exe))

	if err := cmd.Start(); err != nil {
		colArrow.Print("-> ")
		colError.Printf("Failed to start %s: %v\n", exe, err)
		return 1
	}

	// Forward termination signals instead of letting the default
	// disposition tear down only the launcher.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go forwardSignals(sigs, cmd.Process)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()

	waitErr := cmd.Wait()
	return launchExitCode(waitErr, cmd)
}

// launchExitCode relays the child's exit code; a signal-terminated child
// maps to a non-zero status.
func launchExitCode(waitErr error, cmd *exec.Cmd) int {
	if waitErr == nil {
		return 0
	}
	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			return code
		}
		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
	}
	return 1
}
