package napi

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
	Path   string
}

// Load napi.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string), Path: path}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
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
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge NAPI_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge NAPI_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "NAPI_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	rootDir = cfg.Values["NAPI_ROOT"]
	if rootDir == "" {
		rootDir = "."
	}

	webDir = cfg.Values["NAPI_WEB_DIR"]
	if webDir == "" {
		webDir = filepath.Join(rootDir, "web")
	}
	distDir = filepath.Join(webDir, "dist")

	binDir = cfg.Values["NAPI_BIN_DIR"]
	if binDir == "" {
		binDir = filepath.Join(rootDir, "bin")
	}

	logDir = cfg.Values["NAPI_LOG_DIR"]
	if logDir == "" {
		logDir = filepath.Join(rootDir, "logs")
	}

	releaseDir = cfg.Values["NAPI_RELEASE_DIR"]
	if releaseDir == "" {
		releaseDir = filepath.Join(rootDir, "releases")
	}

	if name := cfg.Values["NAPI_APP_NAME"]; name != "" {
		appName = name
	}

	Debug = cfg.Values["NAPI_DEBUG"] == "1"
	if !Verbose {
		Verbose = cfg.Values["NAPI_VERBOSE"] == "1"
	}
}

// setConfigValue updates one key in the config file, preserving unrelated
// lines, and keeps the in-memory map in sync.
func setConfigValue(cfg *Config, key, value string) error {
	path := cfg.Path
	if path == "" {
		path = ConfigFile
	}

	var lines []string
	replaced := false

	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "#") {
				if parts := strings.SplitN(trimmed, "=", 2); len(parts) == 2 &&
					strings.TrimSpace(parts[0]) == key {
					lines = append(lines, fmt.Sprintf("%s=%s", key, value))
					replaced = true
					continue
				}
			}
			lines = append(lines, line)
		}
	}

	if !replaced {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	cfg.Values[key] = value
	return nil
}
