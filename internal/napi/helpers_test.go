package napi

import (
	"path/filepath"
	"testing"
)

// setupProject points the package globals at a fresh temp project root.
func setupProject(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := &Config{
		Values: map[string]string{"NAPI_ROOT": root},
		Path:   filepath.Join(root, "napi.conf"),
	}
	initConfig(cfg)
	return cfg
}
