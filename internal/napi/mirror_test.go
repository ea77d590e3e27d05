package napi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMirrorEnv(t *testing.T) {
	cfg := &Config{Values: map[string]string{
		"GOPROXY":      "https://proxy.example.com",
		"NPM_REGISTRY": "https://registry.example.com",
	}}
	env := mirrorEnv(cfg)

	joined := strings.Join(env, "\n")
	if !strings.Contains(joined, "GOPROXY=https://proxy.example.com,direct") {
		t.Errorf("missing GOPROXY entry:\n%s", joined)
	}
	if !strings.Contains(joined, "GOSUMDB=off") {
		t.Errorf("checksum database must default to off with a proxy set:\n%s", joined)
	}
	if !strings.Contains(joined, "npm_config_registry=https://registry.example.com") {
		t.Errorf("missing npm registry entry:\n%s", joined)
	}
}

func TestMirrorEnvEmpty(t *testing.T) {
	if env := mirrorEnv(&Config{Values: map[string]string{}}); len(env) != 0 {
		t.Errorf("no mirrors configured must mean no env additions, got %v", env)
	}
}

func TestLoadMirrors(t *testing.T) {
	cfg := &Config{Values: map[string]string{
		"MIRROR_LIST":        "cn-npm",
		"MIRROR_cn-npm_URL":  "https://registry.npmmirror.com",
		"MIRROR_cn-npm_TYPE": "npm",
		// Declared outside the list, still picked up.
		"MIRROR_goproxy-cn_URL":  "https://goproxy.cn",
		"MIRROR_goproxy-cn_TYPE": "goproxy",
	}}

	mirrors := loadMirrors(cfg)
	if len(mirrors) != 2 {
		t.Fatalf("expected 2 mirrors, got %d", len(mirrors))
	}
	// Sorted by name.
	if mirrors[0].Name != "cn-npm" || mirrors[1].Name != "goproxy-cn" {
		t.Errorf("unexpected order: %v", mirrors)
	}
	if mirrors[1].Type != "goproxy" {
		t.Errorf("type not carried: %v", mirrors[1])
	}
}

func TestAddAndUseMirror(t *testing.T) {
	cfg := setupProject(t)

	if err := addMirror(cfg, "cn-npm", "https://registry.npmmirror.com", "npm"); err != nil {
		t.Fatalf("addMirror: %v", err)
	}
	if err := setMirror(cfg, "cn-npm"); err != nil {
		t.Fatalf("setMirror: %v", err)
	}

	if got := cfg.Values["NPM_REGISTRY"]; got != "https://registry.npmmirror.com" {
		t.Errorf("NPM_REGISTRY = %q after use", got)
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "MIRROR_cn-npm_URL=https://registry.npmmirror.com") {
		t.Errorf("mirror not persisted:\n%s", data)
	}
	if !strings.Contains(string(data), "MIRROR_LIST=cn-npm") {
		t.Errorf("mirror list not updated:\n%s", data)
	}
}

func TestAddMirrorRejectsUnknownType(t *testing.T) {
	cfg := setupProject(t)
	if err := addMirror(cfg, "bad", "https://x.example.com", "ftp"); err == nil {
		t.Fatal("expected error for unknown mirror type")
	}
}

func TestWriteNpmrc(t *testing.T) {
	cfg := setupProject(t)
	if err := os.MkdirAll(webDir, 0o755); err != nil {
		t.Fatalf("mkdir web: %v", err)
	}
	cfg.Values["NPM_REGISTRY"] = "https://registry.example.com"

	if err := writeNpmrc(cfg); err != nil {
		t.Fatalf("writeNpmrc: %v", err)
	}
	path := filepath.Join(webDir, ".npmrc")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read .npmrc: %v", err)
	}
	if string(data) != "registry=https://registry.example.com\n" {
		t.Errorf(".npmrc content = %q", data)
	}

	// Always rewritten, never merged.
	cfg.Values["NPM_REGISTRY"] = "https://other.example.com"
	if err := writeNpmrc(cfg); err != nil {
		t.Fatalf("writeNpmrc rewrite: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "registry=https://other.example.com\n" {
		t.Errorf(".npmrc not rewritten: %q", data)
	}
}

func TestWriteNpmrcNoRegistry(t *testing.T) {
	cfg := setupProject(t)
	if err := writeNpmrc(cfg); err != nil {
		t.Fatalf("writeNpmrc without registry must be a no-op: %v", err)
	}
	if _, err := os.Stat(filepath.Join(webDir, ".npmrc")); !os.IsNotExist(err) {
		t.Error("no .npmrc should be written without a configured registry")
	}
}
