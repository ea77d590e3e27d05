package napi

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Mirror represents one alternate network endpoint for a toolchain.
type Mirror struct {
	Name string
	URL  string
	Type string // "npm" or "goproxy"
}

func loadMirrors(cfg *Config) []Mirror {
	var mirrors []Mirror
	seen := make(map[string]bool)

	listStr := cfg.Values["MIRROR_LIST"]
	if listStr != "" {
		for _, name := range strings.Split(listStr, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			m := Mirror{
				Name: name,
				URL:  cfg.Values["MIRROR_"+name+"_URL"],
				Type: cfg.Values["MIRROR_"+name+"_TYPE"],
			}
			if m.URL != "" {
				mirrors = append(mirrors, m)
				seen[name] = true
			}
		}
	}

	// Pick up individually declared mirrors the list missed
	for k, v := range cfg.Values {
		if strings.HasPrefix(k, "MIRROR_") && strings.HasSuffix(k, "_URL") {
			name := strings.TrimSuffix(strings.TrimPrefix(k, "MIRROR_"), "_URL")
			if seen[name] {
				continue
			}
			mirrors = append(mirrors, Mirror{
				Name: name,
				URL:  v,
				Type: cfg.Values["MIRROR_"+name+"_TYPE"],
			})
			seen[name] = true
		}
	}

	sort.Slice(mirrors, func(i, j int) bool {
		return mirrors[i].Name < mirrors[j].Name
	})

	return mirrors
}

// mirrorEnv derives the environment additions that point the package
// manager and the Go toolchain at the configured mirrors. The result is
// threaded explicitly into each Runner call; napi never mutates its own
// process environment for this.
func mirrorEnv(cfg *Config) []string {
	var env []string
	if proxy := cfg.Values["GOPROXY"]; proxy != "" {
		env = append(env, "GOPROXY="+proxy+",direct")
		sumdb := cfg.Values["GOSUMDB"]
		if sumdb == "" {
			sumdb = "off"
		}
		env = append(env, "GOSUMDB="+sumdb)
	}
	if registry := cfg.Values["NPM_REGISTRY"]; registry != "" {
		env = append(env, "npm_config_registry="+registry)
	}
	return env
}

// writeNpmrc rewrites the web project's .npmrc override so npm invocations
// use the configured registry. Always rewritten, never merged.
func writeNpmrc(cfg *Config) error {
	registry := cfg.Values["NPM_REGISTRY"]
	if registry == "" {
		return nil
	}
	path := filepath.Join(webDir, ".npmrc")
	content := fmt.Sprintf("registry=%s\n", registry)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// HandleMirrorCommand manages mirror configuration
func HandleMirrorCommand(args []string, cfg *Config) error {
	if len(args) == 0 {
		return listMirrors(cfg)
	}

	switch args[0] {
	case "list", "ls":
		return listMirrors(cfg)
	case "use", "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: napi mirrors use <name>")
		}
		return setMirror(cfg, args[1])
	case "add":
		// add <name> <url> [type]
		if len(args) < 3 {
			return fmt.Errorf("usage: napi mirrors add <name> <url> [npm|goproxy]")
		}
		mType := "npm"
		if len(args) > 3 {
			mType = args[3]
		}
		return addMirror(cfg, args[1], args[2], mType)
	default:
		return fmt.Errorf("unknown mirrors command: %s", args[0])
	}
}

func listMirrors(cfg *Config) error {
	mirrors := loadMirrors(cfg)

	colSuccess.Println("Configured Mirrors:")
	if len(mirrors) == 0 {
		fmt.Println("  (No mirrors configured)")
	}

	for _, m := range mirrors {
		active := (m.Type == "npm" && cfg.Values["NPM_REGISTRY"] == m.URL) ||
			(m.Type == "goproxy" && cfg.Values["GOPROXY"] == m.URL)
		prefix := "  "
		if active {
			prefix = "* "
			colSuccess.Printf("%s%s (%s)\n", prefix, m.Name, m.Type)
		} else {
			fmt.Printf("%s%s (%s)\n", prefix, m.Name, m.Type)
		}
		fmt.Printf("    URL: %s\n", m.URL)
	}

	if cfg.Values["GOPROXY"] != "" {
		fmt.Printf("\nActive Go proxy: %s\n", cfg.Values["GOPROXY"])
	}
	if cfg.Values["NPM_REGISTRY"] != "" {
		fmt.Printf("Active npm registry: %s\n", cfg.Values["NPM_REGISTRY"])
	}

	return nil
}

func setMirror(cfg *Config, name string) error {
	var found *Mirror
	for _, m := range loadMirrors(cfg) {
		if m.Name == name {
			found = &m
			break
		}
	}
	if found == nil {
		return fmt.Errorf("mirror '%s' not found", name)
	}

	key := "NPM_REGISTRY"
	if found.Type == "goproxy" {
		key = "GOPROXY"
	}
	if err := setConfigValue(cfg, key, found.URL); err != nil {
		return err
	}

	colSuccess.Printf("Switched %s mirror to: %s\n", found.Type, name)
	return nil
}

func addMirror(cfg *Config, name, url, mType string) error {
	if mType != "npm" && mType != "goproxy" {
		return fmt.Errorf("unknown mirror type: %s (want npm or goproxy)", mType)
	}
	if err := setConfigValue(cfg, "MIRROR_"+name+"_URL", url); err != nil {
		return err
	}
	if err := setConfigValue(cfg, "MIRROR_"+name+"_TYPE", mType); err != nil {
		return err
	}

	listStr := cfg.Values["MIRROR_LIST"]
	names := []string{}
	if listStr != "" {
		names = strings.Split(listStr, ",")
	}
	exists := false
	for _, n := range names {
		if strings.TrimSpace(n) == name {
			exists = true
			break
		}
	}
	if !exists {
		names = append(names, name)
		if err := setConfigValue(cfg, "MIRROR_LIST", strings.Join(names, ",")); err != nil {
			return err
		}
	}

	colSuccess.Printf("Added mirror: %s\n", name)
	return nil
}
