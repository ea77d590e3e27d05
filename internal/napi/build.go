package napi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// BuildResult records the outcome of one backend compilation. Never
// mutated after creation; every target entering the pipeline produces
// exactly one.
type BuildResult struct {
	Target    Target
	Succeeded bool
}

// commandRunner is the spawn-and-observe primitive the pipeline sequences
// its stages over. Satisfied by *Runner; tests substitute a recorder.
type commandRunner interface {
	Run(RunSpec) Result
}

// Pipeline sequences dependency install, asset build, module tidy and
// cross-target compilation for the application.
type Pipeline struct {
	cfg     *Config
	runner  commandRunner
	app     string
	version string
	hasTool func(string) bool // PATH probe, overridable in tests
}

func NewPipeline(cfg *Config, runner commandRunner) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		runner:  runner,
		app:     appName,
		version: readVersion(),
		hasTool: hasToolchain,
	}
}

// readVersion reads the application version from the VERSION file in the
// project root, falling back to "dev".
func readVersion() string {
	data, err := os.ReadFile(filepath.Join(rootDir, "VERSION"))
	if err != nil {
		return "dev"
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "dev"
	}
	return v
}

// ldflagsVar is the link-time variable the version string is written into.
func (p *Pipeline) ldflagsVar() string {
	if v := p.cfg.Values["LDFLAGS_VAR"]; v != "" {
		return v
	}
	return "one-api/common.Version"
}

// BuildWeb produces the front-end assets. It installs dependencies first
// when node_modules is absent, retrying once with --force, then runs the
// asset build with lint demoted and the version injected.
func (p *Pipeline) BuildWeb() Result {
	if st, err := os.Stat(webDir); err != nil || !st.IsDir() {
		colArrow.Print("-> ")
		colError.Printf("Web directory %s not found, nothing to build\n", webDir)
		return failPrecondition("web directory %s not found", webDir)
	}
	if !p.hasTool("npm") {
		colArrow.Print("-> ")
		colError.Println("npm not found on PATH")
		colWarn.Printf("   %s\n", toolchainHint("npm"))
		return failPrecondition("npm toolchain not found")
	}

	if err := writeNpmrc(p.cfg); err != nil {
		return failPrecondition("npm registry override: %v", err)
	}

	env := mirrorEnv(p.cfg)

	if _, err := os.Stat(filepath.Join(webDir, "node_modules")); os.IsNotExist(err) {
		colArrow.Print("-> ")
		colSuccess.Println("Installing web dependencies")
		res := p.runner.Run(RunSpec{
			Name:  "npm",
			Args:  []string{"install"},
			Dir:   webDir,
			Env:   env,
			Label: "npm install",
		})
		if !res.OK {
			// One bounded retry in permissive mode; peer-dependency
			// conflicts in the lockfile are the usual culprit.
			colArrow.Print("-> ")
			colWarn.Println("npm install failed, retrying with --force")
			res = p.runner.Run(RunSpec{
				Name:  "npm",
				Args:  []string{"install", "--force"},
				Dir:   webDir,
				Env:   env,
				Label: "npm install --force",
			})
		}
		if !res.OK {
			return res
		}
	}

	colArrow.Print("-> ")
	colSuccess.Println("Building web assets")
	buildEnv := append(append([]string{}, env...),
		"DISABLE_ESLINT_PLUGIN=true",
		"VITE_REACT_APP_VERSION="+p.version,
		"REACT_APP_VERSION="+p.version,
		"NODE_OPTIONS=--max-old-space-size=4096",
	)
	return p.runner.Run(RunSpec{
		Name:  "npm",
		Args:  []string{"run", "build"},
		Dir:   webDir,
		Env:   buildEnv,
		Label: "web build",
	})
}

// BuildBackend compiles one backend binary for the given target. Front-end
// assets must already exist; this never builds them.
func (p *Pipeline) BuildBackend(t Target) Result {
	if !p.hasTool("go") {
		colArrow.Print("-> ")
		colError.Println("Go toolchain not found on PATH")
		colWarn.Printf("   %s\n", toolchainHint("go"))
		return failPrecondition("go toolchain not found")
	}
	if st, err := os.Stat(distDir); err != nil || !st.IsDir() {
		colArrow.Print("-> ")
		colError.Printf("Web assets missing at %s, build them first\n", distDir)
		return failPrecondition("web assets missing at %s", distDir)
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return failPrecondition("cannot create %s: %v", binDir, err)
	}

	env := mirrorEnv(p.cfg)

	colArrow.Print("-> ")
	colSuccess.Printf("Updating module dependencies for %s\n", t)
	if res := p.runner.Run(RunSpec{
		Name:  "go",
		Args:  []string{"mod", "tidy"},
		Dir:   rootDir,
		Env:   env,
		Label: "go mod tidy",
	}); !res.OK {
		return res
	}

	artifact := t.ArtifactName(p.app)
	outPath := filepath.Join(binDir, artifact)

	colArrow.Print("-> ")
	colSuccess.Printf("Compiling %s\n", artifact)
	buildEnv := append(append([]string{}, env...),
		"GOOS="+t.OS,
		"GOARCH="+t.Arch,
		"CGO_ENABLED=0",
	)
	ldflags := fmt.Sprintf("-s -w -X '%s=%s'", p.ldflagsVar(), p.version)
	return p.runner.Run(RunSpec{
		Name:     "go",
		Args:     []string{"build", "-o", outPath, "-ldflags", ldflags, "."},
		Dir:      rootDir,
		Env:      buildEnv,
		Label:    "compile " + t.String(),
		Critical: true,
	})
}

// BuildAll builds the web assets and then the host platform's backend.
// It short-circuits on the first failure; no partial recovery.
func (p *Pipeline) BuildAll() Result {
	start := time.Now()
	if res := p.BuildWeb(); !res.OK {
		return res
	}
	res := p.BuildBackend(HostTarget())
	if res.OK {
		colArrow.Print("-> ")
		colSuccess.Printf("Build finished in %s\n", time.Since(start).Truncate(time.Second))
	}
	return res
}

// CrossCompile builds the web assets once, then fans out over the fixed
// target list. A failing target never aborts its siblings; each produces
// exactly one BuildResult. The summary Result is OK only when every
// target succeeded.
func (p *Pipeline) CrossCompile() ([]BuildResult, Result) {
	if res := p.BuildWeb(); !res.OK {
		return nil, res
	}

	results := make([]BuildResult, 0, len(crossTargets))
	for _, t := range crossTargets {
		res := p.BuildBackend(t)
		results = append(results, BuildResult{Target: t, Succeeded: res.OK})
	}

	successCount := 0
	for _, r := range results {
		if r.Succeeded {
			successCount++
		}
	}

	fmt.Println()
	colArrow.Print("-> ")
	colSuccess.Printf("Cross-compilation finished: %d/%d targets succeeded\n", successCount, len(results))
	for _, r := range results {
		if r.Succeeded {
			colInfo.Printf("   ok      %s\n", r.Target)
		} else {
			colError.Printf("   failed  %s\n", r.Target)
		}
	}

	if successCount != len(results) {
		return results, failTool(fmt.Errorf("%d of %d targets failed", len(results)-successCount, len(results)))
	}
	return results, okResult()
}

// withBuildLock serializes build commands across napi processes with an
// exclusive flock on the project lock file.
func withBuildLock(fn func() Result) Result {
	lockPath := filepath.Join(rootDir, ".napi.lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return failPrecondition("cannot open build lock: %v", err)
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return failPrecondition("cannot acquire build lock: %v", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return fn()
}
