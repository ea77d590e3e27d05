package napi

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Target identifies one (operating system, architecture) pair a backend
// binary is produced for. Immutable once constructed.
type Target struct {
	OS   string // windows, darwin, linux
	Arch string // amd64, arm64, 386
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// ArtifactName returns the backend binary name for this target,
// <app>-<os>-<arch> with .exe appended on windows.
func (t Target) ArtifactName(app string) string {
	name := fmt.Sprintf("%s-%s-%s", app, t.OS, t.Arch)
	if t.OS == "windows" {
		name += ".exe"
	}
	return name
}

// crossTargets is the fixed fan-out list for cross-compilation.
var crossTargets = []Target{
	{OS: "linux", Arch: "amd64"},
	{OS: "linux", Arch: "arm64"},
	{OS: "windows", Arch: "amd64"},
	{OS: "windows", Arch: "arm64"},
	{OS: "darwin", Arch: "amd64"},
	{OS: "darwin", Arch: "arm64"},
}

// Alias tables for platform names reported by other runtimes (node, uname).
var osAliases = map[string]string{
	"windows": "windows",
	"win32":   "windows",
	"darwin":  "darwin",
	"macos":   "darwin",
	"linux":   "linux",
}

var archAliases = map[string]string{
	"amd64":   "amd64",
	"x64":     "amd64",
	"x86_64":  "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"386":     "386",
	"x86":     "386",
	"ia32":    "386",
}

// ResolveTarget normalizes host platform names to a Target.
func ResolveTarget(hostOS, hostArch string) (Target, error) {
	goos, ok := osAliases[hostOS]
	if !ok {
		return Target{}, fmt.Errorf("unsupported operating system: %s", hostOS)
	}
	goarch, ok := archAliases[hostArch]
	if !ok {
		return Target{}, fmt.Errorf("unsupported architecture: %s", hostArch)
	}
	return Target{OS: goos, Arch: goarch}, nil
}

// HostTarget returns the target matching the machine napi runs on.
func HostTarget() Target {
	return Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// hasToolchain reports whether an external tool is on PATH.
func hasToolchain(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// toolchainHint returns installation guidance for a missing tool on the
// current host platform.
func toolchainHint(tool string) string {
	switch tool {
	case "go":
		switch runtime.GOOS {
		case "darwin":
			return "install the Go toolchain: brew install go (or https://go.dev/dl)"
		case "windows":
			return "install the Go toolchain from https://go.dev/dl and re-open the terminal"
		default:
			return "install the Go toolchain via your package manager (e.g. apt install golang-go) or https://go.dev/dl"
		}
	case "npm":
		switch runtime.GOOS {
		case "darwin":
			return "install Node.js: brew install node (or https://nodejs.org)"
		case "windows":
			return "install Node.js from https://nodejs.org and re-open the terminal"
		default:
			return "install Node.js via your package manager (e.g. apt install nodejs npm) or https://nodejs.org"
		}
	}
	return "install " + tool + " and make sure it is on PATH"
}
