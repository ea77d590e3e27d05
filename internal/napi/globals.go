package napi

import (
	"sync/atomic"

	"github.com/gookit/color"
)

// GLOBAL STATE
// A value of 1 means a child process is in a critical phase (e.g. go build
// writing an artifact) and the first interrupt should be held back.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	rootDir    string
	webDir     string
	distDir    string
	binDir     string
	logDir     string
	releaseDir string
	appName    = "new-api"
	ConfigFile = "napi.conf"
	EnvFile    = ".env"
	Debug      bool
	Verbose    bool
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time
	// Global runner (assigned in Main)
	Proc *Runner
)

// color helpers
var (
	colInfo    = color.Info
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
