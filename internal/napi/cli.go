package napi

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: napi <command>")
	colSuccess.Println("Run napi without arguments for the interactive menu")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Desc string
	}
	cmds := []cmdInfo{
		{"all, build", "Build web assets and the backend for this host"},
		{"web", "Build the web assets only"},
		{"backend", "Build the backend for this host only"},
		{"cross, cross-compile", "Build the backend for all supported targets"},
		{"run", "Launch the built backend with the .env configuration"},
		{"clean", "Remove build outputs"},
		{"clean-all", "Remove build outputs, web dependencies, releases and logs"},
		{"release", "Archive built binaries and write a checksum manifest"},
		{"upload", "Upload the release archives to the configured bucket"},
		{"mirrors", "List, add or switch toolchain mirrors"},
		{"logs", "Browse captured build logs"},
		{"version, v", "Version information"},
		{"help, -h, --help", "Show this help"},
	}

	maxLen := 0
	for _, c := range cmds {
		if len(c.Cmd) > maxLen {
			maxLen = len(c.Cmd)
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		fmt.Print(strings.Repeat(" ", columnWidth-len(c.Cmd)))
		color.Info.Println(c.Desc)
	}
	fmt.Println()
}

func printVersion() {
	colSuccess.Printf("napi %s (%s/%s), built %s\n", version, runtime.GOOS, runtime.GOARCH, buildDate)
}

// installInterruptHandler wires SIGINT/SIGTERM to graceful context
// cancellation, with a second-interrupt escape hatch, and holds back the
// first signal while a critical phase is in progress.
func installInterruptHandler(ctx context.Context, cancel context.CancelFunc) chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					colArrow.Print("\n-> ")
					colError.Printf("Critical build phase in progress. Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling gracefully\n", sig)
					cancel()

					time.Sleep(100 * time.Millisecond)

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
						os.Exit(130)
					case <-time.After(2 * time.Second):
						colArrow.Print("\n-> ")
						color.Danger.Printf("Graceful shutdown timeout. Exiting.")
						os.Exit(1)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return sigs
}

// Main is the CLI entrypoint for cmd/napi.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	configPath := ConfigFile
	if root := os.Getenv("NAPI_ROOT"); root != "" {
		configPath = filepath.Join(root, ConfigFile)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", configPath, err)
	}
	initConfig(cfg)

	Proc = NewRunner(ctx)
	pipeline := NewPipeline(cfg, Proc)

	switch cmd {
	case "help", "-h", "--help":
		printHelp()
		return
	case "version", "v":
		printVersion()
		return
	case "run":
		// The launcher owns signal handling: termination signals are
		// forwarded to the child, and its exit code becomes ours.
		os.Exit(RunApp(cfg))
	}

	sigs := installInterruptHandler(ctx, cancel)

	exitCode := 0
	fail := func(err error) {
		colArrow.Print("-> ")
		colError.Printf("Error: %v\n", err)
		exitCode = 1
	}

	switch cmd {
	case "":
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			printHelp()
			exitCode = 1
			break
		}
		exitCode = runMenu(cfg, pipeline, sigs)
	case "all", "build":
		if res := withBuildLock(pipeline.BuildAll); !res.OK {
			exitCode = 1
		}
	case "web":
		if res := withBuildLock(pipeline.BuildWeb); !res.OK {
			exitCode = 1
		}
	case "backend":
		if res := withBuildLock(func() Result {
			return pipeline.BuildBackend(HostTarget())
		}); !res.OK {
			exitCode = 1
		}
	case "cross", "cross-compile":
		if res := withBuildLock(func() Result {
			_, r := pipeline.CrossCompile()
			return r
		}); !res.OK {
			exitCode = 1
		}
	case "clean":
		if err := handleCleanCommand(false); err != nil {
			fail(err)
		}
	case "clean-all":
		if err := handleCleanCommand(true); err != nil {
			fail(err)
		}
	case "mirrors":
		if err := HandleMirrorCommand(args[1:], cfg); err != nil {
			fail(err)
		}
	case "release":
		if err := handleReleaseCommand(cfg); err != nil {
			fail(err)
		}
	case "upload":
		if err := handleUploadCommand(ctx, cfg); err != nil {
			fail(err)
		}
	case "logs":
		if err := runLogViewer(); err != nil {
			fail(err)
		}
	default:
		colError.Printf("Unknown command: %s\n\n", cmd)
		printHelp()
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
