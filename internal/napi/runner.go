package napi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ErrKind classifies why an operation failed.
type ErrKind int

const (
	KindNone         ErrKind = iota
	KindPrecondition         // missing directory, toolchain or artifact
	KindTool                 // external tool exited non-zero
	KindSpawn                // the tool could not be started at all
)

// Result is the outcome of one pipeline operation. Operations never panic
// past their boundary; callers branch on OK and may inspect Kind/Err.
type Result struct {
	OK   bool
	Kind ErrKind
	Err  error
}

func okResult() Result {
	return Result{OK: true}
}

func failPrecondition(format string, a ...any) Result {
	return Result{Kind: KindPrecondition, Err: fmt.Errorf(format, a...)}
}

func failTool(err error) Result {
	return Result{Kind: KindTool, Err: err}
}

func failSpawn(err error) Result {
	return Result{Kind: KindSpawn, Err: err}
}

// RunSpec describes one external command invocation.
type RunSpec struct {
	Name     string
	Args     []string
	Dir      string
	Env      []string // appended on top of os.Environ()
	Label    string   // progress description
	Critical bool     // hold back the first interrupt while running
}

// Runner executes external commands, streaming their output into a live
// progress estimate. It abstracts spawn/exit handling the same way for
// every pipeline stage.
type Runner struct {
	Context context.Context // cancellation for all spawned children
	Quiet   bool            // suppress progress and output
	Out     io.Writer       // display stream, defaults to os.Stdout
}

func NewRunner(ctx context.Context) *Runner {
	return &Runner{Context: ctx, Out: os.Stdout}
}

// progressPhase maps a known output marker to a display label and the
// ceiling the bar may jump to when the marker is seen.
type progressPhase struct {
	marker  string
	label   string
	ceiling int
}

// Classification is advisory cosmetics only: it never affects the
// success/failure determination.
var progressPhases = []progressPhase{
	{"resolving dependency tree", "resolving dependencies", 30},
	{"idealtree", "resolving dependencies", 30},
	{"go: finding", "finding modules", 45},
	{"go: downloading", "downloading modules", 70},
	{"reify", "fetching packages", 60},
	{"fetch", "fetching packages", 60},
	{"added", "packages installed", 90},
}

// classifyLine matches one output line against the known phase markers.
func classifyLine(line string) (progressPhase, bool) {
	lower := strings.ToLower(line)
	for _, p := range progressPhases {
		if strings.Contains(lower, p.marker) {
			return p, true
		}
	}
	return progressPhase{}, false
}

// tickCeiling is where timer-driven nudges stop so the bar never claims
// completion for a still-running command.
const tickCeiling = 95

// progressEvent is the message type consumed by the single goroutine that
// owns the progress state. Output scanners and the ticker both post here;
// nobody mutates the state directly.
type progressEvent struct {
	line string
	tick bool
}

// Run executes spec as a child process and resolves to a Result once it
// exits. A non-zero exit is a tool failure, a failure to start at all is a
// spawn failure; neither is ever propagated as a panic.
func (r *Runner) Run(spec RunSpec) Result {
	ctx := r.Context
	if ctx == nil {
		ctx = context.Background()
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failSpawn(fmt.Errorf("failed to open stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return failSpawn(fmt.Errorf("failed to open stderr pipe: %w", err))
	}

	// Isolate the child in its own process group so cancellation can tear
	// down the whole tree, not just the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		if !r.Quiet {
			colArrow.Print("-> ")
			colError.Printf("Failed to start %s: %v\n", spec.Name, err)
		}
		return failSpawn(err)
	}

	if spec.Critical {
		isCriticalAtomic.Store(1)
		defer isCriticalAtomic.Store(0)
	}

	pgid := cmd.Process.Pid
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-watchDone:
		}
	}()

	events := make(chan progressEvent, 64)

	// Both streams feed the same classifier.
	var scanWg sync.WaitGroup
	scan := func(pipe io.Reader) {
		defer scanWg.Done()
		scanner := bufio.NewScanner(pipe)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			events <- progressEvent{line: scanner.Text()}
		}
	}
	scanWg.Add(2)
	go scan(stdout)
	go scan(stderr)

	ticker := time.NewTicker(200 * time.Millisecond)
	tickDone := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				select {
				case events <- progressEvent{tick: true}:
				default:
				}
			case <-tickDone:
				return
			}
		}
	}()

	showBar := !r.Quiet && !Verbose && term.IsTerminal(int(os.Stdout.Fd()))

	var bar *progressbar.ProgressBar
	if showBar {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(spec.Label),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}

	// Single owner of the progress state and the captured log. All
	// mutation happens here; scanners and the ticker only send messages.
	var logBuf bytes.Buffer
	ownerDone := make(chan struct{})
	go func() {
		defer close(ownerDone)
		value := 0
		for ev := range events {
			if ev.tick {
				if value < tickCeiling {
					value++
					if bar != nil {
						_ = bar.Set(value)
					}
				}
				continue
			}
			logBuf.WriteString(ev.line)
			logBuf.WriteByte('\n')
			if Verbose && !r.Quiet {
				fmt.Fprintln(out, ev.line)
			}
			if p, ok := classifyLine(ev.line); ok && value < p.ceiling {
				value = p.ceiling
				if bar != nil {
					bar.Describe(fmt.Sprintf("%s: %s", spec.Label, p.label))
					_ = bar.Set(value)
				}
			}
		}
	}()

	// Wait for both pipes to drain before calling Wait.
	scanWg.Wait()
	ticker.Stop()
	close(tickDone)
	close(events)
	<-ownerDone

	waitErr := cmd.Wait()

	if waitErr != nil {
		if bar != nil {
			_ = bar.Clear()
		}
		if ctx.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return failTool(fmt.Errorf("command aborted: %v", ctx.Err()))
		}
		logPath := r.writeFailureLog(spec, logBuf.Bytes())
		if !r.Quiet {
			colArrow.Print("-> ")
			colError.Printf("%s failed: %v\n", spec.Label, waitErr)
			if logPath != "" {
				colWarn.Printf("   full output: %s\n", logPath)
			}
		}
		return failTool(fmt.Errorf("%s %s: %w", spec.Name, strings.Join(spec.Args, " "), waitErr))
	}

	if bar != nil {
		_ = bar.Set(100)
		_ = bar.Finish()
	}
	return okResult()
}

// writeFailureLog persists the captured output of a failed command under
// the log dir and returns the path, or "" when nothing could be written.
func (r *Runner) writeFailureLog(spec RunSpec, output []byte) string {
	if logDir == "" || len(output) == 0 {
		return ""
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return ""
	}
	name := strings.ReplaceAll(spec.Label, " ", "-")
	if name == "" {
		name = filepath.Base(spec.Name)
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", name, time.Now().Format("20060102-150405")))
	header := fmt.Sprintf("# %s %s\n# dir: %s\n\n", spec.Name, strings.Join(spec.Args, " "), spec.Dir)
	if err := os.WriteFile(logPath, append([]byte(header), output...), 0o644); err != nil {
		return ""
	}
	return logPath
}
