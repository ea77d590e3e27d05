package napi

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
)

// runMenu provides the interactive numbered menu shown when napi is
// invoked without arguments. It offers the same operations as the named
// commands and returns the process exit code.
func runMenu(cfg *Config, pipeline *Pipeline, sigs chan os.Signal) int {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println()
		colArrow.Print("-> ")
		colSuccess.Printf("%s build orchestrator %s\n", appName, version)
		fmt.Println("--------------------------------")
		fmt.Printf("1) Build everything (%s)\n", color.Note.Sprint("web + backend"))
		fmt.Println("2) Build web assets")
		fmt.Printf("3) Build backend (%s)\n", color.Note.Sprint(HostTarget().String()))
		fmt.Println("4) Cross-compile all targets")
		fmt.Printf("5) Run %s\n", appName)
		fmt.Println("6) Clean build outputs")
		fmt.Println("7) Clean everything")
		fmt.Println("0) Exit")
		fmt.Println("--------------------------------")
		fmt.Print("Choice: ")

		choice, err := reader.ReadString('\n')
		if err != nil {
			return 0
		}
		choice = strings.TrimSpace(choice)

		switch choice {
		case "0", "q":
			return 0
		case "1":
			reportMenuResult(withBuildLock(pipeline.BuildAll))
		case "2":
			reportMenuResult(withBuildLock(pipeline.BuildWeb))
		case "3":
			reportMenuResult(withBuildLock(func() Result {
				return pipeline.BuildBackend(HostTarget())
			}))
		case "4":
			reportMenuResult(withBuildLock(func() Result {
				_, res := pipeline.CrossCompile()
				return res
			}))
		case "5":
			// Hand signal handling to the launcher while the child runs.
			signal.Stop(sigs)
			code := RunApp(cfg)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			colArrow.Print("-> ")
			colSuccess.Printf("%s exited with code %d\n", appName, code)
		case "6":
			if err := handleCleanCommand(false); err != nil {
				colError.Printf("Error: %v\n", err)
			}
		case "7":
			if err := handleCleanCommand(true); err != nil {
				colError.Printf("Error: %v\n", err)
			}
		default:
			colWarn.Println("Invalid choice.")
		}
	}
}

func reportMenuResult(res Result) {
	if res.OK {
		return
	}
	colArrow.Print("-> ")
	colError.Printf("Operation failed: %v\n", res.Err)
}
