package napi

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type logInfo struct {
	path    string
	content string
}

// readFailureLogs loads the captured output of failed tool invocations,
// newest first.
func readFailureLogs() []logInfo {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var logs []logInfo
	for _, name := range names {
		path := filepath.Join(logDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		logs = append(logs, logInfo{path: path, content: string(data)})
	}
	return logs
}

// runLogViewer shows the captured build logs in a scrollable viewer.
// Left/Right switch logs, Up/Down/PgUp/PgDn scroll, Esc or q quits.
func runLogViewer() error {
	logs := readFailureLogs()
	if len(logs) == 0 {
		colArrow.Print("-> ")
		colSuccess.Printf("No build logs in %s\n", logDir)
		return nil
	}

	app := tview.NewApplication()
	activeIdx := 0

	header := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignLeft)
	header.SetBorder(true)
	header.SetTitle("napi Build Log Viewer")

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetScrollable(true).
		SetChangedFunc(func() {
			app.Draw()
		})
	logView.SetBorder(true)

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetTextAlign(tview.AlignLeft)
	footer.SetBorder(true)
	footer.SetText("[yellow]←/→[-] switch log   [yellow]↑/↓ PgUp/PgDn[-] scroll   [yellow]Esc/q[-] quit")

	show := func() {
		l := logs[activeIdx]
		header.SetText(fmt.Sprintf("[::b]%s[-:-:-]  (%d/%d)", l.path, activeIdx+1, len(logs)))
		logView.SetText(tview.TranslateANSI(l.content))
		logView.ScrollToEnd()
	}

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 3, 0, false).
		AddItem(logView, 0, 1, true).
		AddItem(footer, 3, 0, false)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlQ:
			app.Stop()
			return nil
		case tcell.KeyLeft:
			activeIdx--
			if activeIdx < 0 {
				activeIdx = len(logs) - 1
			}
			show()
			return nil
		case tcell.KeyRight:
			activeIdx++
			if activeIdx >= len(logs) {
				activeIdx = 0
			}
			show()
			return nil
		case tcell.KeyHome:
			logView.ScrollToBeginning()
			return nil
		case tcell.KeyEnd:
			logView.ScrollToEnd()
			return nil
		}
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	show()
	return app.SetRoot(flex, true).Run()
}
