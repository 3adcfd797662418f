package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/riadafridishibly/foldersize/report"
)

func headerStartupStatus(theme *Theme, root string) string {
	return fmt.Sprintf("[%s]foldersize[-] %s", theme.headerFg.String(), root)
}

func footerStatusMenu(theme *Theme) string {
	return fmt.Sprintf("[%s] s: Scan  r: Rescan  c: Clear cache  ↑/↓: Navigate  i: Details  t: Theme  q: Quit", theme.footerFg.String())
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (a *App) updateProgressStatus(percent int) {
	a.header.SetText(fmt.Sprintf(" Scanning %s  %s %3d%% ",
		a.displayPath(a.rootPath), progressBar(percent, 20), percent))
}

func (a *App) updateFinalStatus() {
	o := a.outcome
	total := report.Totals(o.Results)

	status := fmt.Sprintf(" %s | Folders: %d | Size: %s | Files: %s | Large: %d | Elapsed: %s ",
		a.displayPath(o.Root),
		len(o.Results),
		humanize.IBytes(uint64(total.SizeBytes)), //nolint:gosec // never negative
		humanize.Comma(total.FileCount),
		len(o.Large),
		o.Elapsed.Round(time.Millisecond),
	)
	if total.ErrorCount > 0 {
		status += fmt.Sprintf("| Unreadable: %d ", total.ErrorCount)
	}
	if o.Cancelled {
		status += "| cancelled "
	}
	a.header.SetText(status)
	a.footer.SetText(footerStatusMenu(&a.currentTheme))
}

func (a *App) updateErrorStatus(err error) {
	a.header.SetText(fmt.Sprintf("[%s] Error: %v", a.currentTheme.red.String(), err))
}
