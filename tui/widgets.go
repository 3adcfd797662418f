package tui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"

	"github.com/riadafridishibly/foldersize/report"
	"github.com/riadafridishibly/foldersize/scanner"
	"github.com/riadafridishibly/foldersize/service"
)

func (a *App) IsScanning() bool {
	return a.worker != nil && a.worker.IsRunning()
}

func (a *App) startScanning(force bool) {
	if a.IsScanning() {
		return
	}

	a.worker = service.NewWorker(a.svc, a.rootPath,
		service.WithForceRescan(force),
		service.WithAnalysis(a.cfg.Analysis),
	)
	a.worker.Start()
	a.trySendUIUpdate(func() { a.updateProgressStatus(0) })

	go a.processProgressEvents(context.Background(), a.worker)
}

// clearCacheAndRescan drops the cache off the UI goroutine and starts a
// forced scan back on it once the clear is done.
func (a *App) clearCacheAndRescan() {
	if a.IsScanning() || a.cache == nil {
		return
	}
	if !a.clearing.CompareAndSwap(false, true) {
		return
	}
	a.footer.SetText(" Clearing cache...")

	go func() {
		err := a.cache.Clear(context.Background())
		a.queueUpdate(func() {
			a.clearing.Store(false)
			if err != nil {
				log.Printf("error: clear cache: %v", err)
				a.updateErrorStatus(err)
				return
			}
			log.Println("info: cache cleared")
			a.startScanning(true)
		})
	}()
}

func (a *App) displayPath(p string) string {
	if !a.cfg.ReplaceHomeWithTilde || a.userHomeDir == "" {
		return p
	}
	after, ok := strings.CutPrefix(p, a.userHomeDir)
	if !ok || (after != "" && !strings.HasPrefix(after, string(filepath.Separator))) {
		return p
	}
	return "~" + after
}

func (a *App) buildTable() *cview.Table {
	theme := a.currentTheme
	table := a.table
	table.Clear()

	total := report.Totals(a.outcome.Results).SizeBytes

	for row, item := range report.BySize(a.outcome.Results) {
		large := a.outcome.IsLarge(item.Path)
		fg := theme.fg
		mark := " "
		if large {
			fg = theme.large
			mark = "!"
		}

		// The reference lives on column 0 so selection lookups stay simple
		markCell := cview.NewTableCell(mark)
		markCell.SetTextColor(theme.large)
		markCell.SetReference(item)
		table.SetCell(row, 0, markCell)

		sizeCell := cview.NewTableCell(fmt.Sprintf(" %s ", humanize.IBytes(uint64(item.SizeBytes)))) //nolint:gosec // never negative
		sizeCell.SetTextColor(theme.yellow)
		sizeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, sizeCell)

		pct := 0.0
		if total > 0 {
			pct = 100 * float64(item.SizeBytes) / float64(total)
		}
		pctCell := cview.NewTableCell(fmt.Sprintf(" %5.1f%% ", pct))
		pctCell.SetTextColor(theme.gray)
		pctCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 2, pctCell)

		filesCell := cview.NewTableCell(fmt.Sprintf(" %s files ", humanize.Comma(item.FileCount)))
		filesCell.SetTextColor(theme.fg)
		filesCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 3, filesCell)

		name := filepath.Base(item.Path)
		if item.ErrorCount > 0 {
			name += fmt.Sprintf(" [%d unreadable]", item.ErrorCount)
		}
		pathCell := cview.NewTableCell(name)
		pathCell.SetTextColor(fg)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 4, pathCell)
	}

	table.SetBorder(false)
	table.SetBorders(false)
	table.SetSelectable(true, false)
	table.SetSeparator(' ')

	return table
}

func (a *App) selectedItem() (scanner.Result, bool) {
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	if cell == nil {
		return scanner.Result{}, false
	}
	item, ok := cell.GetReference().(scanner.Result)
	if !ok {
		log.Printf("debug: expected scanner.Result, found %T", cell.GetReference())
	}
	return item, ok
}

func (a *App) showItemDetail() {
	item, ok := a.selectedItem()
	if !ok {
		return
	}

	var detail strings.Builder
	fmt.Fprintf(&detail, "Path: %s\n", item.Path)
	fmt.Fprintf(&detail, "Size: %s (%s bytes)\n", humanize.IBytes(uint64(item.SizeBytes)), report.GroupDigits(item.SizeBytes)) //nolint:gosec // never negative
	fmt.Fprintf(&detail, "Files: %s\n", humanize.Comma(item.FileCount))
	fmt.Fprintf(&detail, "Unreadable entries: %d\n", item.ErrorCount)
	if a.outcome.IsLarge(item.Path) {
		detail.WriteString("\nUnusually large compared to its siblings")
	}

	a.detailModal.SetText(detail.String())
	a.showDetail = true
	a.setRoot(a.detailModal, false)
}
