package tui

import (
	"context"
	"time"

	"codeberg.org/tslocum/cview"

	"github.com/riadafridishibly/foldersize/service"
)

func (a *App) trySendUIUpdate(f func()) {
	select {
	case a.uiUpdates <- f:
	default:
	}
}

// setRoot queues a SetRoot operation to avoid data races
func (a *App) setRoot(primitive cview.Primitive, focus bool) {
	a.app.QueueUpdateDraw(func() {
		a.app.SetRoot(primitive, focus)
	})
}

// processProgressEvents mirrors the worker's progress into the header,
// throttled to the configured frequency, and renders the outcome once the
// worker is done.
func (a *App) processProgressEvents(ctx context.Context, w *service.Worker) {
	freq := a.cfg.ProgressUpdateFreq
	if freq <= 0 {
		freq = 150 * time.Millisecond
	}
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	progressChan := w.Progress()
	percent, dirty := 0, false

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-progressChan:
			if !ok {
				progressChan = nil
				continue
			}
			percent, dirty = p, true
		case <-ticker.C:
			if dirty {
				p := percent
				a.trySendUIUpdate(func() { a.updateProgressStatus(p) })
				dirty = false
			}
		case <-w.Done():
			outcome, err := w.Outcome()
			// uiUpdates may be full; the outcome must not be dropped
			a.app.QueueUpdateDraw(func() { a.handleOutcome(outcome, err) })
			return
		}
	}
}

func (a *App) handleOutcome(outcome service.Outcome, err error) {
	if err != nil {
		a.updateErrorStatus(err)
		return
	}
	a.outcome = outcome
	a.buildTable()
	a.updateFinalStatus()
}
