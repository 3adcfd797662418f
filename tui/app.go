package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"codeberg.org/tslocum/cview"

	"github.com/riadafridishibly/foldersize/service"
)

// CacheClearer drops every cached aggregate.
type CacheClearer interface {
	Clear(ctx context.Context) error
}

type App struct {
	app    *cview.Application
	svc    *service.Service
	cache  CacheClearer
	worker *service.Worker
	cfg    Config

	header      *cview.TextView
	footer      *cview.TextView
	table       *cview.Table
	panels      *cview.Panels
	detailModal *cview.Modal
	themeModal  *cview.Modal
	quitModal   *cview.Modal

	outcome  service.Outcome
	rootPath string

	showDetail bool
	showTheme  bool
	showQuit   bool

	uiUpdates chan func()

	// queueUpdate runs f on the UI goroutine
	queueUpdate func(f func())
	clearing    atomic.Bool

	userHomeDir  string
	currentTheme Theme
}

// NewApp builds the UI for rootPath. cache may be nil when caching is off.
func NewApp(rootPath string, svc *service.Service, cache CacheClearer, cfg Config) *App {
	app := cview.NewApplication()

	header := cview.NewTextView()
	header.SetDynamicColors(true)

	footer := cview.NewTextView()
	footer.SetDynamicColors(true)

	detailModal := cview.NewModal()
	detailModal.SetText("")
	detailModal.AddButtons([]string{"Okay"})

	themeNames := ThemeNames()
	themeModal := cview.NewModal()
	themeModal.SetText("")
	themeModal.AddButtons(themeNames)

	quitModal := cview.NewModal()
	quitModal.SetText("A scan is still running.")
	quitModal.AddButtons([]string{"Wait", "Cancel and Quit"})

	panels := cview.NewPanels()
	table := cview.NewTable()
	panels.AddPanel("table", table, true, true)

	a := &App{
		app:          app,
		svc:          svc,
		cache:        cache,
		cfg:          cfg,
		header:       header,
		footer:       footer,
		detailModal:  detailModal,
		themeModal:   themeModal,
		quitModal:    quitModal,
		rootPath:     rootPath,
		panels:       panels,
		table:        table,
		uiUpdates:    make(chan func(), 128),
		currentTheme: lookupTheme(cfg.Theme),
	}

	a.queueUpdate = func(f func()) { a.app.QueueUpdateDraw(f) }

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(header, 1, 0, false)
	flex.AddItem(panels, 0, 1, true)
	flex.AddItem(footer, 1, 0, false)

	app.SetInputCapture(a.handleInput)

	detailModal.SetDoneFunc(func(_ int, _ string) {
		a.showDetail = false
		a.setRoot(flex, true)
	})

	themeModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.showTheme = false
		a.setRoot(flex, true)

		if buttonIndex >= 0 && buttonIndex < len(themeNames) {
			a.currentTheme = lookupTheme(buttonLabel)
			a.applyTheme()
		}
	})

	quitModal.SetDoneFunc(func(_ int, buttonLabel string) {
		a.showQuit = false
		a.setRoot(flex, true)

		if buttonLabel == "Cancel and Quit" {
			a.Stop()
			a.app.Stop()
		}
	})

	if home, err := os.UserHomeDir(); err == nil {
		a.userHomeDir = home
	}

	header.SetTextAlign(cview.AlignCenter)
	header.SetText(headerStartupStatus(&a.currentTheme, a.displayPath(rootPath)))
	footer.SetTextAlign(cview.AlignCenter)
	footer.SetText(footerStatusMenu(&a.currentTheme))

	a.setRoot(flex, true)
	a.applyTheme()

	return a
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTextColor(theme.headerFg)
	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTextColor(theme.footerFg)

	for _, m := range []*cview.Modal{a.detailModal, a.themeModal, a.quitModal} {
		m.SetBackgroundColor(theme.modalBg)
		m.SetTextColor(theme.modalFg)
		m.SetButtonBackgroundColor(theme.buttonBg)
		m.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)
	a.panels.SetBackgroundColor(theme.bg)

	a.trySendUIUpdate(func() {
		a.footer.SetText(footerStatusMenu(&theme))
		if a.IsScanning() {
			a.updateProgressStatus(a.worker.Percent())
		} else if a.worker != nil {
			a.updateFinalStatus()
		}
		a.buildTable()
	})
}

func (a *App) showThemeSelector() {
	theme := a.currentTheme
	text := fmt.Sprintf("Select Theme (Current: [%s]%s[-])", theme.orange.String(), theme.Name)
	a.themeModal.SetText(text)
	a.showTheme = true
	a.setRoot(a.themeModal, false)
}

func (a *App) confirmQuit() {
	if !a.IsScanning() {
		a.Stop()
		a.app.Stop()
		return
	}
	a.showQuit = true
	a.setRoot(a.quitModal, false)
}

// Stop cancels an in-flight scan and waits for it. Fresh results gathered
// so far are still written to the cache by the worker.
func (a *App) Stop() {
	if a.worker != nil {
		a.worker.Stop()
	}
}

func (a *App) Run() error {
	log.Println("info: theme:", a.currentTheme.Name)
	go func() {
		for updateFn := range a.uiUpdates {
			a.app.QueueUpdateDraw(updateFn)
		}
	}()

	a.startScanning(a.cfg.Rescan)
	return a.app.Run()
}
