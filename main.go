package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/riadafridishibly/foldersize/cache"
	"github.com/riadafridishibly/foldersize/config"
	"github.com/riadafridishibly/foldersize/report"
	"github.com/riadafridishibly/foldersize/scanner"
	"github.com/riadafridishibly/foldersize/service"
	"github.com/riadafridishibly/foldersize/tui"
)

var version = "dev"

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Println(version)
		return
	}

	logFile, err := os.CreateTemp(tempDir(), "foldersize-*.log")
	if err != nil {
		log.Fatalf("Error creating log file: %v", err)
	}
	defer logFile.Close()
	log.SetFlags(log.Lshortfile | log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[FSIZE] ")
	log.SetOutput(logFile)

	if cfg.Debug {
		fmt.Fprintln(os.Stderr, "Logfile is being written in:", logFile.Name())
	}

	if err := run(cfg); err != nil {
		log.Printf("error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if info, err := os.Stat(cfg.Root); err != nil {
		return fmt.Errorf("path %s: %w", cfg.Root, err)
	} else if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", cfg.Root)
	}

	var (
		store   service.Cache
		clearer tui.CacheClearer
	)
	if !cfg.NoCache {
		c, err := cache.Open(cfg.CacheConfig())
		if err != nil {
			// The cache only saves time; carry on without it
			log.Printf("warn: cache disabled: %v", err)
		} else {
			defer c.Close()
			if cfg.ClearCache {
				if err := c.Clear(context.Background()); err != nil {
					return err
				}
				log.Printf("info: cache %s cleared", cfg.CachePath)
			}
			store, clearer = c, c
		}
	}

	var walker service.Walker = scanner.StackWalker{Debug: cfg.Debug}
	if cfg.Parallel {
		walker = scanner.ParallelWalker{Debug: cfg.Debug}
	}
	svc := service.New(store, walker)

	output := cfg.ResolveOutput(os.Stdout)
	log.Printf("info: scanning %s (output=%s, parallel=%v)", cfg.Root, output, cfg.Parallel)

	if output == config.OutputTUI {
		tcfg := tui.DefaultConfig()
		tcfg.Theme = cfg.Theme
		tcfg.Analysis = cfg.Analysis()
		tcfg.Rescan = cfg.Rescan

		app := tui.NewApp(cfg.Root, svc, clearer, tcfg)
		defer app.Stop()
		return app.Run()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := service.NewWorker(svc, cfg.Root,
		service.WithForceRescan(cfg.Rescan),
		service.WithAnalysis(cfg.Analysis()),
	)
	w.Start()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.Done():
		}
	}()

	outcome, err := w.Outcome()
	if err != nil {
		return err
	}

	if output == config.OutputJSON {
		return report.PrintJSON(os.Stdout, outcome)
	}
	return report.PrintTable(os.Stdout, outcome)
}
