// Package config loads runtime settings from FOLDERSIZE_* environment
// variables and command-line flags. Flags win over the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/caarlos0/env/v11"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/riadafridishibly/foldersize/analysis"
	"github.com/riadafridishibly/foldersize/cache"
)

// Output modes.
const (
	OutputAuto  = "auto"
	OutputTUI   = "tui"
	OutputTable = "table"
	OutputJSON  = "json"
)

var outputs = []string{OutputAuto, OutputTUI, OutputTable, OutputJSON}

// ErrHelp is returned when usage was requested and printed.
var ErrHelp = pflag.ErrHelp

// Config captures runtime configuration.
type Config struct {
	// Root is the directory whose subfolders are measured.
	Root string

	// CachePath is the SQLite file; empty means cache.DefaultPath().
	CachePath    string        `env:"FOLDERSIZE_CACHE_PATH"`
	CacheVersion int           `env:"FOLDERSIZE_CACHE_VERSION" envDefault:"1"`
	CacheMaxAge  time.Duration `env:"FOLDERSIZE_CACHE_MAX_AGE" envDefault:"168h"`
	NoCache      bool          `env:"FOLDERSIZE_NO_CACHE"`

	// Outlier detection
	Factor   float64 `env:"FOLDERSIZE_FACTOR" envDefault:"1.5"`
	MinItems int     `env:"FOLDERSIZE_MIN_ITEMS" envDefault:"5"`

	Parallel bool   `env:"FOLDERSIZE_PARALLEL"`
	Output   string `env:"FOLDERSIZE_OUTPUT" envDefault:"auto"`
	Theme    string `env:"FOLDERSIZE_THEME" envDefault:"nord"`
	Debug    bool   `env:"FOLDERSIZE_DEBUG"`

	Rescan     bool
	ClearCache bool
	Version    bool
}

// Analysis returns the outlier detection options.
func (c Config) Analysis() analysis.Options {
	return analysis.Options{Factor: c.Factor, MinItems: c.MinItems}
}

// CacheConfig returns the cache settings.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Path:    c.CachePath,
		Version: c.CacheVersion,
		MaxAge:  c.CacheMaxAge,
		Debug:   c.Debug,
	}
}

func usage(fs *pflag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintln(w, heredoc.Doc(`
			foldersize measures the immediate subfolders of a directory and
			highlights the ones that are unusually large.

			Usage:

				foldersize [flags] [path]

			Positional Arguments:
			  path    Directory to analyze. Defaults to the current directory.

			Results are cached per folder and reused until the folder changes,
			the entry is older than --max-age, or --cache-version changes.
			Every flag can also be set through a FOLDERSIZE_* environment variable.

			Flags:
		`))
		fs.SetOutput(w)
		fs.PrintDefaults()
	}
}

// Load reads the environment, then parses args (without the program name).
func Load(args []string) (Config, error) {
	return load(args, os.Stderr)
}

func load(args []string, out io.Writer) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := pflag.NewFlagSet("foldersize", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = usage(fs, out)
	fs.SetOutput(out)

	fs.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "Cache database file (default: user cache dir)")
	fs.IntVar(&cfg.CacheVersion, "cache-version", cfg.CacheVersion, "Cache record version; records with another version are ignored")
	fs.DurationVar(&cfg.CacheMaxAge, "max-age", cfg.CacheMaxAge, "Maximum age of a reusable cache record")
	fs.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, "Do not read or write the cache")
	fs.BoolVarP(&cfg.Rescan, "rescan", "r", false, "Ignore cached results but store fresh ones")
	fs.BoolVar(&cfg.ClearCache, "clear-cache", false, "Remove every cached record before scanning")
	fs.Float64Var(&cfg.Factor, "factor", cfg.Factor, "IQR multiplier for flagging large folders")
	fs.IntVar(&cfg.MinItems, "min-items", cfg.MinItems, "Minimum number of folders before flagging outliers")
	fs.BoolVarP(&cfg.Parallel, "parallel", "p", cfg.Parallel, "Walk each folder with parallel workers")
	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output: auto, tui, table or json")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "TUI color theme")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.BoolVarP(&cfg.Version, "version", "v", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("resolve path %q: %w", root, err)
	}
	cfg.Root = abs

	if cfg.CachePath == "" && !cfg.NoCache {
		cfg.CachePath, err = cache.DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("locate cache: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !slices.Contains(outputs, c.Output) {
		return fmt.Errorf("invalid output %q: must be one of %v", c.Output, outputs)
	}
	if c.Factor <= 0 {
		return errors.New("factor must be positive")
	}
	if c.MinItems < 1 {
		return errors.New("min-items must be at least 1")
	}
	if c.CacheMaxAge <= 0 {
		return errors.New("max-age must be positive")
	}
	if c.CacheVersion < 1 {
		return errors.New("cache-version must be at least 1")
	}
	return nil
}

// ResolveOutput turns OutputAuto into the TUI on a terminal and a table
// otherwise.
func (c Config) ResolveOutput(out *os.File) string {
	if c.Output != OutputAuto {
		return c.Output
	}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return OutputTUI
	}
	return OutputTable
}
