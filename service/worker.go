package service

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/riadafridishibly/foldersize/analysis"
	"github.com/riadafridishibly/foldersize/scanner"
)

// Outcome is everything a finished scan hands to the presentation layer.
type Outcome struct {
	Root      string              `json:"root"`
	Results   []scanner.Result    `json:"results"`
	Large     map[string]struct{} `json:"-"`
	Cancelled bool                `json:"cancelled"`
	Elapsed   time.Duration       `json:"elapsed"`
}

// IsLarge reports whether path was flagged as an outlier.
func (o Outcome) IsLarge(path string) bool {
	_, ok := o.Large[path]
	return ok
}

const (
	statusIdle int32 = iota
	statusRunning
	statusDone
)

// Worker runs a single scan on its own goroutine so callers such as a UI
// loop never block on filesystem I/O.
type Worker struct {
	svc      *Service
	root     string
	force    bool
	analysis analysis.Options

	// Progress events; closed when the scan finishes
	progress chan int
	percent  atomic.Int32
	lastSent int
	reported bool

	// Closed once outcome and err are final
	doneChan chan struct{}

	status int32 // idle | running | done

	startTime   time.Time
	elapsedTime atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	outcome Outcome
	err     error
}

// WorkerOption tweaks a Worker before it starts.
type WorkerOption func(*Worker)

// WithForceRescan makes the worker bypass cached results.
func WithForceRescan(force bool) WorkerOption {
	return func(w *Worker) { w.force = force }
}

// WithAnalysis sets the outlier detection options.
func WithAnalysis(opts analysis.Options) WorkerOption {
	return func(w *Worker) { w.analysis = opts }
}

func NewWorker(svc *Service, root string, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		svc:      svc,
		root:     root,
		analysis: analysis.DefaultOptions(),
		progress: make(chan int, 101),
		doneChan: make(chan struct{}),
		status:   statusIdle,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the scan. Calling it more than once has no effect.
func (w *Worker) Start() {
	if !atomic.CompareAndSwapInt32(&w.status, statusIdle, statusRunning) {
		return
	}
	w.startTime = time.Now()

	go func() {
		defer close(w.doneChan)
		defer close(w.progress)
		defer atomic.StoreInt32(&w.status, statusDone)

		w.outcome, w.err = w.run()
		elapsed := time.Since(w.startTime)
		w.outcome.Elapsed = elapsed
		w.elapsedTime.Store(elapsed.Milliseconds())
	}()
}

func (w *Worker) run() (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("error: worker crashed: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("worker crashed: %v", r)
		}
	}()

	scan := w.svc.Scan
	if w.force {
		scan = w.svc.Rescan
	}

	results, err := scan(w.ctx, w.root, w.report)
	if err != nil {
		log.Printf("error: scan %s: %v", w.root, err)
		return Outcome{Root: w.root}, err
	}

	return Outcome{
		Root:      w.root,
		Results:   results,
		Large:     analysis.DetectLarge(results, w.analysis),
		Cancelled: !w.completed(),
	}, nil
}

// report stores the latest percentage and offers it to the channel without
// blocking the scan. Only changes are sent, and the buffer fits every value
// in [0, 100], so none is dropped.
func (w *Worker) report(percent int) {
	if w.reported && percent == w.lastSent {
		return
	}
	w.reported, w.lastSent = true, percent
	w.percent.Store(int32(percent))
	select {
	case w.progress <- percent:
	default:
	}
}

// completed reports whether every subfolder was accounted for. Scan reports
// 100 only once done == total, so a Stop that lands after the last walk
// still counts as complete.
func (w *Worker) completed() bool {
	return w.reported && w.lastSent == 100
}

// Stop cancels the scan and waits for it to wind down. Results gathered so
// far remain available through Outcome.
func (w *Worker) Stop() {
	w.cancel()
	if atomic.LoadInt32(&w.status) == statusIdle {
		return
	}
	<-w.doneChan
}

func (w *Worker) IsRunning() bool {
	return atomic.LoadInt32(&w.status) == statusRunning
}

func (w *Worker) Progress() <-chan int {
	return w.progress
}

// Percent is the most recently reported progress.
func (w *Worker) Percent() int {
	return int(w.percent.Load())
}

func (w *Worker) Done() <-chan struct{} {
	return w.doneChan
}

// Outcome blocks until the scan finishes.
func (w *Worker) Outcome() (Outcome, error) {
	<-w.doneChan
	return w.outcome, w.err
}

func (w *Worker) ElapsedTime() time.Duration {
	if w.startTime.IsZero() {
		return 0
	}
	elapsed := w.elapsedTime.Load()
	if elapsed == 0 {
		return time.Since(w.startTime)
	}
	return time.Duration(elapsed) * time.Millisecond
}
