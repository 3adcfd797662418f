package service

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/riadafridishibly/foldersize/scanner"
)

type sizedWalker map[string]int64

func (s sizedWalker) Walk(path string) scanner.Result {
	return scanner.Result{Path: path, SizeBytes: s[path]}
}

type panicWalker struct{}

func (panicWalker) Walk(string) scanner.Result { panic("boom") }

// blockingWalker signals when a walk starts and waits for release.
type blockingWalker struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingWalker) Walk(path string) scanner.Result {
	b.started <- struct{}{}
	<-b.release
	return scanner.Result{Path: path}
}

func TestWorkerOutcome(t *testing.T) {
	root, dirs := mkdirs(t, "a", "b", "c", "d", "e")
	sizes := sizedWalker{dirs[0]: 10, dirs[1]: 12, dirs[2]: 11, dirs[3]: 13, dirs[4]: 1000}

	w := NewWorker(New(nil, sizes), root)
	w.Start()

	var last int
	for p := range w.Progress() {
		if p < last {
			t.Fatalf("progress went backwards: %d after %d", p, last)
		}
		last = p
	}

	outcome, err := w.Outcome()
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if last != 100 || w.Percent() != 100 {
		t.Fatalf("expected to finish at 100%%, got %d/%d", last, w.Percent())
	}
	if len(outcome.Results) != 5 || outcome.Cancelled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.Large) != 1 || !outcome.IsLarge(dirs[4]) {
		t.Fatalf("expected %s flagged, got %v", dirs[4], outcome.Large)
	}
	if w.IsRunning() {
		t.Fatal("worker should not be running after completion")
	}
}

func TestWorkerRootError(t *testing.T) {
	w := NewWorker(New(nil, nil), filepath.Join(t.TempDir(), "missing"))
	w.Start()

	if _, err := w.Outcome(); err == nil {
		t.Fatal("expected root error")
	}
}

func TestWorkerRecoversPanic(t *testing.T) {
	root, _ := mkdirs(t, "a")

	w := NewWorker(New(nil, panicWalker{}), root)
	w.Start()

	_, err := w.Outcome()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic turned into error, got %v", err)
	}
}

func TestWorkerStop(t *testing.T) {
	root, dirs := mkdirs(t, "a", "b", "c")
	bw := blockingWalker{started: make(chan struct{}), release: make(chan struct{})}

	w := NewWorker(New(nil, bw), root)
	w.Start()
	<-bw.started

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	for w.ctx.Err() == nil {
		runtime.Gosched()
	}
	close(bw.release)
	<-stopped

	outcome, err := w.Outcome()
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if !outcome.Cancelled {
		t.Fatal("expected cancelled outcome")
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Path != dirs[0] {
		t.Fatalf("the in-flight folder must finish and nothing else, got %v", outcome.Results)
	}
}

func TestWorkerStopBeforeStart(t *testing.T) {
	root, _ := mkdirs(t, "a")
	w := NewWorker(New(nil, sizedWalker{}), root)
	w.Stop()
	w.Start()

	outcome, err := w.Outcome()
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if len(outcome.Results) != 0 || !outcome.Cancelled {
		t.Fatalf("a stopped worker should scan nothing, got %+v", outcome)
	}
}

func TestWorkerStopAfterLastFolder(t *testing.T) {
	root, dirs := mkdirs(t, "a", "b")
	bw := blockingWalker{started: make(chan struct{}), release: make(chan struct{})}
	fc := &fakeCache{hits: map[string]scanner.Result{dirs[0]: {Path: dirs[0]}}}

	w := NewWorker(New(fc, bw), root)
	w.Start()
	<-bw.started

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	for w.ctx.Err() == nil {
		runtime.Gosched()
	}
	close(bw.release)
	<-stopped

	outcome, err := w.Outcome()
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected the full result set, got %v", outcome.Results)
	}
	if outcome.Cancelled {
		t.Fatal("a scan that covered every folder must not be reported as cancelled")
	}
	if len(fc.saved) != 1 || len(fc.saved[0]) != 1 {
		t.Fatalf("the last walked folder must still be saved, got %v", fc.saved)
	}
}
