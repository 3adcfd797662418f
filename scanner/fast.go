package scanner

import (
	"io/fs"
	"runtime"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// ParallelWalker computes the same aggregate as StackWalker using fastwalk's
// worker pool. Useful on large trees stored on SSDs or network mounts.
type ParallelWalker struct {
	// Workers defaults to runtime.NumCPU() when zero
	Workers int
	Debug   bool
}

func (w ParallelWalker) Walk(path string) Result {
	log := logger{enabled: w.Debug}

	workers := w.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	conf := fastwalk.Config{Follow: false, NumWorkers: workers}

	var size, files, errs atomic.Int64

	walkFn := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.printf("walk %s: %v", p, err)
			errs.Add(1)
			return nil
		}

		if d.IsDir() {
			if p != path && !isSafeDir(d) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.printf("stat %s: %v", p, err)
			errs.Add(1)
			return nil
		}
		size.Add(info.Size())
		files.Add(1)
		return nil
	}

	if err := fastwalk.Walk(&conf, path, walkFn); err != nil {
		log.printf("walk %s: %v", path, err)
		if errs.Load() == 0 {
			errs.Add(1)
		}
	}

	return Result{
		Path:       path,
		SizeBytes:  size.Load(),
		FileCount:  files.Load(),
		ErrorCount: errs.Load(),
	}
}
