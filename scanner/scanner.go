package scanner

import (
	"os"
	"path/filepath"
)

// StackWalker walks a subtree depth first using an explicit stack, so deep
// trees never grow the goroutine stack.
type StackWalker struct {
	// Debug logs every entry that could not be inspected
	Debug bool
}

// Walk computes the aggregate for path. It never fails: anything that cannot
// be read is counted in ErrorCount and skipped.
func Walk(path string) Result {
	return StackWalker{}.Walk(path)
}

func (w StackWalker) Walk(path string) Result {
	log := logger{enabled: w.Debug}
	res := Result{Path: path}

	stack := []string{path}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// ReadDir hands back whatever it read before failing
		entries, err := os.ReadDir(current)
		if err != nil {
			log.printf("read dir %s: %v", current, err)
			res.ErrorCount++
		}

		for _, d := range entries {
			switch {
			case d.Type().IsRegular():
				info, err := d.Info()
				if err != nil {
					log.printf("stat %s: %v", filepath.Join(current, d.Name()), err)
					res.ErrorCount++
					continue
				}
				res.SizeBytes += info.Size()
				res.FileCount++
			case d.IsDir():
				if isSafeDir(d) {
					stack = append(stack, filepath.Join(current, d.Name()))
				}
			}
		}
	}

	return res
}
