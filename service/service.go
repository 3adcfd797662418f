// Package service orchestrates a scan of a root's immediate subfolders,
// reusing cached aggregates where they are still valid and walking the rest.
package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/riadafridishibly/foldersize/scanner"
)

// Cache is the subset of cache.Cache the orchestrator needs.
type Cache interface {
	GetMany(ctx context.Context, paths []string) map[string]scanner.Result
	SaveMany(ctx context.Context, results []scanner.Result) error
}

// Walker computes the aggregate of one subtree.
type Walker interface {
	Walk(path string) scanner.Result
}

// ProgressFunc receives completion percentages in [0, 100], never
// decreasing within one scan.
type ProgressFunc func(percent int)

type Service struct {
	cache  Cache
	walker Walker
}

// New returns a Service. A nil cache disables caching and a nil walker
// defaults to scanner.StackWalker.
func New(c Cache, w Walker) *Service {
	if w == nil {
		w = scanner.StackWalker{}
	}
	return &Service{cache: c, walker: w}
}

// Scan returns one result per immediate subfolder of root. Cached results
// come first, followed by freshly walked ones in directory order.
//
// Cancellation is checked before each folder that has to be walked; a walk
// in progress always finishes. On cancellation the results gathered so far
// are returned with a nil error and only the fresh ones are saved.
//
// The only error is a failure to list root itself.
func (s *Service) Scan(ctx context.Context, root string, onProgress ProgressFunc) ([]scanner.Result, error) {
	return s.scan(ctx, root, onProgress, false)
}

// Rescan is Scan without the cache lookup. Fresh results are still saved.
func (s *Service) Rescan(ctx context.Context, root string, onProgress ProgressFunc) ([]scanner.Result, error) {
	return s.scan(ctx, root, onProgress, true)
}

func (s *Service) scan(ctx context.Context, root string, onProgress ProgressFunc, force bool) ([]scanner.Result, error) {
	if onProgress == nil {
		onProgress = func(int) {}
	}

	subfolders, err := Subfolders(root)
	if err != nil {
		return nil, err
	}

	total := len(subfolders)
	if total == 0 {
		onProgress(100)
		return []scanner.Result{}, nil
	}

	var cached map[string]scanner.Result
	if s.cache != nil && !force {
		cached = s.cache.GetMany(ctx, subfolders)
	}

	results := make([]scanner.Result, 0, total)
	var scanned []scanner.Result
	done := 0

	advance := func(r scanner.Result) {
		results = append(results, r)
		done++
		onProgress(done * 100 / total)
	}

	for _, folder := range subfolders {
		if r, ok := cached[folder]; ok {
			advance(r)
		}
	}

	for _, folder := range subfolders {
		if _, ok := cached[folder]; ok {
			continue
		}
		if ctx.Err() != nil {
			log.Printf("info: scan of %s cancelled after %d/%d folders", root, done, total)
			break
		}

		r := s.walker.Walk(folder)
		scanned = append(scanned, r)
		advance(r)
	}

	if s.cache != nil && len(scanned) > 0 {
		// The scan's own ctx may already be cancelled; the save still has to happen.
		if err := s.cache.SaveMany(context.WithoutCancel(ctx), scanned); err != nil {
			log.Printf("warn: could not cache %d results: %v", len(scanned), err)
		}
	}

	return results, nil
}

// Subfolders lists the absolute paths of root's immediate subdirectories
// that are safe to descend into, in directory order.
func Subfolders(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read root %q: %w", abs, err)
	}

	folders := make([]string, 0, len(entries))
	for _, d := range entries {
		if scanner.IsSafeDir(d) {
			folders = append(folders, filepath.Join(abs, d.Name()))
		}
	}
	return folders, nil
}
