package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riadafridishibly/foldersize/scanner"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func openTestCache(t *testing.T, clock *fakeClock, version int) *Cache {
	t.Helper()
	c, err := Open(Config{
		Path:    filepath.Join(t.TempDir(), "nested", "cache.db"),
		Version: version,
		MaxAge:  time.Hour,
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// folder creates a directory whose mtime is well before the clock.
func folder(t *testing.T, clock *fakeClock) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "folder")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := clock.now.Add(-time.Minute)
	if err := os.Chtimes(dir, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return dir
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Now().Add(time.Hour).Truncate(time.Second)}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(Config{Path: "  "}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveThenGet(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	want := scanner.Result{Path: dir, SizeBytes: 42, FileCount: 3, ErrorCount: 1}
	if err := c.SaveMany(ctx, []scanner.Result{want}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := c.GetMany(ctx, []string{dir, filepath.Join(dir, "missing")})
	if len(got) != 1 {
		t.Fatalf("expected one hit, got %v", got)
	}
	if got[dir] != want {
		t.Fatalf("got %+v, want %+v", got[dir], want)
	}
}

func TestGetManyStaleness(t *testing.T) {
	tests := []struct {
		name   string
		change func(t *testing.T, c *fakeClock, dir string)
		hit    bool
	}{
		{
			name:   "fresh",
			change: func(*testing.T, *fakeClock, string) {},
			hit:    true,
		},
		{
			name: "modified after scan",
			change: func(t *testing.T, c *fakeClock, dir string) {
				later := c.now.Add(time.Second)
				if err := os.Chtimes(dir, later, later); err != nil {
					t.Fatalf("chtimes: %v", err)
				}
			},
		},
		{
			name: "modified exactly at scan time",
			change: func(t *testing.T, c *fakeClock, dir string) {
				if err := os.Chtimes(dir, c.now, c.now); err != nil {
					t.Fatalf("chtimes: %v", err)
				}
			},
			hit: true,
		},
		{
			name:   "expired",
			change: func(_ *testing.T, c *fakeClock, _ string) { c.Advance(time.Hour + time.Second) },
		},
		{
			name:   "at max age",
			change: func(_ *testing.T, c *fakeClock, _ string) { c.Advance(time.Hour) },
			hit:    true,
		},
		{
			name: "removed",
			change: func(t *testing.T, _ *fakeClock, dir string) {
				if err := os.Remove(dir); err != nil {
					t.Fatalf("remove: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			c := openTestCache(t, clock, CurrentVersion)
			dir := folder(t, clock)

			if err := c.SaveMany(ctx, []scanner.Result{{Path: dir, SizeBytes: 1}}); err != nil {
				t.Fatalf("save: %v", err)
			}
			tt.change(t, clock, dir)

			_, ok := c.GetMany(ctx, []string{dir})[dir]
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
		})
	}
}

func TestGetManyIgnoresOtherVersions(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	path := filepath.Join(t.TempDir(), "cache.db")
	dir := folder(t, clock)

	v1, err := Open(Config{Path: path, Version: 1, Now: clock.Now})
	if err != nil {
		t.Fatalf("open v1: %v", err)
	}
	if err := v1.SaveMany(ctx, []scanner.Result{{Path: dir, SizeBytes: 5}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	v1.Close()

	v2, err := Open(Config{Path: path, Version: 2, Now: clock.Now})
	if err != nil {
		t.Fatalf("open v2: %v", err)
	}
	defer v2.Close()

	if got := v2.GetMany(ctx, []string{dir}); len(got) != 0 {
		t.Fatalf("expected miss across versions, got %v", got)
	}
}

func TestSaveManyUpserts(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	r := scanner.Result{Path: dir, SizeBytes: 9, FileCount: 1}
	for range 2 {
		if err := c.SaveMany(ctx, []scanner.Result{r}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	n, err := c.Len(ctx)
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one record, got %d", n)
	}

	r.SizeBytes = 99
	if err := c.SaveMany(ctx, []scanner.Result{r}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := c.GetMany(ctx, []string{dir})[dir]; got.SizeBytes != 99 {
		t.Fatalf("expected replaced record, got %+v", got)
	}
}

func TestSaveManySkipsVanishedFolders(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	results := []scanner.Result{
		{Path: dir, SizeBytes: 1},
		{Path: filepath.Join(dir, "vanished"), SizeBytes: 2},
	}
	if err := c.SaveMany(ctx, results); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Fatalf("expected only the existing folder to be stored, got %d", n)
	}
}

func TestGetManyLargeBatch(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	paths := make([]string, 0, lookupChunk*2+10)
	for i := range cap(paths) {
		paths = append(paths, filepath.Join(dir, fmt.Sprintf("missing-%d", i)))
	}
	paths = append(paths, dir)

	if err := c.SaveMany(ctx, []scanner.Result{{Path: dir, SizeBytes: 3}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := c.GetMany(ctx, paths); len(got) != 1 {
		t.Fatalf("expected one hit across chunks, got %d", len(got))
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	if err := c.SaveMany(ctx, []scanner.Result{{Path: dir}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := c.GetMany(ctx, []string{dir}); len(got) != 0 {
		t.Fatalf("expected empty cache, got %v", got)
	}
}

func TestGetManyDegradesOnStorageError(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	dir := folder(t, clock)

	if err := c.SaveMany(ctx, []scanner.Result{{Path: dir}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c.db.Close()

	if got := c.GetMany(ctx, []string{dir}); len(got) != 0 {
		t.Fatalf("expected miss on closed store, got %v", got)
	}
	if err := c.SaveMany(ctx, []scanner.Result{{Path: dir}}); err == nil {
		t.Fatal("expected write error on closed store")
	}
}

func TestSaveManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := openTestCache(t, clock, CurrentVersion)
	first := folder(t, clock)
	second := folder(t, clock)

	if err := c.SaveMany(ctx, []scanner.Result{{Path: first, SizeBytes: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Abort any write of the second path so the batch fails after its first row.
	trigger := fmt.Sprintf(`
        CREATE TRIGGER reject_second BEFORE INSERT ON scan_cache
        WHEN NEW.path = '%s'
        BEGIN SELECT RAISE(ABORT, 'rejected'); END;
    `, strings.ReplaceAll(second, "'", "''"))
	if _, err := c.db.ExecContext(ctx, trigger); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	err := c.SaveMany(ctx, []scanner.Result{
		{Path: first, SizeBytes: 99},
		{Path: second, SizeBytes: 2},
	})
	if err == nil {
		t.Fatal("expected the batch to fail")
	}

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 1 {
		t.Fatalf("failed batch must not add rows, got %d", n)
	}
	if got := c.GetMany(ctx, []string{first})[first]; got.SizeBytes != 1 {
		t.Fatalf("failed batch must not change earlier rows, got %+v", got)
	}
}
