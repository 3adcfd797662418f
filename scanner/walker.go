package scanner

import (
	"log"
	"path/filepath"
)

// Result is the aggregate computed for one directory subtree.
type Result struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	FileCount  int64  `json:"file_count"`
	ErrorCount int64  `json:"error_count"`
}

// SameSubject reports whether r and other describe the same directory.
func (r Result) SameSubject(other Result) bool {
	return NormalizePath(r.Path) == NormalizePath(other.Path)
}

// NormalizePath returns the cleaned absolute form of p. If p cannot be made
// absolute it is only cleaned.
func NormalizePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// logger prints debug lines when enabled.
type logger struct {
	enabled bool
}

func (l logger) printf(format string, args ...any) {
	if l.enabled {
		log.Printf("debug: "+format, args...)
	}
}
