//go:build !windows

package scanner

import "io/fs"

func isReparsePoint(info fs.FileInfo) bool {
	return info.Mode()&fs.ModeSymlink != 0
}
