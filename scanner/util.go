package scanner

import "io/fs"

// IsSafeDir reports whether a directory entry can be descended into without
// risking a cycle: it must not be a symlink or a reparse point. An entry that
// cannot be inspected is treated as unsafe.
func IsSafeDir(d fs.DirEntry) bool {
	return isSafeDir(d)
}

func isSafeDir(d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
		return false
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	return !isReparsePoint(info)
}
