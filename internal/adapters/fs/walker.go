package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// File is a regular file found by the Walker.
type File struct {
	Path string
	Info fs.FileInfo
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file under root. Unreadable entries are skipped.
func (w *Walker) WalkFiles(root string) iter.Seq[File] {
	return func(yield func(File) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			if !yield(File{Path: path, Info: info}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Usage sums the size of every regular file under root and returns the newest modification time seen.
func (w *Walker) Usage(root string) (size int64, newest int64) {
	for f := range w.WalkFiles(root) {
		size += f.Info.Size()
		if mt := f.Info.ModTime().UnixNano(); mt > newest {
			newest = mt
		}
	}
	return size, newest
}
