package media

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	ErrVolumeOpen    = errors.New("cannot open media volume")
	ErrDirectoryOpen = errors.New("cannot open media directory")
	ErrEmptyPlaylist = errors.New("no playable movie found")
)

// DirEntry is what a Directory reports for each of its entries.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Directory is the directory holding the movies. Walk visits each entry
// exactly once in the order of the underlying listing.
type Directory interface {
	Walk(fn func(DirEntry)) error
	Open(name string) (io.ReadCloser, error)
}

// FSDirectory is a Directory backed by an io/fs file system.
type FSDirectory struct {
	fsys fs.FS
	dir  string
}

func NewFSDirectory(fsys fs.FS, dir string) *FSDirectory {
	return &FSDirectory{fsys: fsys, dir: dir}
}

// OpenVolume checks that root is a mounted directory and returns it as the
// media directory.
func OpenVolume(root string) (*FSDirectory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVolumeOpen, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrVolumeOpen, root)
	}
	return NewFSDirectory(os.DirFS(root), "."), nil
}

func (d *FSDirectory) Walk(fn func(DirEntry)) error {
	entries, err := fs.ReadDir(d.fsys, d.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirectoryOpen, err)
	}
	for _, e := range entries {
		de := DirEntry{Name: e.Name(), IsDir: e.IsDir()}
		if !de.IsDir {
			info, err := e.Info()
			if err != nil {
				// removed between listing and stat
				continue
			}
			de.Size = info.Size()
		}
		fn(de)
	}
	return nil
}

func (d *FSDirectory) Open(name string) (io.ReadCloser, error) {
	path := name
	if d.dir != "." {
		path = d.dir + "/" + name
	}
	return d.fsys.Open(path)
}
