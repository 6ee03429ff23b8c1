// Package repository gives read access to the plugin and user content
// repositories. Names are slash separated and relative to a reader's root.
package repository

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Reader reads files from one repository location
type Reader interface {
	Exists(name string) bool
	Open(name string) (io.ReadCloser, error)
	// List returns the slash separated names of all regular files below dir,
	// relative to dir, sorted
	List(dir string) ([]string, error)
}

// Dir is a Reader rooted at a directory on disk
type Dir struct {
	root string
}

// NewDir creates a Reader rooted at root
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) String() string {
	return d.root
}

// Exists reports whether name exists, file or directory
func (d *Dir) Exists(name string) bool {
	if d.root == "" {
		return false
	}
	_, err := os.Stat(d.resolve(name))
	return err == nil
}

// Open opens name for reading
func (d *Dir) Open(name string) (io.ReadCloser, error) {
	if d.root == "" {
		return nil, fs.ErrNotExist
	}
	return os.Open(d.resolve(name))
}

// List walks dir and returns every regular file below it
func (d *Dir) List(dir string) ([]string, error) {
	base := d.resolve(dir)
	var files []string
	err := filepath.WalkDir(base, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// resolve maps a repository name onto the filesystem, keeping it below root
func (d *Dir) resolve(name string) string {
	clean := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(name), "/"))
	return filepath.Join(d.root, filepath.FromSlash(clean))
}

// Layered locates names across several readers in order; the first one
// holding a name wins
type Layered struct {
	layers []Reader
}

// NewLayered creates a layered reader. Pass the instance layer first and the
// system layer last.
func NewLayered(layers ...Reader) *Layered {
	return &Layered{layers: layers}
}

// Locate returns the first layer that contains name
func (l *Layered) Locate(name string) (Reader, bool) {
	for _, layer := range l.layers {
		if layer != nil && layer.Exists(name) {
			return layer, true
		}
	}
	return nil, false
}
