// Package vfs is the file layer under the player: a small FS interface
// and its FAT32 implementation backed by go-diskfs, either on a card
// image file or directly on a card.
package vfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
)

const SECTOR_SIZE = 512

// ErrNoFile is returned by Open when the file does not exist.
var ErrNoFile = errors.New("vfs: no such file")

type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// FS is the file API the player consumes. Names are relative to the
// volume root.
type FS interface {
	Open(name string) (File, error)
	Create(name string) (File, error)
}

// Volume is a FAT32 filesystem on one partition of a disk.
type Volume struct {
	fs      filesystem.FileSystem
	disk    *disk.Disk
	closefn func() error
}

// ensure interface conformation
var _ FS = (*Volume)(nil)

func newVolume(dsk *disk.Disk, partition int, closefn func() error) (*Volume, error) {
	fsys, err := dsk.GetFilesystem(partition)
	if err != nil {
		closefn()
		return nil, fmt.Errorf("read filesystem on partition %d: %w", partition, err)
	}
	if fsys.Type() != filesystem.TypeFat32 {
		closefn()
		return nil, fmt.Errorf("partition %d is not FAT32", partition)
	}
	return &Volume{fs: fsys, disk: dsk, closefn: closefn}, nil
}

func absPath(name string) string {
	return path.Clean("/" + name)
}

// lookup returns the stored path of name. FAT names are case
// insensitive.
func (v *Volume) lookup(name string) (string, bool, error) {
	p := absPath(name)
	dir := path.Dir(p)
	entries, err := v.fs.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	base := path.Base(p)
	for _, fi := range entries {
		if !fi.IsDir() && strings.EqualFold(fi.Name(), base) {
			return path.Join(dir, fi.Name()), true, nil
		}
	}
	return "", false, nil
}

// Open opens a file for reading.
func (v *Volume) Open(name string) (File, error) {
	stored, ok, err := v.lookup(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, name)
	}
	return v.fs.OpenFile(stored, os.O_RDONLY)
}

// Create opens a file for reading and writing, creating it if needed.
// Existing content is overwritten in place, not truncated.
func (v *Volume) Create(name string) (File, error) {
	stored, ok, err := v.lookup(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		stored = absPath(name)
	}
	return v.fs.OpenFile(stored, os.O_CREATE|os.O_RDWR)
}

// List returns the names of the regular files in dir.
func (v *Volume) List(dir string) ([]string, error) {
	entries, err := v.fs.ReadDir(absPath(dir))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}

// Label returns the volume label.
func (v *Volume) Label() string {
	return strings.TrimSpace(v.fs.Label())
}

func (v *Volume) Close() error {
	return v.closefn()
}

// sanitizeName takes a file name and converts it to DOS 8.3 format by
// uppercasing and limiting the base name to 8 and the extension to 3
// ASCII letters or digits.
func sanitizeName(name string) string {
	// https://en.wikipedia.org/wiki/8.3_filename
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	clean := func(s string, n int) string {
		out := make([]rune, 0, n)
		for _, r := range strings.ToUpper(s) {
			if len(out) == n {
				break
			}
			if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				out = append(out, r)
			}
		}
		return string(out)
	}
	base = clean(base, 8)
	ext = clean(strings.TrimPrefix(ext, "."), 3)
	if ext == "" {
		return base
	}
	return base + "." + ext
}
