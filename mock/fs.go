package mock

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rabidaudio/sdwav/vfs"
)

var ErrIO = errors.New("mock: I/O error")

// FS is an in-memory flat filesystem. Names are case insensitive.
type FS struct {
	mu    sync.Mutex
	files map[string][]byte

	// FailAt makes reads of a file fail once they reach the given offset.
	FailAt map[string]int64
	// FailOpen makes Open and Create of a file fail with the given error.
	FailOpen map[string]error

	Opens []string
}

// ensure interface conformation
var _ vfs.FS = (*FS)(nil)

func NewFS() *FS {
	return &FS{
		files:    map[string][]byte{},
		FailAt:   map[string]int64{},
		FailOpen: map[string]error{},
	}
}

func key(name string) string {
	return strings.ToUpper(strings.TrimPrefix(name, "/"))
}

// Put stores a file, replacing any previous content.
func (f *FS) Put(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key(name)] = append([]byte(nil), data...)
}

// Get returns a copy of a file's content.
func (f *FS) Get(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key(name)]
	return append([]byte(nil), data...), ok
}

func (f *FS) Remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key(name))
}

func (f *FS) Open(name string) (vfs.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Opens = append(f.Opens, name)
	if err := f.FailOpen[key(name)]; err != nil {
		return nil, err
	}
	if _, ok := f.files[key(name)]; !ok {
		return nil, fmt.Errorf("%w: %s", vfs.ErrNoFile, name)
	}
	return &file{fs: f, name: key(name)}, nil
}

func (f *FS) Create(name string) (vfs.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOpen[key(name)]; err != nil {
		return nil, err
	}
	if _, ok := f.files[key(name)]; !ok {
		f.files[key(name)] = nil
	}
	return &file{fs: f, name: key(name), writable: true}, nil
}

type file struct {
	fs       *FS
	name     string
	off      int64
	writable bool
	closed   bool
}

func (fl *file) Read(p []byte) (int, error) {
	fl.fs.mu.Lock()
	defer fl.fs.mu.Unlock()
	if fl.closed {
		return 0, errors.New("mock: read of closed file")
	}
	data := fl.fs.files[fl.name]
	if fail, ok := fl.fs.FailAt[fl.name]; ok && fl.off+int64(len(p)) > fail {
		n := 0
		if fl.off < fail {
			n = copy(p[:fail-fl.off], data[fl.off:])
			fl.off += int64(n)
		}
		return n, ErrIO
	}
	if fl.off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[fl.off:])
	fl.off += int64(n)
	return n, nil
}

func (fl *file) Write(p []byte) (int, error) {
	fl.fs.mu.Lock()
	defer fl.fs.mu.Unlock()
	if !fl.writable || fl.closed {
		return 0, errors.New("mock: file not writable")
	}
	data := fl.fs.files[fl.name]
	if end := fl.off + int64(len(p)); end > int64(len(data)) {
		data = append(data, make([]byte, end-int64(len(data)))...)
	}
	copy(data[fl.off:], p)
	fl.fs.files[fl.name] = data
	fl.off += int64(len(p))
	return len(p), nil
}

func (fl *file) Seek(offset int64, whence int) (int64, error) {
	fl.fs.mu.Lock()
	defer fl.fs.mu.Unlock()
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += fl.off
	case io.SeekEnd:
		offset += int64(len(fl.fs.files[fl.name]))
	default:
		return 0, errors.New("mock: bad whence")
	}
	if offset < 0 {
		return 0, errors.New("mock: negative position")
	}
	fl.off = offset
	return offset, nil
}

func (fl *file) Close() error {
	fl.closed = true
	return nil
}
