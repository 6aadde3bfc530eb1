// Package resume persists the last successfully loaded track as a two
// byte record, [channel, track].
package resume

import (
	"errors"
	"io"

	"github.com/rabidaudio/sdwav/vfs"
)

// DefaultName is the record file on the card.
const DefaultName = "RESUME.DAT"

type Store struct {
	fs   vfs.FS
	name string
}

func New(fs vfs.FS, name string) *Store {
	if name == "" {
		name = DefaultName
	}
	return &Store{fs: fs, name: name}
}

// Save overwrites the record. Save(0, 0) records that there is nothing to
// resume.
func (s *Store) Save(channel, track uint8) (err error) {
	f, err := s.fs.Create(s.name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = f.Write([]byte{channel, track})
	return err
}

// Load returns the saved record. A missing or short record reads as
// (0, 0).
func (s *Store) Load() (channel, track uint8, err error) {
	f, err := s.fs.Open(s.name)
	if errors.Is(err, vfs.ErrNoFile) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var rec [2]byte
	_, err = io.ReadFull(f, rec[:])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return rec[0], rec[1], nil
}
