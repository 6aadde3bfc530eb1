package vfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/backend"
)

// BlockDevice is a sector addressed device, such as an initialized card.
type BlockDevice interface {
	ReadSector(dst []byte, sector uint32) error
	WriteSector(src []byte, sector uint32) error
}

var errNoMBR = errors.New("vfs: no partition table in sector 0")

// CardSize derives the usable size of dev from the partition table in
// sector 0: the end of the last partition.
func CardSize(dev BlockDevice) (int64, error) {
	var mbr [SECTOR_SIZE]byte
	if err := dev.ReadSector(mbr[:], 0); err != nil {
		return 0, err
	}
	if mbr[510] != 0x55 || mbr[511] != 0xAA {
		return 0, errNoMBR
	}
	var end int64
	for i := range 4 {
		entry := mbr[0x1BE+16*i:]
		start := binary.LittleEndian.Uint32(entry[8:12])
		size := binary.LittleEndian.Uint32(entry[12:16])
		if entry[4] == 0 || size == 0 {
			continue
		}
		end = max(end, int64(start)+int64(size))
	}
	if end == 0 {
		return 0, errNoMBR
	}
	return end * SECTOR_SIZE, nil
}

// OpenCard opens the FAT32 filesystem on a partition of dev. If size is
// 0 it is taken from the partition table.
func OpenCard(dev BlockDevice, partition int, size int64) (*Volume, error) {
	if size == 0 {
		var err error
		size, err = CardSize(dev)
		if err != nil {
			return nil, err
		}
	}
	b := newCardBackend(dev, size)
	dsk, err := diskfs.OpenBackend(b)
	if err != nil {
		return nil, fmt.Errorf("open card: %w", err)
	}
	return newVolume(dsk, partition, func() error {
		return dsk.Close()
	})
}

// cardBackend presents a block device as a disk image to go-diskfs.
// Reads go through a one sector cache, since the filesystem reads
// directory entries and FAT cells a few bytes at a time.
type cardBackend struct {
	dev    BlockDevice
	size   int64
	offset int64

	cached int64 // sector in buf, -1 if none
	buf    [SECTOR_SIZE]byte
}

// ensure interface conformation
var _ backend.Storage = (*cardBackend)(nil)
var _ backend.WritableFile = (*cardBackend)(nil)

func newCardBackend(dev BlockDevice, size int64) *cardBackend {
	return &cardBackend{dev: dev, size: size, cached: -1}
}

func (b *cardBackend) load(sector int64) error {
	if sector == b.cached {
		return nil
	}
	b.cached = -1
	if err := b.dev.ReadSector(b.buf[:], uint32(sector)); err != nil {
		return err
	}
	b.cached = sector
	return nil
}

func (b *cardBackend) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	for n < len(p) {
		pos := off + int64(n)
		if pos >= b.size {
			return n, io.EOF
		}
		if err := b.load(pos / SECTOR_SIZE); err != nil {
			return n, err
		}
		chunk := copy(p[n:], b.buf[pos%SECTOR_SIZE:])
		if rest := b.size - pos; int64(chunk) > rest {
			chunk = int(rest)
		}
		n += chunk
	}
	return n, nil
}

// WriteAt does a read-modify-write of every sector it touches.
func (b *cardBackend) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off+int64(len(p)) > b.size {
		return 0, fs.ErrInvalid
	}
	for n < len(p) {
		pos := off + int64(n)
		sector := pos / SECTOR_SIZE
		within := int(pos % SECTOR_SIZE)
		if within != 0 || len(p)-n < SECTOR_SIZE {
			if err := b.load(sector); err != nil {
				return n, err
			}
		}
		chunk := copy(b.buf[within:], p[n:])
		b.cached = -1
		if err := b.dev.WriteSector(b.buf[:], uint32(sector)); err != nil {
			return n, err
		}
		b.cached = sector
		n += chunk
	}
	return n, nil
}

func (b *cardBackend) Read(p []byte) (int, error) {
	n, err := b.ReadAt(p, b.offset)
	b.offset += int64(n)
	return n, err
}

func (b *cardBackend) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += b.offset
	case io.SeekEnd:
		offset += b.size
	default:
		return 0, fs.ErrInvalid
	}
	if offset < 0 {
		return 0, fs.ErrInvalid
	}
	b.offset = offset
	return offset, nil
}

func (b *cardBackend) Stat() (fs.FileInfo, error) {
	return cardInfo{size: b.size}, nil
}

func (b *cardBackend) Close() error {
	b.cached = -1
	return nil
}

// Sys has no OS file to offer, the card is driven from user space.
func (b *cardBackend) Sys() (*os.File, error) {
	return nil, errors.New("vfs: card has no OS file")
}

func (b *cardBackend) Writable() (backend.WritableFile, error) {
	return b, nil
}

type cardInfo struct {
	size int64
}

func (i cardInfo) Name() string       { return "card" }
func (i cardInfo) Size() int64        { return i.size }
func (i cardInfo) Mode() fs.FileMode  { return 0o644 }
func (i cardInfo) ModTime() time.Time { return time.Time{} }
func (i cardInfo) IsDir() bool        { return false }
func (i cardInfo) Sys() any           { return nil }
