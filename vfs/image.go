package vfs

import (
	"fmt"
	"io"
	"os"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/diskfs/go-diskfs/partition/mbr"
)

// DefaultImageSize is the size of card images built by CreateImage when
// no size is given.
const DefaultImageSize = 64 * fat32.MB

// START is the first sector of the data partition, the usual 1MiB
// alignment of SD cards.
const START = 2048

// OpenImage opens the FAT32 filesystem on the given partition of a card
// image file. Partition 0 means the image has no partition table.
func OpenImage(path string, partition int) (*Volume, error) {
	dsk, err := diskfs.Open(path)
	if err != nil {
		return nil, err
	}
	return newVolume(dsk, partition, func() error {
		return dsk.Close()
	})
}

// CreateImage writes a new card image to path with an MBR and a single
// FAT32 partition. Be sure to Close() the Volume after use.
func CreateImage(path string, size int64, label string) (*Volume, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	if size%SECTOR_SIZE != 0 || size/SECTOR_SIZE <= START {
		return nil, fmt.Errorf("invalid image size %d", size)
	}
	dsk, err := diskfs.Create(path, size, diskfs.SectorSizeDefault)
	if err != nil {
		return nil, err
	}

	// create an MBR with one partition
	table := &mbr.Table{
		LogicalSectorSize:  SECTOR_SIZE,
		PhysicalSectorSize: SECTOR_SIZE,
		Partitions: []*mbr.Partition{
			{
				Bootable: false,
				Type:     mbr.Fat32LBA,
				Start:    START,
				Size:     uint32(size/SECTOR_SIZE) - START,
			},
		},
	}
	err = dsk.Partition(table)
	if err != nil {
		defer os.Remove(path)
		return nil, err
	}
	// Create a FAT32 filesystem
	fatfs, err := dsk.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: sanitizeName(label),
	})
	if err != nil {
		defer os.Remove(path)
		return nil, err
	}

	closefn := func() error {
		if err := fatfs.Close(); err != nil {
			return err
		}
		return dsk.Close()
	}
	return &Volume{fs: fatfs, disk: dsk, closefn: closefn}, nil
}

// AddFile copies r into a new file in the volume root. The name is
// converted to 8.3 form; the stored name is returned.
func (v *Volume) AddFile(name string, r io.Reader) (string, error) {
	dosName := sanitizeName(name)
	if dosName == "" {
		return "", fmt.Errorf("no usable characters in file name %q", name)
	}
	f, err := v.fs.OpenFile(absPath(dosName), os.O_CREATE|os.O_RDWR)
	if err != nil {
		return "", fmt.Errorf("create %v: %w", dosName, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %v: %w", dosName, err)
	}
	return dosName, nil
}
