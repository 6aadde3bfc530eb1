package vfs

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "UPCASE", sanitizeName("upcase"))
	assert.Equal(t, "MYFILE", sanitizeName("my file"))
	assert.Equal(t, "LIMITSLE", sanitizeName("limitslengthtoeight"))
	assert.Equal(t, "101.WAV", sanitizeName("101.wav"))
	assert.Equal(t, "TRACK.WAV", sanitizeName("track.wave"))
	assert.Equal(t, "", sanitizeName(""))
	assert.Equal(t, "ILUV3", sanitizeName("I luv ĀḞÍ♥︎✨ :3"))
}

func createImage(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "card.img")
	vol, err := CreateImage(path, 0, "test card")
	require.NoError(t, err)
	_, err = vol.AddFile("101.wav", bytes.NewReader(bytes.Repeat([]byte{0x5A}, 3000)))
	require.NoError(t, err)
	_, err = vol.AddFile("102.WAV", bytes.NewReader([]byte("short")))
	require.NoError(t, err)
	require.NoError(t, vol.Close())
	return path
}

func TestImageRoundTrip(t *testing.T) {
	vol, err := OpenImage(createImage(t), 1)
	require.NoError(t, err)
	defer vol.Close()

	names, err := vol.List("/")
	assert.NoError(t, err)
	assert.Subset(t, names, []string{"101.WAV", "102.WAV"})

	f, err := vol.Open("101.WAV")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	assert.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x5A}, 3000), data)

	_, err = f.Seek(2998, io.SeekStart)
	assert.NoError(t, err)
	tail := make([]byte, 8)
	n, _ := f.Read(tail)
	assert.Equal(t, 2, n)
}

func TestOpenMissing(t *testing.T) {
	vol, err := OpenImage(createImage(t), 1)
	require.NoError(t, err)
	defer vol.Close()

	_, err = vol.Open("999.WAV")
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestCreateOverwrites(t *testing.T) {
	vol, err := OpenImage(createImage(t), 1)
	require.NoError(t, err)
	defer vol.Close()

	f, err := vol.Create("RESUME.DAT")
	require.NoError(t, err)
	_, err = f.Write([]byte{3, 7})
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	f, err = vol.Create("RESUME.DAT")
	require.NoError(t, err)
	_, err = f.Write([]byte{4})
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	f, err = vol.Open("resume.dat")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	assert.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, byte(4), data[0])
}

func TestCreateImageSize(t *testing.T) {
	_, err := CreateImage(filepath.Join(t.TempDir(), "x.img"), 1000, "x")
	assert.Error(t, err)
}

type memDevice struct {
	img    []byte
	reads  int
	writes int
}

func (m *memDevice) ReadSector(dst []byte, sector uint32) error {
	m.reads++
	copy(dst, m.img[int(sector)*SECTOR_SIZE:])
	return nil
}

func (m *memDevice) WriteSector(src []byte, sector uint32) error {
	m.writes++
	copy(m.img[int(sector)*SECTOR_SIZE:], src[:SECTOR_SIZE])
	return nil
}

func TestCardBackendCache(t *testing.T) {
	dev := &memDevice{img: make([]byte, 4*SECTOR_SIZE)}
	for i := range dev.img {
		dev.img[i] = byte(i / 2)
	}
	b := newCardBackend(dev, int64(len(dev.img)))

	p := make([]byte, 4)
	for off := int64(0); off < 64; off += 4 {
		_, err := b.ReadAt(p, off)
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, dev.reads, "small reads within a sector hit the cache")

	p = make([]byte, 20)
	n, err := b.ReadAt(p, 500)
	assert.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, dev.img[500:520], p)

	n, err = b.ReadAt(p, int64(len(dev.img))-10)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 10, n)
}

func TestCardBackendWrite(t *testing.T) {
	dev := &memDevice{img: bytes.Repeat([]byte{0xEE}, 4*SECTOR_SIZE)}
	b := newCardBackend(dev, int64(len(dev.img)))
	w, err := b.Writable()
	require.NoError(t, err)

	n, err := w.WriteAt([]byte{1, 2, 3, 4}, 510)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 2, dev.writes)
	assert.Equal(t, []byte{0xEE, 1, 2, 3, 4, 0xEE}, dev.img[509:515])

	// whole sectors are written without reading them first
	reads := dev.reads
	_, err = w.WriteAt(make([]byte, SECTOR_SIZE), 2*SECTOR_SIZE)
	assert.NoError(t, err)
	assert.Equal(t, reads, dev.reads)

	p := make([]byte, 2)
	_, err = b.ReadAt(p, 510)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, p)

	_, err = w.WriteAt([]byte{1}, int64(len(dev.img)))
	assert.Error(t, err)
}

func TestCardBackendStat(t *testing.T) {
	b := newCardBackend(&memDevice{}, 1<<20)
	fi, err := b.Stat()
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())
	assert.Equal(t, int64(1<<20), fi.Size())

	pos, err := b.Seek(-10, io.SeekEnd)
	assert.NoError(t, err)
	assert.Equal(t, int64(1<<20-10), pos)
	_, err = b.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestCardSize(t *testing.T) {
	dev := &memDevice{img: make([]byte, SECTOR_SIZE)}
	_, err := CardSize(dev)
	assert.ErrorIs(t, err, errNoMBR)

	dev.img[510], dev.img[511] = 0x55, 0xAA
	entry := dev.img[0x1BE:]
	entry[4] = 0x0C
	entry[8], entry[9] = 0x00, 0x08 // start 2048
	entry[12], entry[13], entry[14] = 0x00, 0x00, 0x01 // 65536 sectors
	size, err := CardSize(dev)
	assert.NoError(t, err)
	assert.Equal(t, int64(2048+65536)*SECTOR_SIZE, size)
}
