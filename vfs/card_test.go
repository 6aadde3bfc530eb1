package vfs_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/sdwav/mmc"
	"github.com/rabidaudio/sdwav/mock"
	"github.com/rabidaudio/sdwav/resume"
	"github.com/rabidaudio/sdwav/vfs"
	"github.com/rabidaudio/sdwav/wav"
)

// cardImage builds a FAT32 image holding one track and returns its
// bytes.
func cardImage(t *testing.T, payload []byte) []byte {
	path := filepath.Join(t.TempDir(), "card.img")
	vol, err := vfs.CreateImage(path, 0, "sdwav")
	require.NoError(t, err)
	_, err = vol.AddFile("101.wav", bytes.NewReader(mock.WAV(2, 16, 44100, payload)))
	require.NoError(t, err)
	require.NoError(t, vol.Close())

	img, err := os.ReadFile(path)
	require.NoError(t, err)
	return img
}

func TestCardEndToEnd(t *testing.T) {
	payload := mock.Ramp(4 * 1024)
	for _, kind := range []mock.Kind{mock.SD2Block, mock.SD1} {
		dev := mock.NewCardImage(kind, cardImage(t, payload))
		card := mmc.New(dev)
		require.NoError(t, card.Initialize())

		size, err := vfs.CardSize(card)
		require.NoError(t, err)
		assert.Equal(t, int64(vfs.DefaultImageSize), size)

		vol, err := vfs.OpenCard(card, 1, 0)
		require.NoError(t, err)
		assert.Contains(t, vol.Label(), "SDWAV")

		f, err := vol.Open("101.WAV")
		require.NoError(t, err)
		g, err := wav.ScanHeader(f)
		require.NoError(t, err)
		assert.Equal(t, 2, g.Channels)
		assert.Equal(t, int64(len(payload)), g.SampleCount)
		assert.Equal(t, int64(44), g.DataOffset)

		got := make([]byte, len(payload))
		_, err = io.ReadFull(f, got)
		require.NoError(t, err)
		assert.Equal(t, payload, got, "kind %v", kind)
		require.NoError(t, f.Close())

		_, err = vol.Open("999.WAV")
		assert.ErrorIs(t, err, vfs.ErrNoFile)
		require.NoError(t, vol.Close())
	}
}

func TestCardResumeRecord(t *testing.T) {
	dev := mock.NewCardImage(mock.SD2Block, cardImage(t, mock.Ramp(2048)))
	card := mmc.New(dev)
	require.NoError(t, card.Initialize())

	vol, err := vfs.OpenCard(card, 1, 0)
	require.NoError(t, err)
	require.NoError(t, resume.New(vol, "").Save(1, 4))
	require.NoError(t, vol.Close())

	// mount again from the same card
	vol, err = vfs.OpenCard(card, 1, 0)
	require.NoError(t, err)
	defer vol.Close()
	c, tr, err := resume.New(vol, "").Load()
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{1, 4}, [2]uint8{c, tr})
}

func TestCardNotInitialized(t *testing.T) {
	card := mmc.New(mock.NewCard(mock.SD2Block, 8))
	_, err := vfs.OpenCard(card, 1, 0)
	assert.True(t, mmc.IsNotReady(err))
}
