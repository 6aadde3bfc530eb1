package player

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rabidaudio/sdwav/mock"
	"github.com/rabidaudio/sdwav/wav"
)

func openWAV(t *testing.T, payload []byte) (*bytes.Reader, wav.Geometry) {
	r := bytes.NewReader(mock.WAV(1, 16, 48000, payload))
	g, err := wav.ScanHeader(r)
	failIfErr(t, err)
	return r, g
}

func pos(t *testing.T, s io.Seeker) int64 {
	p, err := s.Seek(0, io.SeekCurrent)
	failIfErr(t, err)
	return p
}

func TestRefillRealigns(t *testing.T) {
	r, g := openWAV(t, mock.Ramp(8192))
	var out bytes.Buffer
	var rf Refiller

	n, err := rf.Refill(r, g, &out)
	failIfErr(t, err)
	assert.Equal(t, 468+1024, n, "rest of the first sector, then a bulk read")
	assert.Equal(t, int64(1536), pos(t, r))

	n, err = rf.Refill(r, g, &out)
	failIfErr(t, err)
	assert.Equal(t, 1024, n, "aligned cursor reads no snip")
	assert.Equal(t, mock.Ramp(8192)[:n+468+1024], out.Bytes())
}

func TestRefillEndOfStream(t *testing.T) {
	payload := mock.Ramp(2048)
	r, g := openWAV(t, payload)
	var out bytes.Buffer
	var rf Refiller

	n, err := rf.Refill(r, g, &out)
	failIfErr(t, err)
	assert.Equal(t, 1492, n)

	n, err = rf.Refill(r, g, &out)
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 556, n)
	assert.Equal(t, payload, out.Bytes())

	n, err = rf.Refill(r, g, &out)
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.Zero(t, n)
}

func TestRefillSnipCapped(t *testing.T) {
	payload := mock.Ramp(1024)
	data := append(mock.WAV(1, 16, 48000, payload), 0xaa, 0xbb, 0xcc)
	r := bytes.NewReader(data)
	g, err := wav.ScanHeader(r)
	failIfErr(t, err)

	// jump close to the end, mid sector
	_, err = r.Seek(g.End()-100, io.SeekStart)
	failIfErr(t, err)
	var out bytes.Buffer
	var rf Refiller
	n, err := rf.Refill(r, g, &out)
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 100, n)
	assert.Equal(t, payload[924:], out.Bytes(), "trailing bytes after the payload are not played")
}

func TestRefillTruncatedFile(t *testing.T) {
	data := mock.WAV(1, 16, 48000, mock.Ramp(4096))
	r := bytes.NewReader(data[:2000])
	g, err := wav.ScanHeader(r)
	failIfErr(t, err)

	var out bytes.Buffer
	var rf Refiller
	_, err = rf.Refill(r, g, &out)
	failIfErr(t, err)
	_, err = rf.Refill(r, g, &out)
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 2000-44, out.Len())
}

func TestRefillReadError(t *testing.T) {
	fs := mock.NewFS()
	fs.Put("101.WAV", mock.WAV(1, 16, 48000, mock.Ramp(8192)))
	fs.FailAt["101.WAV"] = 3000
	f, err := fs.Open("101.WAV")
	failIfErr(t, err)
	g, err := wav.ScanHeader(f)
	failIfErr(t, err)

	var rf Refiller
	var err2 error
	for i := 0; i < 10 && err2 == nil; i++ {
		_, err2 = rf.Refill(f, g, io.Discard)
	}
	assert.ErrorIs(t, err2, mock.ErrIO)
}
