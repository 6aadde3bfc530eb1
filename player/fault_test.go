package player

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rabidaudio/sdwav/mmc"
	"github.com/rabidaudio/sdwav/mock"
	"github.com/rabidaudio/sdwav/vfs"
	"github.com/rabidaudio/sdwav/wav"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind FaultKind
		code int
	}{
		{ErrEndOfStream, FaultEndOfStream, 16},
		{fmt.Errorf("101.WAV: %w", &wav.FormatError{Reason: wav.ReasonSignature}), FaultFormat, 4},
		{&wav.FormatError{Reason: wav.ReasonCoding}, FaultFormat, 8},
		{&wav.FormatError{Reason: wav.ReasonUnknownChunk}, FaultFormat, 15},
		{fmt.Errorf("open: %w", vfs.ErrNoFile), FaultNoFile, 3},
		{fmt.Errorf("%w: channel 9", ErrTrackRange), FaultNoFile, 3},
		{fmt.Errorf("mount: %w", mmc.ErrNotReady), FaultCard, 2},
		{mock.ErrIO, FaultDisk, 1},
		{errors.New("anything else"), FaultDisk, 1},
	}
	for _, c := range cases {
		f := Classify(c.err)
		assert.Equal(t, c.kind, f.Kind, "%v", c.err)
		assert.Equal(t, c.code, f.Code, "%v", c.err)
		assert.ErrorIs(t, f, c.err)
	}
}

func TestClassifyKeepsFault(t *testing.T) {
	f := &Fault{Kind: FaultCard, Code: CodeCard, Err: mmc.ErrNotReady}
	assert.Same(t, f, Classify(fmt.Errorf("run: %w", f)))
}

func TestFormatCodesDistinct(t *testing.T) {
	seen := map[int]bool{CodeDisk: true, CodeCard: true, CodeNoFile: true, CodeEndOfStream: true}
	for r := wav.Reason(1); r <= wav.NumReasons; r++ {
		code := Classify(&wav.FormatError{Reason: r}).Code
		assert.False(t, seen[code], "code %d for %v", code, r)
		seen[code] = true
	}
	assert.Len(t, seen, 16)
}

func TestFaultError(t *testing.T) {
	f := Classify(mock.ErrIO)
	assert.Contains(t, f.Error(), "code 1")
	assert.Contains(t, f.Error(), mock.ErrIO.Error())
	assert.Equal(t, "no file", FaultNoFile.String())
}
