package player

import (
	"errors"
	"fmt"

	"github.com/rabidaudio/sdwav/input"
)

// MaxTrack is the highest track number of a channel. The file name holds
// channel*100+track in three digits, so larger numbers would collide
// with the next channel.
const MaxTrack = 99

var ErrTrackRange = errors.New("player: track out of range")

// TrackName returns the file name of a track, e.g. "301.WAV" for the
// first track of channel 3.
func TrackName(channel, track uint8) (string, error) {
	if !input.IsChannel(channel) || track < 1 || track > MaxTrack {
		return "", fmt.Errorf("%w: channel %d track %d", ErrTrackRange, channel, track)
	}
	return fmt.Sprintf("%03d.WAV", int(channel)*100+int(track)), nil
}
