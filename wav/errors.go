package wav

import "fmt"

// Reason identifies which header check rejected a file.
type Reason int

const (
	ReasonSignature    Reason = 1  // missing or wrong RIFF/WAVE signature
	ReasonChunkHeader  Reason = 2  // truncated chunk header
	ReasonFormatSize   Reason = 3  // fmt chunk outside 16..128 bytes
	ReasonFormatShort  Reason = 4  // fmt chunk payload truncated
	ReasonCoding       Reason = 5  // not linear PCM
	ReasonChannels     Reason = 6  // not mono or stereo
	ReasonResolution   Reason = 7  // not 8 or 16 bits per sample
	ReasonSampleRate   Reason = 8  // rate outside 8000..48000
	ReasonNoFormat     Reason = 9  // data chunk before a valid fmt chunk
	ReasonDataSize     Reason = 10 // data chunk smaller than MinDataSize
	ReasonDataAlign    Reason = 11 // data size not a multiple of the frame size
	ReasonUnknownChunk Reason = 12 // chunk id this parser does not handle
)

// NumReasons is the number of distinct header check failures.
const NumReasons = 12

func (r Reason) String() string {
	switch r {
	case ReasonSignature:
		return "not a RIFF/WAVE file"
	case ReasonChunkHeader:
		return "truncated chunk header"
	case ReasonFormatSize:
		return "invalid fmt chunk size"
	case ReasonFormatShort:
		return "truncated fmt chunk"
	case ReasonCoding:
		return "unsupported coding"
	case ReasonChannels:
		return "unsupported channel count"
	case ReasonResolution:
		return "unsupported resolution"
	case ReasonSampleRate:
		return "unsupported sample rate"
	case ReasonNoFormat:
		return "data chunk without format"
	case ReasonDataSize:
		return "data chunk too small"
	case ReasonDataAlign:
		return "data chunk not frame aligned"
	case ReasonUnknownChunk:
		return "unknown chunk"
	default:
		return fmt.Sprintf("unknown reason: %d", int(r))
	}
}

// FormatError is returned when a file is readable but its header is not
// something the player can stream.
type FormatError struct {
	Reason Reason
	Chunk  string // offending chunk id, if any
	Value  uint32 // offending value, if any
}

func (e *FormatError) Error() string {
	if e.Chunk != "" {
		return fmt.Sprintf("wav: %v (%q, %d)", e.Reason, e.Chunk, e.Value)
	}
	return "wav: " + e.Reason.String()
}
