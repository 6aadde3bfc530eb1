package wav

// ChunkKind is the decoded form of a 4-character chunk id.
type ChunkKind int

const (
	ChunkUnknown   ChunkKind = iota
	ChunkFormat              // "fmt "
	ChunkData                // "data", ends the header
	ChunkSkippable           // informational, skipped without reading
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkFormat:
		return "format"
	case ChunkData:
		return "data"
	case ChunkSkippable:
		return "skippable"
	default:
		return "unknown"
	}
}

// DecodeChunkID classifies a chunk id. Ids are case sensitive.
func DecodeChunkID(id [4]byte) ChunkKind {
	switch string(id[:]) {
	case "fmt ":
		return ChunkFormat
	case "data":
		return ChunkData
	case "DISP", "fact", "LIST":
		return ChunkSkippable
	default:
		return ChunkUnknown
	}
}
