package wire

// Size limits enforced before any payload is allocated or decoded, so a
// hostile length field can never itself cause an out-of-memory condition.
const (
	// MessageSizeMax is the largest payload, in bytes, a single Message may
	// carry once fully reassembled from its chunks.
	MessageSizeMax = 10 * 1024 * 1024

	// ChunkSizeMax is the largest a single chunk's payload may be, excluding
	// its one-byte tag prefix.
	ChunkSizeMax = 16384

	// HeaderSize is the fixed frame header length: magic(4) + type(1) +
	// length(4) + checksum(4).
	HeaderSize = 4 + 1 + 4 + 4
)

// Magic is the fixed 4-byte prefix identifying a novapeer frame.
var Magic = [4]byte{'N', 'V', 'P', 1}
