package allocator

// Block size classes. These are build-time constants: a block at order o
// spans 1<<(MinBlockLog2+o) bytes, and the state tree is dimensioned for a
// region of 1<<MemBlockLog2 bytes. Bytes beyond that span, like any tail
// smaller than a minimum block, are never addressable.
const (
	// MinBlockLog2 is the exponent of the smallest allocatable block.
	MinBlockLog2 = 12
	// MaxBlockLog2 is the exponent of the largest single allocation.
	MaxBlockLog2 = 20
	// MemBlockLog2 is the exponent of the span the state tree covers.
	MemBlockLog2 = 20

	// MaxOrder is the highest order a block can reach.
	MaxOrder = MaxBlockLog2 - MinBlockLog2
)

const (
	minBlockSize = 1 << MinBlockLog2
	maxBlockSize = 1 << MaxBlockLog2

	memSpan = 1 << MemBlockLog2

	// sizeMultiple is the number of minimum blocks in the tracked span.
	sizeMultiple = 1 << (MemBlockLog2 - MinBlockLog2)

	totalTreeNodes     = 1<<(MemBlockLog2-MinBlockLog2+1) - 1
	truncatedTreeNodes = 1<<(MemBlockLog2-MaxBlockLog2) - 1
	treeNodes          = totalTreeNodes - truncatedTreeNodes
	treeWords          = (treeNodes*2 + 63) / 64
)

// Range ...
type Range struct {
	Start  uint32
	Length uint32
}

// Config ...
type Config struct {
	// Reserved lists sub-regions that must never be handed out by Malloc.
	// They are carved out of the free structure at init time and stay
	// reserved for the whole life of the pool.
	Reserved []Range
}

// DefaultConfig ...
var DefaultConfig = Config{}

func blockSize(order uint32) uint32 {
	return 1 << (MinBlockLog2 + order)
}
