package allocator

// The state tree tracks every block of every order with 2 bits, stored as a
// flat level-order array:
//
//	00 - free (unsplit, available for allocation and merging)
//	01 - split (carved into two buddies, must not be allocated or merged)
//	10 - allocated
//	11 - reserved (never allocated, never merged)
//
// height = MemBlockLog2 - MinBlockLog2 - order
// offset = address / blockSize(order)
// index  = 2^height - 1 + offset - truncatedTreeNodes
//
// When the maximum block is smaller than the tracked span, the top levels of
// the tree hold no usable blocks; since the array is indexed in level order,
// those leading truncatedTreeNodes entries are simply cut off.

type blockState uint8

const (
	stateFree      blockState = 0
	stateSplit     blockState = 1
	stateAllocated blockState = 2
	stateReserved  blockState = 3
)

func treeIndex(addr uint32, order uint32) uint32 {
	height := uint32(MemBlockLog2-MinBlockLog2) - order
	offset := addr >> (MinBlockLog2 + order)
	return 1<<height - 1 + offset - truncatedTreeNodes
}

// buddyAddr relies on every block being aligned to its own size: flipping
// the block-size bit of the address lands exactly on the sibling block.
func buddyAddr(addr uint32, order uint32) uint32 {
	return addr ^ blockSize(order)
}

type stateTree struct {
	words [treeWords]uint64
}

func (t *stateTree) fill(s blockState) {
	word := uint64(0)
	for shift := uint32(0); shift < 64; shift += 2 {
		word |= uint64(s) << shift
	}
	for i := range t.words {
		t.words[i] = word
	}
}

func (t *stateTree) state(addr uint32, order uint32) blockState {
	bit := treeIndex(addr, order) * 2
	return blockState(t.words[bit>>6] >> (bit & 63) & 0b11)
}

// setState rewrites exactly the two target bits, leaving every other
// block's state in the word untouched.
func (t *stateTree) setState(addr uint32, order uint32, s blockState) {
	bit := treeIndex(addr, order) * 2
	word := bit >> 6
	shift := bit & 63
	t.words[word] = t.words[word]&^(0b11<<shift) | uint64(s)<<shift
}
