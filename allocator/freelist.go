package allocator

import "math"

const nullPtr uint32 = math.MaxUint32

type listNode struct {
	prev uint32
	next uint32
}

// freeLists keeps one doubly linked list of free blocks per order. The
// links live in a side table indexed by minimum-block index, never inside
// the pool's own bytes, so freed memory is left exactly as the caller
// returned it. A block sits in at most one list at a time, so one node per
// minimum block is enough.
type freeLists struct {
	heads [MaxOrder + 1]uint32
	nodes [sizeMultiple]listNode
}

func blockIndex(addr uint32) uint32 {
	return addr >> MinBlockLog2
}

func (f *freeLists) init() {
	for i := range f.heads {
		f.heads[i] = nullPtr
	}
}

func (f *freeLists) push(order uint32, addr uint32) {
	index := blockIndex(addr)
	head := f.heads[order]
	f.nodes[index] = listNode{prev: nullPtr, next: head}
	if head != nullPtr {
		f.nodes[head].prev = index
	}
	f.heads[order] = index
}

func (f *freeLists) pop(order uint32) (uint32, bool) {
	index := f.heads[order]
	if index == nullPtr {
		return 0, false
	}
	next := f.nodes[index].next
	if next != nullPtr {
		f.nodes[next].prev = nullPtr
	}
	f.heads[order] = next
	return index << MinBlockLog2, true
}

// remove unlinks addr from its order's list in O(1) via the side table.
func (f *freeLists) remove(order uint32, addr uint32) {
	index := blockIndex(addr)
	node := f.nodes[index]
	if node.next != nullPtr {
		f.nodes[node.next].prev = node.prev
	}
	if node.prev != nullPtr {
		f.nodes[node.prev].next = node.next
	} else {
		f.heads[order] = node.next
	}
}

func (f *freeLists) content(order uint32) []uint32 {
	var result []uint32
	for index := f.heads[order]; index != nullPtr; index = f.nodes[index].next {
		result = append(result, index<<MinBlockLog2)
	}
	return result
}
