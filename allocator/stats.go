package allocator

// Stats ...
type Stats struct {
	TotalBytes     uint64
	FreeBytes      uint64
	AllocatedBytes uint64
	ReservedBytes  uint64

	// FreeBlocks counts the free blocks currently listed at each order.
	FreeBlocks [MaxOrder + 1]uint32
}

// Stats returns a snapshot of the pool's usage. Allocated and reserved
// bytes are tracked incrementally; free bytes are recounted from the lists.
func (p *Pool) Stats() Stats {
	st := Stats{
		TotalBytes:     uint64(p.size),
		AllocatedBytes: p.allocated,
		ReservedBytes:  p.reserved,
	}
	for order := uint32(0); order <= MaxOrder; order++ {
		for index := p.lists.heads[order]; index != nullPtr; index = p.lists.nodes[index].next {
			st.FreeBlocks[order]++
			st.FreeBytes += uint64(blockSize(order))
		}
	}
	return st
}
