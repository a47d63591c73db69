package allocator

import (
	"github.com/pkg/errors"
)

// Pool is a fixed-pool binary buddy allocator over a single caller-supplied
// byte region. The caller must keep the region valid for the pool's whole
// lifetime. A pool must be accessed by one goroutine at a time; callers
// needing concurrent access must bring their own mutual exclusion.
type Pool struct {
	region []byte
	size   uint32

	tree  stateTree
	lists freeLists

	allocated uint64
	reserved  uint64
}

// Init ...
func Init(region []byte) (*Pool, error) {
	return InitWithConfig(region, DefaultConfig)
}

// InitWithConfig carves the region into the largest aligned power-of-two
// blocks that fit, then carves out the configured reserved ranges.
func InitWithConfig(region []byte, conf Config) (*Pool, error) {
	usable := uint32(memSpan)
	if uint64(len(region)) < uint64(usable) {
		usable = uint32(len(region))
	}
	if usable < minBlockSize {
		return nil, ErrInitTooSmall
	}

	p := &Pool{
		region: region,
		size:   usable,
	}

	// Everything starts reserved: a tree position no carved block covers
	// must never read as free, or the merge climb could coalesce into
	// bytes the region does not contain.
	p.tree.fill(stateReserved)
	p.lists.init()

	addr := uint32(0)
	remain := usable
	for remain >= minBlockSize {
		order := carveOrder(remain)
		p.carveFree(addr, order)
		addr += blockSize(order)
		remain -= blockSize(order)
	}

	for _, r := range conf.Reserved {
		if err := p.reserveRange(r); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// carveOrder picks the largest order whose block fits in length bytes.
// Carved sizes strictly decrease as the remainder shrinks, which keeps
// every block aligned to its own size.
func carveOrder(length uint32) uint32 {
	order := floorLog2(length) - MinBlockLog2
	if order > MaxOrder {
		order = MaxOrder
	}
	return order
}

// requestOrder rounds a request up to the smallest order whose block size
// covers it, floored at the minimum block. Malloc and Free must agree on
// this rule.
func requestOrder(length uint32) uint32 {
	log := ceilLog2(length)
	if log <= MinBlockLog2 {
		return 0
	}
	return log - MinBlockLog2
}

func (p *Pool) carveFree(addr uint32, order uint32) {
	p.tree.setState(addr, order, stateFree)
	for o := order + 1; o <= MaxOrder; o++ {
		p.tree.setState(alignDown(addr, blockSize(o)), o, stateSplit)
	}
	p.lists.push(order, addr)
}

// Malloc returns the pool-relative offset of a block covering length bytes,
// aligned to the rounded block size. It fails with ErrRequestTooLarge or
// ErrPoolExhausted, leaving the pool untouched in both cases.
func (p *Pool) Malloc(length uint32) (uint32, error) {
	if length > maxBlockSize {
		return 0, ErrRequestTooLarge
	}
	order := requestOrder(length)

	if addr, ok := p.lists.pop(order); ok {
		p.tree.setState(addr, order, stateAllocated)
		p.allocated += uint64(blockSize(order))
		return addr, nil
	}

	from := order + 1
	for ; from <= MaxOrder && p.lists.heads[from] == nullPtr; from++ {
	}
	if from > MaxOrder {
		return 0, ErrPoolExhausted
	}

	for o := from; o > order; o-- {
		block, _ := p.lists.pop(o)
		p.tree.setState(block, o, stateSplit)

		half := o - 1
		buddy := buddyAddr(block, half)
		p.tree.setState(block, half, stateFree)
		p.tree.setState(buddy, half, stateFree)
		p.lists.push(half, block)
		p.lists.push(half, buddy)
	}

	addr, _ := p.lists.pop(order)
	p.tree.setState(addr, order, stateAllocated)
	p.allocated += uint64(blockSize(order))
	return addr, nil
}

// Free returns a block to the pool, merging with its buddy repeatedly while
// the buddy is free. The length must be the exact length passed to the
// matching Malloc call: the order is re-derived from it and nothing is
// validated. A mismatched length, a double free, or an address never
// returned by Malloc silently corrupts the pool.
func (p *Pool) Free(addr uint32, length uint32) {
	order := requestOrder(length)
	p.allocated -= uint64(blockSize(order))

	for order < MaxOrder {
		buddy := buddyAddr(addr, order)
		if p.tree.state(buddy, order) != stateFree {
			break
		}

		p.lists.remove(order, buddy)
		p.tree.setState(addr, order, stateFree)
		p.tree.setState(buddy, order, stateFree)

		addr = alignDown(addr, blockSize(order+1))
		order++
	}

	p.tree.setState(addr, order, stateFree)
	p.lists.push(order, addr)
}

func (p *Pool) reserveRange(r Range) error {
	if r.Length == 0 {
		return nil
	}
	if uint64(r.Start)+uint64(r.Length) > uint64(p.size) {
		return errors.Errorf("reserved range [%d, %d) outside the usable region of %d bytes",
			r.Start, uint64(r.Start)+uint64(r.Length), p.size)
	}

	start := alignDown(r.Start, uint32(minBlockSize))
	end := alignUp(r.Start+r.Length, uint32(minBlockSize))
	for addr := start; addr < end; {
		order := reserveOrder(addr, end-addr)
		p.carveReserved(addr, order)
		addr += blockSize(order)
	}
	return nil
}

// reserveOrder picks the largest block that starts at addr, stays aligned
// to its own size and fits in length bytes.
func reserveOrder(addr uint32, length uint32) uint32 {
	order := carveOrder(length)
	for order > 0 && alignDown(addr, blockSize(order)) != addr {
		order--
	}
	return order
}

// carveReserved extracts the block (addr, order) from the free structure
// and marks it reserved. Reserved is terminal: the block never joins a free
// list and never merges.
func (p *Pool) carveReserved(addr uint32, order uint32) {
	for from := order; from <= MaxOrder; from++ {
		covering := alignDown(addr, blockSize(from))
		if p.tree.state(covering, from) != stateFree {
			continue
		}

		p.lists.remove(from, covering)
		cur := covering
		for o := from; o > order; o-- {
			p.tree.setState(cur, o, stateSplit)

			half := o - 1
			next := alignDown(addr, blockSize(half))
			other := buddyAddr(next, half)
			p.tree.setState(other, half, stateFree)
			p.lists.push(half, other)
			cur = next
		}
		p.tree.setState(cur, order, stateReserved)
		p.reserved += uint64(blockSize(order))
		return
	}

	// No covering free block: either the range was already reserved, or an
	// earlier reservation split this block. Descend into whatever free
	// pieces remain.
	if order > 0 && p.tree.state(addr, order) == stateSplit {
		half := order - 1
		p.carveReserved(addr, half)
		p.carveReserved(buddyAddr(addr, half), half)
	}
}

// Block returns the region bytes backing an allocation, rounded to the
// block size the allocation occupies.
func (p *Pool) Block(addr uint32, length uint32) []byte {
	return p.region[addr : addr+blockSize(requestOrder(length))]
}

// Size returns the usable length of the region.
func (p *Pool) Size() uint32 {
	return p.size
}
