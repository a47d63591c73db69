package allocator

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

func ceilLog2[T constraints.Unsigned](v T) uint32 {
	if v <= 1 {
		return 0
	}
	return uint32(bits.Len64(uint64(v) - 1))
}

func floorLog2[T constraints.Unsigned](v T) uint32 {
	return uint32(bits.Len64(uint64(v))) - 1
}

func alignDown[T constraints.Unsigned](v T, align T) T {
	return v &^ (align - 1)
}

func alignUp[T constraints.Unsigned](v T, align T) T {
	return (v + align - 1) &^ (align - 1)
}
