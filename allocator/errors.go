package allocator

import (
	"github.com/pkg/errors"
)

var (
	// ErrInitTooSmall is returned by Init when the region cannot yield
	// even a single minimum block.
	ErrInitTooSmall = errors.New("region too small to hold a single block")

	// ErrRequestTooLarge is returned by Malloc when the requested length
	// exceeds the maximum block size.
	ErrRequestTooLarge = errors.New("requested length exceeds the maximum block size")

	// ErrPoolExhausted is returned by Malloc when no free block exists at
	// or above the required order.
	ErrPoolExhausted = errors.New("no free block at or above the required order")
)
