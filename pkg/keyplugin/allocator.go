// Package keyplugin provides the guest side helpers for key-source plugins.
package keyplugin

const heapStart = 8

var nextPtr uint32 = heapStart

// ResetAllocator releases every allocation at once. Plugins call it at the
// start of each Execute.
func ResetAllocator() {
	nextPtr = heapStart
}

// Alloc allocates n bytes with 8-byte alignment and returns the starting pointer.
func Alloc(n uint32) uint32 {
	ptr := nextPtr
	padding := (8 - n%8) % 8
	nextPtr += n + padding

	return ptr
}

// Free is a no-op; memory is reclaimed by ResetAllocator.
func Free(ptr uint32) {
	_ = ptr
}
