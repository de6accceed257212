package keyplugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The allocator is package state, so these tests do not run in parallel.

func TestResetAllocator(t *testing.T) {
	ResetAllocator()
	assert.Equal(t, uint32(8), Alloc(1))

	ResetAllocator()
	assert.Equal(t, uint32(8), Alloc(24))
}

func TestAllocAlignment(t *testing.T) {
	ResetAllocator()

	ptr1 := Alloc(5)
	ptr2 := Alloc(3)
	ptr3 := Alloc(16)

	assert.Zero(t, ptr2%8)
	assert.Equal(t, ptr1+8, ptr2)
	assert.Equal(t, ptr2+8, ptr3)
}
