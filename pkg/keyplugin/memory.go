package keyplugin

import "unsafe"

// ReadBytes reads length bytes from WASM linear memory at ptr.
//
//nolint:gosec // linear memory addresses are plain offsets.
func ReadBytes(ptr, length uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

// WriteBytes writes data into WASM linear memory at ptr.
func WriteBytes(ptr uint32, data []byte) {
	copy(ReadBytes(ptr, uint32(len(data))), data)
}
