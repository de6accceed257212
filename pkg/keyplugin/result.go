package keyplugin

import "github.com/andrei-cloud/go_mfra/pkg/mifare"

// PackResult combines a pointer and a length into a single uint64 result.
func PackResult(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// UnpackResult splits a packed result into pointer and length.
func UnpackResult(v uint64) (ptr, length uint32) {
	return uint32(v >> 32), uint32(v)
}

// EncodeKeys concatenates keys into the Execute output format.
func EncodeKeys(keys []mifare.Key) []byte {
	out := make([]byte, 0, len(keys)*mifare.KeySize)
	for _, k := range keys {
		out = append(out, k[:]...)
	}

	return out
}

// WriteKeys allocates guest memory for keys and returns the packed result.
func WriteKeys(keys []mifare.Key) uint64 {
	data := EncodeKeys(keys)
	if len(data) == 0 {
		return 0
	}

	ptr := Alloc(uint32(len(data)))
	WriteBytes(ptr, data)

	return PackResult(ptr, uint32(len(data)))
}

// WriteString allocates guest memory for s and returns the packed result.
// Used by the Version, Description and Author exports.
func WriteString(s string) uint64 {
	if s == "" {
		return 0
	}

	ptr := Alloc(uint32(len(s)))
	WriteBytes(ptr, []byte(s))

	return PackResult(ptr, uint32(len(s)))
}
