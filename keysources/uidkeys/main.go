// Command uidkeys is a key-source plugin deriving candidate keys from the
// card UID. Build with:
//
//	tinygo build -o plugins/uidkeys.wasm -target=wasi ./keysources/uidkeys
package main

import (
	"github.com/andrei-cloud/go_mfra/pkg/keyplugin"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

//export Alloc
func Alloc(size uint32) uint32 {
	return keyplugin.Alloc(size)
}

//export Free
func Free(ptr uint32) {
	keyplugin.Free(ptr)
}

//export Execute
func Execute(packed uint64) uint64 {
	keyplugin.ResetAllocator()

	ptr, length := keyplugin.UnpackResult(packed)
	if length < mifare.UIDSize {
		keyplugin.LogToHost("uid too short")
		return 0
	}
	uid := keyplugin.ReadBytes(ptr, length)

	return keyplugin.WriteKeys(derive(uid[len(uid)-mifare.UIDSize:]))
}

// derive returns the UID padded with zeroes, the UID padded with FF and
// the UID bytes XORed with their complement pattern.
func derive(uid []byte) []mifare.Key {
	var zero, ones, mixed mifare.Key
	copy(zero[:], uid)
	copy(ones[:], uid)
	ones[4], ones[5] = 0xFF, 0xFF
	for i := range mixed {
		mixed[i] = uid[i%len(uid)] ^ byte(0xA5+i)
	}

	return []mifare.Key{zero, ones, mixed}
}

//export Version
func Version() uint64 {
	return keyplugin.WriteString("1.0.0")
}

//export Description
func Description() uint64 {
	return keyplugin.WriteString("keys derived from the card UID")
}

//export Author
func Author() uint64 {
	return keyplugin.WriteString("go_mfra")
}

func main() {}
