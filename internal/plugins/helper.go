package plugins

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_mfra/pkg/keyplugin"
	"github.com/tetratelabs/wazero/api"
)

// allocAndWrite allocates guest memory via the Alloc export and copies data
// into it.
func allocAndWrite(
	ctx context.Context,
	mod api.Module,
	alloc api.Function,
	data []byte,
) (uint32, error) {
	if len(data) == 0 {
		return 0, errors.New("buffer length is zero")
	}

	results, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("alloc failed: %w", err)
	}
	if len(results) < 1 {
		return 0, errors.New("alloc returned no results")
	}

	ptr := api.DecodeU32(results[0])
	if !mod.Memory().Write(ptr, data) {
		return 0, errors.New("memory write failed: bounds exceeded")
	}

	return ptr, nil
}

// callExecute invokes Execute with the packed pointer and length.
func callExecute(ctx context.Context, exec api.Function, ptr, length uint32) (uint64, error) {
	results, err := exec.Call(ctx, keyplugin.PackResult(ptr, length))
	if err != nil {
		return 0, fmt.Errorf("execution failed: %w", err)
	}
	if len(results) < 1 {
		return 0, errors.New("invalid execution result")
	}

	return results[0], nil
}

// readResult copies the packed pointer/length region out of guest memory.
func readResult(mod api.Module, packed uint64) ([]byte, error) {
	ptr, length := keyplugin.UnpackResult(packed)
	if length == 0 {
		return nil, nil
	}

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, errors.New("memory read failed: bounds exceeded")
	}

	return append([]byte(nil), data...), nil
}
