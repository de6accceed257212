package plugins

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// hostFunctions is the env module offered to plugins.
type hostFunctions struct {
	builder wazero.HostModuleBuilder
	log     zerolog.Logger
}

func newHostFunctions(rt wazero.Runtime, log zerolog.Logger) *hostFunctions {
	return &hostFunctions{
		builder: rt.NewHostModuleBuilder("env"),
		log:     log.With().Str("source", "wasm").Logger(),
	}
}

func (h *hostFunctions) register(ctx context.Context) error {
	h.builder.NewFunctionBuilder().
		WithFunc(h.logAt(zerolog.DebugLevel)).
		Export("log_debug")

	h.builder.NewFunctionBuilder().
		WithFunc(h.logAt(zerolog.InfoLevel)).
		Export("log_info")

	h.builder.NewFunctionBuilder().
		WithFunc(h.logAt(zerolog.ErrorLevel)).
		Export("log_error")

	if _, err := h.builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate host functions module: %w", err)
	}

	return nil
}

func (h *hostFunctions) logAt(level zerolog.Level) func(context.Context, api.Module, uint32, uint32) {
	return func(_ context.Context, mod api.Module, ptr, size uint32) {
		data, ok := mod.Memory().Read(ptr, size)
		if !ok {
			h.log.Error().
				Uint32("ptr", ptr).
				Uint32("size", size).
				Msg("failed to read plugin log message")
			return
		}

		h.log.WithLevel(level).
			Str("plugin", mod.Name()).
			Msg(string(data))
	}
}
