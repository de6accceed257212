// Package plugins hosts WASM key-source plugins.
package plugins

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Manager loads key-source plugins and queries them for candidate keys.
type Manager struct {
	//nolint:containedctx // reused across plugin calls.
	ctx     context.Context
	fs      afero.Fs
	log     zerolog.Logger
	runtime wazero.Runtime
	plugins map[string]*Instance
	mu      sync.RWMutex
}

// Instance holds a loaded plugin module and its exports.
type Instance struct {
	Module        api.Module
	Alloc         api.Function
	Free          api.Function
	ExecuteFn     api.Function
	VersionFn     api.Function
	DescriptionFn api.Function
	AuthorFn      api.Function
	mu            sync.Mutex
}

// NewManager returns a Manager reading plugins from fsys.
func NewManager(ctx context.Context, fsys afero.Fs, log zerolog.Logger) *Manager {
	return &Manager{
		ctx:     ctx,
		fs:      fsys,
		log:     log,
		plugins: make(map[string]*Instance),
	}
}

// LoadAll replaces the loaded plugins with the .wasm modules in dir. A missing
// directory leaves the manager empty. Modules that fail to load are skipped.
func (pm *Manager) LoadAll(dir string) error {
	files, err := afero.ReadDir(pm.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pm.log.Debug().Str("dir", dir).Msg("plugin directory not found")
			return nil
		}
		return fmt.Errorf("read plugin dir: %w", err)
	}

	rt := wazero.NewRuntime(pm.ctx)
	wasi_snapshot_preview1.MustInstantiate(pm.ctx, rt)

	if err := newHostFunctions(rt, pm.log).register(pm.ctx); err != nil {
		_ = rt.Close(pm.ctx)
		return err
	}

	loaded := make(map[string]*Instance)
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".wasm" {
			continue
		}

		name := strings.TrimSuffix(f.Name(), ".wasm")
		inst, err := pm.load(rt, name, filepath.Join(dir, f.Name()))
		if err != nil {
			pm.log.Error().Err(err).Str("file", f.Name()).Msg("failed to load plugin")
			continue
		}

		loaded[name] = inst
		pm.log.Info().Str("plugin", name).Msg("loaded wasm plugin")
	}

	pm.mu.Lock()
	if pm.runtime != nil {
		if err := pm.runtime.Close(pm.ctx); err != nil {
			pm.log.Error().Err(err).Msg("failed to close previous runtime")
		}
	}
	pm.runtime = rt
	pm.plugins = loaded
	pm.mu.Unlock()

	return nil
}

func (pm *Manager) load(rt wazero.Runtime, name, path string) (*Instance, error) {
	wasm, err := afero.ReadFile(pm.fs, path)
	if err != nil {
		return nil, err
	}

	compiled, err := rt.CompileModule(pm.ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions()

	mod, err := rt.InstantiateModule(pm.ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}

	inst := &Instance{
		Module:        mod,
		Alloc:         mod.ExportedFunction("Alloc"),
		Free:          mod.ExportedFunction("Free"),
		ExecuteFn:     mod.ExportedFunction("Execute"),
		VersionFn:     mod.ExportedFunction("Version"),
		DescriptionFn: mod.ExportedFunction("Description"),
		AuthorFn:      mod.ExportedFunction("Author"),
	}
	for export, fn := range map[string]api.Function{
		"Alloc":   inst.Alloc,
		"Free":    inst.Free,
		"Execute": inst.ExecuteFn,
	} {
		if fn == nil {
			_ = mod.Close(pm.ctx)
			return nil, fmt.Errorf("missing %s export", export)
		}
	}

	return inst, nil
}

// Names returns the loaded plugin names in order.
func (pm *Manager) Names() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Execute runs the named plugin with input and returns its output.
func (pm *Manager) Execute(name string, input []byte) ([]byte, error) {
	pm.mu.RLock()
	inst, ok := pm.plugins[name]
	pm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", name, errorcodes.ErrNotFound)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	ptr, err := allocAndWrite(pm.ctx, inst.Module, inst.Alloc, input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := inst.Free.Call(pm.ctx, uint64(ptr)); err != nil {
			pm.log.Debug().Err(err).Str("plugin", name).Msg("free failed")
		}
	}()

	packed, err := callExecute(pm.ctx, inst.ExecuteFn, ptr, uint32(len(input)))
	if err != nil {
		return nil, err
	}

	out, err := readResult(inst.Module, packed)
	if err != nil {
		return nil, err
	}

	pm.log.Debug().
		Str("event", "plugin_response").
		Str("plugin", name).
		Str("response_hex", hex.EncodeToString(out)).
		Msg("plugin execution response")

	return out, nil
}

// CandidateKeys asks every plugin for keys derived from uid. A plugin that
// fails is logged and skipped.
func (pm *Manager) CandidateKeys(uid []byte) ([]mifare.Key, error) {
	var keys []mifare.Key
	for _, name := range pm.Names() {
		out, err := pm.Execute(name, uid)
		if err == nil {
			var ks []mifare.Key
			if ks, err = parseKeys(out); err == nil {
				keys = append(keys, ks...)
				continue
			}
		}
		pm.log.Warn().Err(err).Str("plugin", name).Msg("key source plugin failed")
	}

	return keys, nil
}

func parseKeys(out []byte) ([]mifare.Key, error) {
	if len(out)%mifare.KeySize != 0 {
		return nil, fmt.Errorf("plugin returned %d bytes: %w", len(out), errorcodes.ErrFormat)
	}

	keys := make([]mifare.Key, 0, len(out)/mifare.KeySize)
	for i := 0; i < len(out); i += mifare.KeySize {
		var k mifare.Key
		copy(k[:], out[i:])
		keys = append(keys, k)
	}

	return keys, nil
}

// Close closes the underlying WASM runtime.
func (pm *Manager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.runtime == nil {
		return nil
	}
	err := pm.runtime.Close(pm.ctx)
	pm.runtime = nil
	pm.plugins = map[string]*Instance{}

	return err
}
