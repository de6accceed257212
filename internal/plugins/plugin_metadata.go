package plugins

import (
	"github.com/andrei-cloud/go_mfra/pkg/keyplugin"
	"github.com/tetratelabs/wazero/api"
)

const notAvailable = "N/A"

// GetPluginInstance returns a loaded plugin by name.
func (pm *Manager) GetPluginInstance(name string) *Instance {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.plugins[name]
}

// GetPluginMetadata calls the optional metadata exports of a plugin.
func (pm *Manager) GetPluginMetadata(name string) (version, description, author string) {
	inst := pm.GetPluginInstance(name)
	if inst == nil {
		pm.log.Debug().Str("plugin", name).Msg("plugin instance not found")
		return notAvailable, "Error: Plugin not loaded", notAvailable
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	return pm.metaString(inst, inst.VersionFn),
		pm.metaString(inst, inst.DescriptionFn),
		pm.metaString(inst, inst.AuthorFn)
}

func (pm *Manager) metaString(inst *Instance, fn api.Function) string {
	if fn == nil {
		return notAvailable
	}

	results, err := fn.Call(pm.ctx)
	if err != nil || len(results) == 0 {
		return notAvailable
	}

	ptr, size := keyplugin.UnpackResult(results[0])
	if size == 0 {
		return notAvailable
	}
	b, ok := inst.Module.Memory().Read(ptr, size)
	if !ok {
		return notAvailable
	}

	return string(b)
}
