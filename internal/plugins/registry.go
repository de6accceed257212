package plugins

// Info describes a loaded plugin.
type Info struct {
	Name        string
	Version     string
	Description string
	Author      string
}

// List returns the metadata of every loaded plugin, ordered by name.
func (pm *Manager) List() []Info {
	names := pm.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		v, d, a := pm.GetPluginMetadata(name)
		infos = append(infos, Info{Name: name, Version: v, Description: d, Author: a})
	}

	return infos
}
