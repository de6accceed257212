package plugin

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type createOptions struct {
	desc    string
	version string
	author  string
	dir     string
	build   bool
}

var validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new key-source plugin",
		Long: `Create a new key-source plugin. This will:
1. Create the plugin source with the required exports
2. Create a test for the key derivation
3. Optionally build the WASM module into plugin.path with tinygo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scaffold(afero.NewOsFs(), args[0], opts); err != nil {
				return err
			}
			if opts.build {
				if err := build(args[0], opts.dir); err != nil {
					return fmt.Errorf("failed to build plugin: %w", err)
				}
			}
			cmd.Printf("Successfully created plugin %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.desc, "desc", "d", "", "Plugin description")
	cmd.Flags().StringVarP(&opts.version, "version", "v", "0.1.0", "Plugin version")
	cmd.Flags().StringVarP(&opts.author, "author", "a", "go_mfra", "Plugin author")
	cmd.Flags().StringVar(&opts.dir, "dir", "keysources", "directory holding plugin sources")
	cmd.Flags().BoolVar(&opts.build, "build", false, "build the plugin with tinygo")

	return cmd
}

var mainTemplate = template.Must(template.New("main").Parse(`// Command {{.Name}} is a key-source plugin.
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
		return 0
	}

	return keyplugin.WriteKeys(derive(keyplugin.ReadBytes(ptr, length)))
}

// derive returns the candidate keys for uid.
func derive(uid []byte) []mifare.Key {
	keyplugin.LogToHost("{{.Name}}: derive keys")

	var k mifare.Key
	copy(k[:], uid)

	return []mifare.Key{k}
}

//export Version
func Version() uint64 {
	return keyplugin.WriteString("{{.Version}}")
}

//export Description
func Description() uint64 {
	return keyplugin.WriteString("{{.Desc}}")
}

//export Author
func Author() uint64 {
	return keyplugin.WriteString("{{.Author}}")
}

func main() {}
`))

var testTemplate = template.Must(template.New("test").Parse(`package main

import (
	"testing"

	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	keys := derive([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, []mifare.Key{ {0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00} }, keys)
}
`))

// scaffold writes the plugin sources under dir/name.
func scaffold(fs afero.Fs, name string, opts createOptions) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("plugin name %q must be lower case letters, digits or underscores", name)
	}

	dir := filepath.Join(opts.dir, name)
	if ok, _ := afero.DirExists(fs, dir); ok {
		return fmt.Errorf("plugin directory %s already exists", dir)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}

	data := struct {
		Name, Version, Desc, Author string
	}{
		Name:    name,
		Version: opts.version,
		Desc:    strings.ReplaceAll(opts.desc, `"`, `'`),
		Author:  strings.ReplaceAll(opts.author, `"`, `'`),
	}

	for file, tmpl := range map[string]*template.Template{
		"main.go":      mainTemplate,
		"main_test.go": testTemplate,
	} {
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return fmt.Errorf("render %s: %w", file, err)
		}
		if err := afero.WriteFile(fs, filepath.Join(dir, file), []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", file, err)
		}
	}

	return nil
}

func build(name, dir string) error {
	if _, err := exec.LookPath("tinygo"); err != nil {
		return errors.New("tinygo not found in PATH")
	}

	out := filepath.Join(config.Get().Plugin.Path, name+".wasm")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	c := exec.Command("tinygo", "build", "-o", out, "-target=wasi", "./"+filepath.Join(dir, name))
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	return c.Run()
}
