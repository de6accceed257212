package plugin

import (
	"bytes"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrei-cloud/go_mfra/internal/plugins"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffold(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	opts := createOptions{desc: `site "B" keys`, version: "0.2.0", author: "ops", dir: "keysources"}
	require.NoError(t, scaffold(fs, "site_b", opts))

	for _, file := range []string{"main.go", "main_test.go"} {
		src, err := afero.ReadFile(fs, filepath.Join("keysources", "site_b", file))
		require.NoError(t, err)

		_, err = parser.ParseFile(token.NewFileSet(), file, src, parser.AllErrors)
		require.NoError(t, err, "generated %s must parse", file)

		if file == "main.go" {
			assert.Contains(t, string(src), `keyplugin.WriteString("0.2.0")`)
			assert.Contains(t, string(src), `keyplugin.WriteString("site 'B' keys")`)
			assert.Contains(t, string(src), "//export Execute")
		}
	}

	err := scaffold(fs, "site_b", opts)
	assert.ErrorContains(t, err, "already exists")
}

func TestScaffoldInvalidName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "Upper", "1st", "with-dash", "../escape"} {
		assert.Error(t, scaffold(afero.NewMemMapFs(), name, createOptions{dir: "keysources"}), name)
	}
}

func TestPrintPlugins(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printPlugins(&buf, []plugins.Info{
		{Name: "uidkeys", Version: "1.0.0", Description: "keys derived from the card UID", Author: "go_mfra"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^uidkeys\s+1\.0\.0\s+keys derived from the card UID\s+go_mfra$`, lines[2])
}
