// File: cmd/simulate_test.go
package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"golang.org/x/net/html"
)

// The sidebar is 100px tall and each component 40px, so with the body margin
// the canvas children start at y = 108, 148 and 188.
const testPage = `<html><head><style>.sidebar { height: 100px; } .component { height: 40px; }</style></head><body>` +
	`<div class="sidebar" id="sidebar"><div class="component" id="palette">Box</div></div>` +
	`<div class="canvas" id="canvas"><div class="component" id="c1">1</div><div class="component" id="c2">2</div><div class="component" id="c3">3</div></div>` +
	`</body></html>`

const reorderScript = `{"events":[
	{"type":"start","target":"//*[@id='c1']"},
	{"type":"over","target":"//*[@id='canvas']","x":20,"y":300},
	{"type":"end"}
]}`

const paletteScript = `{"events":[
	{"type":"start","target":"//*[@id='palette']"},
	{"type":"over","target":"//*[@id='canvas']","x":20,"y":150},
	{"type":"end"}
]}`

func canvasOrder(t *testing.T, root *html.Node) []string {
	t.Helper()
	var ids []string
	for _, n := range htmlquery.Find(root, "//*[@id='canvas']/*") {
		id := htmlquery.SelectAttr(n, "id")
		if id == "" {
			id = "<" + n.Data + ">"
		}
		ids = append(ids, id)
	}
	return ids
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", testPage)

	t.Run("reorder written to a file", func(t *testing.T) {
		script := writeFile(t, dir, "reorder.json", reorderScript)
		outPath := dir + "/out.html"

		out, err := executeCommand(t, "simulate", "--page", page, "--script", script, "--out", outPath)
		require.NoError(t, err)
		assert.Empty(t, out)

		f, err := os.Open(outPath)
		require.NoError(t, err)
		defer f.Close()
		root, err := htmlquery.Parse(f)
		require.NoError(t, err)
		assert.Equal(t, []string{"c2", "c3", "c1"}, canvasOrder(t, root))
	})

	t.Run("palette drop written to stdout", func(t *testing.T) {
		script := writeFile(t, dir, "palette.json", paletteScript)

		out, err := executeCommand(t, "simulate", "--page", page, "--script", script)
		require.NoError(t, err)

		root, err := htmlquery.Parse(strings.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "<div>", "c2", "c3"}, canvasOrder(t, root))
		assert.NotContains(t, out, "preview")
		assert.Contains(t, out, `draggable="true"`)
	})

	t.Run("unfinished drag is abandoned", func(t *testing.T) {
		script := writeFile(t, dir, "open.json", `{"events":[
			{"type":"start","target":"//*[@id='c1']"},
			{"type":"over","target":"//*[@id='canvas']","x":20,"y":300}
		]}`)

		out, err := executeCommand(t, "simulate", "--page", page, "--script", script)
		require.NoError(t, err)
		root, err := htmlquery.Parse(strings.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2", "c3"}, canvasOrder(t, root))
	})
}

func TestSimulateErrors(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", testPage)
	script := writeFile(t, dir, "reorder.json", reorderScript)

	t.Run("required flags", func(t *testing.T) {
		_, err := executeCommand(t, "simulate", "--page", page)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `required flag(s) "script" not set`)
	})

	t.Run("missing script", func(t *testing.T) {
		_, err := executeCommand(t, "simulate", "--page", page, "--script", dir+"/missing.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open gesture script")
	})

	t.Run("page without a canvas", func(t *testing.T) {
		bare := writeFile(t, dir, "bare.html", `<html><body><div class="sidebar"></div></body></html>`)
		_, err := executeCommand(t, "simulate", "--page", bare, "--script", script)
		assert.ErrorIs(t, err, component.ErrNoCanvas)
	})

	t.Run("unknown target", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.json", `{"events":[{"type":"start","target":"//*[@id='nope']"}]}`)
		_, err := executeCommand(t, "simulate", "--page", page, "--script", bad)
		assert.ErrorIs(t, err, component.ErrNotFound)
	})

	t.Run("invalid geometry flag", func(t *testing.T) {
		_, err := executeCommand(t, "simulate", "--page", page, "--script", script, "--geometry", "paper")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gesture.geometry")
	})
}

func TestSimulateCustomClasses(t *testing.T) {
	dir := t.TempDir()
	renamed := strings.NewReplacer(`class="canvas"`, `class="board"`, `class="sidebar"`, `class="palette"`, ".sidebar", ".palette").Replace(testPage)
	page := writeFile(t, dir, "page.html", renamed)
	script := writeFile(t, dir, "reorder.json", reorderScript)
	cfg := writeFile(t, dir, "dropzone.yaml", "editor:\n  canvas_class: board\n  sidebar_class: palette\n")

	out, err := executeCommand(t, "simulate", "--config", cfg, "--page", page, "--script", script)
	require.NoError(t, err)
	root, err := htmlquery.Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3", "c1"}, canvasOrder(t, root))
}
