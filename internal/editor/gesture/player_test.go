// internal/editor/gesture/player_test.go
package gesture_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"github.com/xkilldash9x/dropzone/internal/editor/gesture"
	"github.com/xkilldash9x/dropzone/internal/editor/placement"
	"github.com/xkilldash9x/dropzone/internal/editor/session"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const page = `<html><body>` +
	`<div class="sidebar" id="sidebar"><div class="component" id="palette">Box</div></div>` +
	`<div class="canvas" id="canvas"><div class="component" id="c1"></div><div class="component" id="c2"></div><div class="component" id="c3"></div></div>` +
	`</body></html>`

type env struct {
	doc   *component.Document
	ctrl  *session.Controller
	boxes geometry.Static
}

// newEnv lays the sidebar out above the canvas: the palette item fills the
// top of the sidebar and c1..c3 stack from y=100 in 40px rows.
func newEnv(t *testing.T, logger *zap.Logger) *env {
	t.Helper()
	root, err := htmlquery.Parse(strings.NewReader(page))
	require.NoError(t, err)
	doc, err := component.NewDocument(root, component.DefaultClasses(), logger)
	require.NoError(t, err)

	e := &env{doc: doc, boxes: geometry.Static{}}
	rows := map[string]geometry.Rect{
		"sidebar": {X: 0, Y: 0, Width: 100, Height: 100},
		"palette": {X: 0, Y: 0, Width: 100, Height: 40},
		"canvas":  {X: 0, Y: 100, Width: 100, Height: 120},
		"c1":      {X: 0, Y: 100, Width: 100, Height: 40},
		"c2":      {X: 0, Y: 140, Width: 100, Height: 40},
		"c3":      {X: 0, Y: 180, Width: 100, Height: 40},
	}
	for id, r := range rows {
		e.boxes[e.get(t, id).Element()] = r
	}
	e.ctrl = session.NewController(placement.NewResolver(e.boxes, false), logger)
	return e
}

func (e *env) get(t *testing.T, id string) *component.Component {
	t.Helper()
	n, err := e.doc.Find("//*[@id='" + id + "']")
	require.NoError(t, err)
	require.NotNil(t, n.Component())
	return n.Component()
}

func (e *env) player(opts gesture.Options, logger *zap.Logger) *gesture.Player {
	return gesture.NewPlayer(e.doc, e.ctrl, e.boxes, opts, logger)
}

func (e *env) render(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.doc.Render(&buf))
	return buf.String()
}

type entry struct {
	Kind     string
	ID       string
	Children []entry
}

// outline lists the components under n, skipping plain elements.
func outline(n *component.Node) []entry {
	var out []entry
	for _, child := range n.Children() {
		if c := child.Component(); c != nil {
			out = append(out, entry{Kind: c.Kind().String(), ID: child.Attr("id"), Children: outline(child)})
			continue
		}
		out = append(out, outline(child)...)
	}
	return out
}

func load(t *testing.T, src string) *gesture.Script {
	t.Helper()
	s, err := gesture.LoadScript(strings.NewReader(src))
	require.NoError(t, err)
	return s
}

func TestPlayExplicitEvents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	e := newEnv(t, logger)
	palette := e.get(t, "palette")

	script := load(t, fmt.Sprintf(`{"events":[
		{"type":"start","target":"#%s"},
		{"type":"over","target":"//*[@id='canvas']","x":50,"y":142},
		{"type":"end","target":"#%s"}
	]}`, palette.ID(), palette.ID()))

	stats, err := e.player(gesture.Options{}, logger).Play(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, gesture.Stats{Dispatched: 3}, stats)

	want := []entry{
		{Kind: "generic", ID: "c1"},
		{Kind: "generic"},
		{Kind: "generic", ID: "c2"},
		{Kind: "generic", ID: "c3"},
	}
	if diff := cmp.Diff(want, outline(e.doc.Canvas().Node())); diff != "" {
		t.Errorf("canvas outline mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayHitTestsUntargetedOvers(t *testing.T) {
	logger := zaptest.NewLogger(t)
	e := newEnv(t, logger)

	script := load(t, `{"events":[
		{"type":"start","target":"//*[@id='c1']"},
		{"type":"over","x":50,"y":215},
		{"type":"over","x":500,"y":500},
		{"type":"end"}
	]}`)

	stats, err := e.player(gesture.Options{}, logger).Play(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, gesture.Stats{Dispatched: 3, Skipped: 1}, stats)

	// c3 is generic, so the hit component itself receives c1.
	want := []entry{
		{Kind: "generic", ID: "c2"},
		{Kind: "generic", ID: "c3", Children: []entry{{Kind: "generic", ID: "c1"}}},
	}
	if diff := cmp.Diff(want, outline(e.doc.Canvas().Node())); diff != "" {
		t.Errorf("canvas outline mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayTargetWithoutPointUsesItsCenter(t *testing.T) {
	logger := zaptest.NewLogger(t)
	e := newEnv(t, logger)

	script := load(t, `{"events":[
		{"type":"start","target":"//*[@id='c3']"},
		{"type":"over","target":"//*[@id='canvas']"},
		{"type":"end"}
	]}`)
	_, err := e.player(gesture.Options{}, logger).Play(context.Background(), script)
	require.NoError(t, err)

	// The canvas center (y=160) is closest to c2's top.
	want := []entry{
		{Kind: "generic", ID: "c1"},
		{Kind: "generic", ID: "c3"},
		{Kind: "generic", ID: "c2"},
	}
	if diff := cmp.Diff(want, outline(e.doc.Canvas().Node())); diff != "" {
		t.Errorf("canvas outline mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayDrag(t *testing.T) {
	logger := zaptest.NewLogger(t)
	e := newEnv(t, logger)

	// From the palette center (50,20) to the c3 center (50,200) in four eased
	// steps: y = 31.25 (palette), 110 (c1), 188.75 (c3), 200 (c3).
	script := load(t, `{"events":[{"type":"drag","from":"//*[@id='palette']","to":"//*[@id='c3']","steps":4}]}`)
	stats, err := e.player(gesture.Options{}, logger).Play(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, gesture.Stats{Dispatched: 6}, stats)

	want := []entry{
		{Kind: "generic", ID: "c1"},
		{Kind: "generic", ID: "c2"},
		{Kind: "generic", ID: "c3", Children: []entry{{Kind: "generic"}}},
	}
	if diff := cmp.Diff(want, outline(e.doc.Canvas().Node())); diff != "" {
		t.Errorf("canvas outline mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, htmlquery.Find(e.doc.Root(), "//*[contains(@class, 'preview')]"))
	assert.False(t, e.ctrl.Session().Active())
}

func TestPlayErrors(t *testing.T) {
	t.Run("unknown target abandons the drag", func(t *testing.T) {
		e := newEnv(t, zap.NewNop())
		before := e.render(t)
		script := load(t, `{"events":[
			{"type":"start","target":"//*[@id='palette']"},
			{"type":"over","target":"//*[@id='canvas']","x":50,"y":150},
			{"type":"over","target":"#missing","x":0,"y":0}
		]}`)

		stats, err := e.player(gesture.Options{}, nil).Play(context.Background(), script)
		assert.ErrorIs(t, err, component.ErrNotFound)
		assert.Equal(t, 2, stats.Dispatched)
		assert.False(t, e.ctrl.Session().Active())
		assert.Equal(t, before, e.render(t))
	})

	t.Run("cancelled context", func(t *testing.T) {
		e := newEnv(t, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.player(gesture.Options{}, nil).Play(ctx, load(t, `{"events":[{"type":"end"}]}`))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPlayPacing(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newEnv(t, zap.NewNop())
	script := load(t, `{"events":[
		{"type":"start","target":"//*[@id='c1']"},
		{"type":"over","target":"//*[@id='canvas']","x":50,"y":215},
		{"type":"end"}
	]}`)

	t.Run("paced replay completes", func(t *testing.T) {
		_, err := e.player(gesture.Options{EventsPerSecond: 200}, nil).Play(context.Background(), script)
		require.NoError(t, err)
		assert.Equal(t, "c1", e.doc.Canvas().Node().LastChild().Attr("id"))
	})

	t.Run("deadline stops a slow replay", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		stats, err := e.player(gesture.Options{EventsPerSecond: 1}, nil).Play(ctx, script)
		assert.Error(t, err)
		assert.Equal(t, 1, stats.Dispatched)
		assert.False(t, e.ctrl.Session().Active())
	})
}
