// internal/editor/geometry/geometry_test.go
package geometry_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
)

const page = `<html><head><style>.component { height: 40px; }</style></head><body>
<div class="sidebar" id="sidebar"></div>
<div class="canvas" id="canvas"><div class="component" id="a"></div><div class="component" id="b"></div></div>
</body></html>`

func newDocument(t *testing.T) *component.Document {
	t.Helper()
	root, err := htmlquery.Parse(strings.NewReader(page))
	require.NoError(t, err)
	doc, err := component.NewDocument(root, component.DefaultClasses(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return doc
}

func element(t *testing.T, doc *component.Document, id string) *html.Node {
	t.Helper()
	n, err := doc.Find("//*[@id='" + id + "']")
	require.NoError(t, err)
	return n.Element()
}

func TestStaticAndFunc(t *testing.T) {
	doc := newDocument(t)
	a := element(t, doc, "a")

	static := geometry.Static{a: {X: 1, Y: 2, Width: 3, Height: 4}}
	r, ok := static.Box(a)
	assert.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 1, Y: 2, Width: 3, Height: 4}, r)
	_, ok = static.Box(element(t, doc, "b"))
	assert.False(t, ok)

	calls := 0
	var q geometry.Query = geometry.Func(func(n *html.Node) (geometry.Rect, bool) {
		calls++
		return geometry.Rect{Y: 10}, true
	})
	r, ok = q.Box(a)
	assert.True(t, ok)
	assert.Equal(t, 10.0, r.Y)
	assert.Equal(t, 1, calls)
}

func TestHitTest(t *testing.T) {
	doc := newDocument(t)
	canvas := element(t, doc, "canvas")
	a := element(t, doc, "a")
	b := element(t, doc, "b")

	q := geometry.Static{
		canvas: {X: 0, Y: 0, Width: 100, Height: 100},
		a:      {X: 0, Y: 0, Width: 100, Height: 40},
		b:      {X: 0, Y: 40, Width: 100, Height: 40},
	}
	tests := []struct {
		name string
		x, y float64
		want *html.Node
	}{
		{"innermost wins", 50, 20, a},
		{"shared edge goes to the later element", 50, 40, b},
		{"container outside children", 50, 90, canvas},
		{"nothing", 500, 500, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, geometry.HitTest(q, doc.Root(), tt.x, tt.y))
		})
	}
	assert.Nil(t, geometry.HitTest(q, nil, 0, 0))
}

func TestLayout(t *testing.T) {
	t.Run("uses embedded styles", func(t *testing.T) {
		doc := newDocument(t)
		q := geometry.NewLayout(doc, 800, 600, nil, zaptest.NewLogger(t))

		a, ok := q.Box(element(t, doc, "a"))
		require.True(t, ok)
		assert.Equal(t, geometry.Rect{X: 8, Y: 8, Width: 784, Height: 40}, a)

		b, ok := q.Box(element(t, doc, "b"))
		require.True(t, ok)
		assert.Equal(t, 48.0, b.Y)
	})

	t.Run("recomputes after mutations", func(t *testing.T) {
		doc := newDocument(t)
		q := geometry.NewLayout(doc, 800, 600, nil, nil)
		bEl := element(t, doc, "b")

		before, _ := q.Box(bEl)
		require.Equal(t, 48.0, before.Y)

		canvas := doc.Canvas().Node()
		b := doc.Node(bEl)
		require.True(t, canvas.InsertBefore(b, canvas.Children()[0]))

		after, ok := q.Box(bEl)
		require.True(t, ok)
		assert.Equal(t, 8.0, after.Y)
	})

	t.Run("detached elements have no box", func(t *testing.T) {
		doc := newDocument(t)
		q := geometry.NewLayout(doc, 800, 600, nil, nil)
		a := doc.Node(element(t, doc, "a"))
		a.Detach()

		_, ok := q.Box(a.Element())
		assert.False(t, ok)
		assert.NotContains(t, q.Boxes(), a.Element())
	})

	t.Run("extra stylesheets apply after embedded ones", func(t *testing.T) {
		doc := newDocument(t)
		q := geometry.NewLayout(doc, 800, 600, []string{"#sidebar { height: 100px; } .component { height: 10px; }"}, nil)

		a, ok := q.Box(element(t, doc, "a"))
		require.True(t, ok)
		assert.Equal(t, 108.0, a.Y)
		assert.Equal(t, 10.0, a.Height)
	})
}

// TestChrome runs against a real headless browser and is skipped when none
// can be started.
func TestChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	doc := newDocument(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	q, err := geometry.NewChrome(ctx, doc, geometry.ChromeOptions{ViewportWidth: 800, ViewportHeight: 600, Timeout: 20 * time.Second}, zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("headless Chrome unavailable: %v", err)
	}
	defer q.Close()

	a, ok := q.Box(element(t, doc, "a"))
	require.True(t, ok)
	assert.InDelta(t, 40.0, a.Height, 0.5)

	b, ok := q.Box(element(t, doc, "b"))
	require.True(t, ok)
	assert.InDelta(t, a.Y+a.Height, b.Y, 0.5)

	// The page follows document mutations.
	canvas := doc.Canvas().Node()
	require.True(t, canvas.InsertBefore(doc.Node(element(t, doc, "b")), canvas.Children()[0]))
	moved, ok := q.Box(element(t, doc, "b"))
	require.True(t, ok)
	assert.InDelta(t, a.Y, moved.Y, 0.5)

	detached := doc.Node(element(t, doc, "a"))
	detached.Detach()
	_, ok = q.Box(detached.Element())
	assert.False(t, ok)
}
