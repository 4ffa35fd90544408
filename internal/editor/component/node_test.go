// internal/editor/component/node_test.go
package component_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"golang.org/x/net/html"
)

func ids(nodes []*component.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Attr("id"))
	}
	return out
}

// assertConsistent checks that every element's parent pointer agrees with
// its parent's child list.
func assertConsistent(t *testing.T, n *component.Node) {
	t.Helper()
	for _, child := range n.Children() {
		require.Same(t, n, child.Parent())
		assertConsistent(t, child)
	}
}

func TestNodeNavigation(t *testing.T) {
	doc := newTestDocument(t)
	canvas := doc.Canvas().Node()

	assert.Equal(t, []string{"box1", "form1", "box2", "plain"}, ids(canvas.Children()), "text nodes are skipped")
	assert.Equal(t, "plain", canvas.LastChild().Attr("id"))
	assert.Equal(t, "div", canvas.Tag())

	form := byID(t, doc, "form1").Node()
	assert.Equal(t, "box2", form.NextSibling().Attr("id"))
	assert.Equal(t, "box1", form.PrevSibling().Attr("id"))
	assert.Equal(t, 1, form.Index())
	assert.Nil(t, byID(t, doc, "box1").Node().PrevSibling())
	assert.Nil(t, canvas.LastChild().NextSibling())

	empty := byID(t, doc, "palette-form").Node()
	assert.Nil(t, empty.LastChild())
	assert.Empty(t, empty.Children())

	assert.True(t, canvas.Contains(byID(t, doc, "field").Node()))
	assert.True(t, canvas.Contains(canvas))
	assert.False(t, form.Contains(canvas))
	assert.False(t, form.Contains(nil))

	assert.Same(t, canvas, doc.Node(canvas.Element()), "one Node per element")
	assert.Nil(t, doc.Node(&html.Node{Type: html.TextNode, Data: "x"}))
	assertConsistent(t, doc.Sidebar().Node().Parent())
}

func TestNodeInsertBefore(t *testing.T) {
	t.Run("moves an attached child", func(t *testing.T) {
		doc := newTestDocument(t)
		canvas := doc.Canvas().Node()
		box1 := byID(t, doc, "box1").Node()
		box2 := byID(t, doc, "box2").Node()

		require.True(t, canvas.InsertBefore(box1, canvas.LastChild()))
		assert.Equal(t, []string{"form1", "box2", "box1", "plain"}, ids(canvas.Children()))

		require.True(t, canvas.InsertBefore(box2, nil))
		assert.Equal(t, []string{"form1", "box1", "plain", "box2"}, ids(canvas.Children()))
		assertConsistent(t, canvas)
	})

	t.Run("moves between parents", func(t *testing.T) {
		doc := newTestDocument(t)
		label := byID(t, doc, "label").Node()
		inner := byID(t, doc, "inner").Node()

		require.True(t, inner.InsertBefore(label, nil))
		assert.Same(t, inner, label.Parent())
		assert.Empty(t, byID(t, doc, "box1").Node().Children())
		assertConsistent(t, doc.Canvas().Node())
	})

	t.Run("refuses cycles", func(t *testing.T) {
		doc := newTestDocument(t)
		box2 := byID(t, doc, "box2").Node()
		inner := byID(t, doc, "inner").Node()
		rev := doc.Revision()

		assert.False(t, inner.InsertBefore(box2, nil))
		assert.False(t, box2.InsertBefore(box2, nil))
		assert.Same(t, doc.Canvas().Node(), box2.Parent())
		assert.Equal(t, rev, doc.Revision())
	})

	t.Run("refuses foreign anchors", func(t *testing.T) {
		doc := newTestDocument(t)
		canvas := doc.Canvas().Node()
		box1 := byID(t, doc, "box1").Node()
		assert.False(t, canvas.InsertBefore(box1, byID(t, doc, "inner").Node()))
		assert.False(t, canvas.InsertBefore(nil, nil))
		assert.Equal(t, 0, box1.Index())
	})

	t.Run("anchor equal to child leaves it in place", func(t *testing.T) {
		doc := newTestDocument(t)
		canvas := doc.Canvas().Node()
		form := byID(t, doc, "form1").Node()
		assert.True(t, canvas.InsertBefore(form, form))
		assert.Equal(t, 1, form.Index())
	})

	t.Run("refuses nodes of another document", func(t *testing.T) {
		a := newTestDocument(t)
		b := newTestDocument(t)
		assert.False(t, a.Canvas().Node().InsertBefore(byID(t, b, "box1").Node(), nil))
	})
}

func TestNodeRemoveAndDetach(t *testing.T) {
	doc := newTestDocument(t)
	canvas := doc.Canvas().Node()
	box1 := byID(t, doc, "box1").Node()
	label := byID(t, doc, "label").Node()

	rev := doc.Revision()
	canvas.Remove(label)
	assert.Same(t, box1, label.Parent(), "removing a non-child is a no-op")
	assert.Equal(t, rev, doc.Revision())

	canvas.Remove(box1)
	assert.Nil(t, box1.Parent())
	assert.Equal(t, -1, box1.Index())
	assert.NotContains(t, ids(canvas.Children()), "box1")
	assert.Greater(t, doc.Revision(), rev)

	canvas.Remove(box1)
	box1.Detach()
	assert.Nil(t, box1.Parent())

	label.Detach()
	assert.Nil(t, label.Parent())
	assert.Empty(t, box1.Children())
}

func TestNodeClasses(t *testing.T) {
	doc := newTestDocument(t)
	box := byID(t, doc, "box1").Node()

	assert.True(t, box.HasClass("component"))
	rev := doc.Revision()

	box.AddClass("preview")
	assert.True(t, box.HasClass("preview"))
	assert.Equal(t, "component preview", box.Attr("class"))
	box.AddClass("preview")
	assert.Equal(t, "component preview", box.Attr("class"))

	box.RemoveClass("preview")
	assert.Equal(t, "component", box.Attr("class"))
	assert.Equal(t, rev+2, doc.Revision())

	box.RemoveClass("absent")
	assert.Equal(t, rev+2, doc.Revision())
}

func TestNodeXPath(t *testing.T) {
	doc := newTestDocument(t)

	tests := map[string]string{
		"box1":  `//*[@id='box1']`,
		"field": `//*[@id='field']`,
	}
	for id, want := range tests {
		assert.Equal(t, want, byID(t, doc, id).Node().XPath())
	}

	// Elements without ids anchor on the closest ancestor that has one.
	clone := byID(t, doc, "inner").Clone()
	require.True(t, byID(t, doc, "box2").Node().InsertBefore(clone.Node(), nil))
	xpath := clone.Node().XPath()
	assert.Equal(t, `//*[@id='box2']/div[2]`, xpath)

	found, err := doc.Find(xpath)
	require.NoError(t, err)
	assert.Same(t, clone.Node(), found)

	// Ids holding quotes still produce a valid expression.
	for _, id := range []string{`it's`, `say "hi"`, `it's "quoted"`, `'`} {
		box := byID(t, doc, "box1")
		box.Node().SetAttr("id", id)
		xpath := box.Node().XPath()
		found, err := doc.Find(xpath)
		require.NoError(t, err, xpath)
		assert.Same(t, box.Node(), found, xpath)
		resolved, err := doc.Resolve(xpath)
		require.NoError(t, err, xpath)
		assert.Same(t, box, resolved)
		box.Node().SetAttr("id", "box1")
	}

	body, err := doc.Find("/html/body")
	require.NoError(t, err)
	assert.Equal(t, "/html[1]/body[1]", body.XPath())
}
