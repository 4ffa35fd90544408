// internal/editor/geometry/geometry.go
package geometry

import (
	"github.com/xkilldash9x/dropzone/internal/browser/layout"
	"golang.org/x/net/html"
)

// Rect is an element's border box in page coordinates.
type Rect = layout.Rect

// Query resolves the geometry of an element on demand. The second result is
// false when the element has no rendered box (detached, display:none, or
// unknown to the backend).
type Query interface {
	Box(n *html.Node) (Rect, bool)
}

// Func adapts a plain function to Query.
type Func func(n *html.Node) (Rect, bool)

func (f Func) Box(n *html.Node) (Rect, bool) { return f(n) }

// Static is a fixed table of boxes.
type Static map[*html.Node]Rect

func (s Static) Box(n *html.Node) (Rect, bool) {
	r, ok := s[n]
	return r, ok
}

// HitTest returns the element under the point: the last element in document
// order whose box contains it, which is the innermost and topmost one for
// normal flow. It returns nil when nothing is hit.
func HitTest(q Query, root *html.Node, x, y float64) *html.Node {
	var hit *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if r, ok := q.Box(n); ok && r.Contains(x, y) {
				hit = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return hit
}
