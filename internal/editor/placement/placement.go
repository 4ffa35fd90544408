// internal/editor/placement/placement.go
package placement

import (
	"math"

	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"golang.org/x/net/html"
)

// Resolver picks insertion points by geometric proximity.
type Resolver struct {
	geometry   geometry.Query
	horizontal bool
}

// NewResolver returns a resolver over q. By default distance only measures
// the vertical offset; horizontalDistance makes it a true 2-D distance.
func NewResolver(q geometry.Query, horizontalDistance bool) *Resolver {
	return &Resolver{geometry: q, horizontal: horizontalDistance}
}

// candidate is one insertion point: before node, or the end of the list
// when node is nil.
type candidate struct {
	node *component.Node
	x, y float64
}

// ClosestPosition returns the child of receiver the moving node should be
// inserted before to land nearest the cursor, or nil to append. The moving
// node itself is never a candidate. Ties go to the earlier candidate.
func (r *Resolver) ClosestPosition(receiver, moving *component.Node, x, y float64) *component.Node {
	if receiver == nil {
		return nil
	}
	var candidates []candidate
	for _, child := range receiver.Children() {
		if child == moving {
			continue
		}
		cx, cy := r.ElementXY(child.Element())
		candidates = append(candidates, candidate{node: child, x: cx, y: cy})
	}
	candidates = append(candidates, r.endOfList(receiver))

	best := candidates[0]
	bestDistance := r.distance(best.x, best.y, x, y)
	for _, c := range candidates[1:] {
		if d := r.distance(c.x, c.y, x, y); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best.node
}

// endOfList places the append slot right below the last child, or on the
// receiver itself when it has no children.
func (r *Resolver) endOfList(receiver *component.Node) candidate {
	last := receiver.LastChild()
	if last == nil {
		x, y := r.ElementXY(receiver.Element())
		return candidate{x: x, y: y}
	}
	box, _ := r.box(last.Element())
	return candidate{x: box.X, y: box.Y + box.Height}
}

// ElementXY returns the page coordinates of the element's top-left corner.
// Elements without geometry sit at the origin.
func (r *Resolver) ElementXY(n *html.Node) (x, y float64) {
	box, _ := r.box(n)
	return box.X, box.Y
}

// DistanceToElement measures from the element's top-left corner to the point.
func (r *Resolver) DistanceToElement(n *html.Node, x, y float64) float64 {
	ex, ey := r.ElementXY(n)
	return r.distance(ex, ey, x, y)
}

func (r *Resolver) distance(ex, ey, x, y float64) float64 {
	dx := 0.0
	if r.horizontal {
		dx = x - ex
	}
	return math.Hypot(dx, y-ey)
}

func (r *Resolver) box(n *html.Node) (geometry.Rect, bool) {
	if n == nil || r.geometry == nil {
		return geometry.Rect{}, false
	}
	return r.geometry.Box(n)
}
