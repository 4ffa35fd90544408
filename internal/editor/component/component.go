// internal/editor/component/component.go
package component

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

type previewMode int

const (
	previewNone previewMode = iota
	previewSelf
	previewClone
)

// previewSlot holds the live preview of an in-flight drag. A self preview
// remembers where the component was so a cancelled drop can put it back.
type previewSlot struct {
	mode       previewMode
	clone      *Component
	originPrnt *Node
	originNext *Node
}

// Component pairs a Node with the drag and containment policy of its kind.
type Component struct {
	id      uuid.UUID
	kind    Kind
	policy  policy
	node    *Node
	preview previewSlot
	target  *Component
}

// ID returns the component's unique identifier.
func (c *Component) ID() string { return c.id.String() }

func (c *Component) Kind() Kind { return c.kind }

func (c *Component) Node() *Node { return c.node }

func (c *Component) Element() *html.Node { return c.node.el }

func (c *Component) logger() *zap.Logger { return c.node.doc.logger }

// Target returns the ancestor currently willing to receive this component's
// preview, or nil.
func (c *Component) Target() *Component { return c.target }

// SetTarget records the receiving ancestor; nil clears it.
func (c *Component) SetTarget(t *Component) { c.target = t }

// CanBeDragged is false for the canvas and the sidebar.
func (c *Component) CanBeDragged() bool { return c.policy.canBeDragged() }

// CanAdopt reports whether candidate may become a child of c.
func (c *Component) CanAdopt(candidate *Component) bool {
	if candidate == nil {
		return false
	}
	return c.policy.canAdopt(c, candidate)
}

// DroppableTarget returns the closest component, starting at c and walking
// up the element tree, that can adopt candidate. The walk stops at the root
// and at the first ancestor element that is not a component.
func (c *Component) DroppableTarget(candidate *Component) *Component {
	for cur := c; cur != nil; {
		if cur.CanAdopt(candidate) {
			return cur
		}
		parent := cur.node.Parent()
		if parent == nil {
			return nil
		}
		cur = parent.Component()
	}
	return nil
}

// InSidebar reports whether the component sits directly in the sidebar.
func (c *Component) InSidebar() bool {
	parent := c.node.Parent()
	return parent != nil && parent.HasClass(c.node.doc.classes.Sidebar)
}

// IsPreview reports whether the element is marked as an unfinalized preview.
func (c *Component) IsPreview() bool {
	return c.node.HasClass(c.node.doc.classes.Preview)
}

// Preview returns the live preview for the current drag, creating it on the
// first call. Palette items preview through a marked clone; anything else is
// its own preview.
func (c *Component) Preview() *Component {
	if c.preview.mode == previewClone {
		return c.preview.clone
	}
	if c.InSidebar() {
		clone := c.Clone()
		clone.node.AddClass(c.node.doc.classes.Preview)
		c.preview = previewSlot{mode: previewClone, clone: clone}
		c.logger().Debug("Created preview clone.",
			zap.String("component", c.ID()), zap.String("preview", clone.ID()))
		return clone
	}
	if c.preview.mode == previewNone {
		c.preview = previewSlot{mode: previewSelf, originPrnt: c.node.Parent(), originNext: c.node.NextSibling()}
	}
	return c
}

// Previewed returns the current preview without creating one.
func (c *Component) Previewed() *Component {
	switch c.preview.mode {
	case previewClone:
		return c.preview.clone
	case previewSelf:
		return c
	default:
		return nil
	}
}

// Finalize commits the preview where it currently stands.
func (c *Component) Finalize() {
	if p := c.Previewed(); p != nil {
		p.node.RemoveClass(c.node.doc.classes.Preview)
	}
	c.preview = previewSlot{}
}

// Destroy detaches the component's node from its parent.
func (c *Component) Destroy() {
	c.node.Detach()
}

// HidePreview takes the preview out of the tree while the drag goes on. A
// clone is detached but stays cached, so the drag keeps one preview for its
// whole duration; a self preview goes back to where the drag started.
func (c *Component) HidePreview() {
	switch c.preview.mode {
	case previewClone:
		c.preview.clone.Destroy()
	case previewSelf:
		c.restoreOrigin()
		c.preview = previewSlot{}
	}
}

// DiscardPreview cancels the in-flight preview. A clone is destroyed and
// forgotten; a self preview goes back to where the drag started.
func (c *Component) DiscardPreview() {
	switch c.preview.mode {
	case previewClone:
		clone := c.preview.clone
		clone.Destroy()
		c.node.doc.release(clone.node)
		c.logger().Debug("Discarded preview clone.", zap.String("component", c.ID()))
	case previewSelf:
		c.restoreOrigin()
	}
	c.preview = previewSlot{}
}

func (c *Component) restoreOrigin() {
	parent, next := c.preview.originPrnt, c.preview.originNext
	if parent == nil {
		c.Destroy()
		return
	}
	if next != nil && next.Parent() != parent {
		next = nil
	}
	if !parent.InsertBefore(c.node, next) {
		c.logger().Debug("Could not restore component to its origin.", zap.String("component", c.ID()))
	}
}

// Clone deep-copies the element subtree and binds a new component of the
// same kind to it. Nested components of the copy are bound as well. Clones
// drop id attributes so the document keeps unique ids.
func (c *Component) Clone() *Component {
	el := cloneElement(c.node.el)
	doc := c.node.doc
	clone := doc.bind(el, c.kind)
	doc.bindDescendants(el)
	return clone
}

func cloneElement(src *html.Node) *html.Node {
	dst := &html.Node{
		Type:      src.Type,
		DataAtom:  src.DataAtom,
		Data:      src.Data,
		Namespace: src.Namespace,
	}
	for _, a := range src.Attr {
		if a.Key == "id" && a.Namespace == "" {
			continue
		}
		dst.Attr = append(dst.Attr, a)
	}
	for child := src.FirstChild; child != nil; child = child.NextSibling {
		dst.AppendChild(cloneElement(child))
	}
	return dst
}
