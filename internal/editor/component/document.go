// internal/editor/component/document.go
package component

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	ErrNilRoot   = errors.New("document root is nil")
	ErrNoCanvas  = errors.New("document has no canvas element")
	ErrNoSidebar = errors.New("document has no sidebar element")
	ErrNotFound  = errors.New("no element matches")
)

// Classes are the class names that identify editor structure in the page.
type Classes struct {
	Canvas    string
	Sidebar   string
	Component string
	Preview   string
}

// DefaultClasses returns the class names used when nothing is configured.
func DefaultClasses() Classes {
	return Classes{Canvas: "canvas", Sidebar: "sidebar", Component: "component", Preview: "preview"}
}

// Document owns the visual tree and the registry binding its elements to
// Nodes and Components. Every structural mutation bumps Revision.
type Document struct {
	root     *html.Node
	classes  Classes
	logger   *zap.Logger
	nodes    map[*html.Node]*Node
	byID     map[string]*Component
	canvas   *Component
	sidebar  *Component
	revision uint64
}

// NewDocument binds the canvas, the sidebar and every component element
// found under root.
func NewDocument(root *html.Node, classes Classes, logger *zap.Logger) (*Document, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Document{
		root:    root,
		classes: classes,
		logger:  logger.Named("component"),
		nodes:   make(map[*html.Node]*Node),
		byID:    make(map[string]*Component),
	}

	canvas := htmlquery.FindOne(root, classXPath(classes.Canvas))
	if canvas == nil {
		return nil, fmt.Errorf("%w (class %q)", ErrNoCanvas, classes.Canvas)
	}
	sidebar := htmlquery.FindOne(root, classXPath(classes.Sidebar))
	if sidebar == nil {
		return nil, fmt.Errorf("%w (class %q)", ErrNoSidebar, classes.Sidebar)
	}
	d.canvas = d.bind(canvas, Canvas)
	d.sidebar = d.bind(sidebar, Sidebar)
	d.bindDescendants(root)

	d.logger.Debug("Document bound.",
		zap.Int("components", len(d.byID)),
		zap.String("canvas", d.canvas.ID()),
		zap.String("sidebar", d.sidebar.ID()))
	return d, nil
}

// classXPath selects elements whose class list contains class.
func classXPath(class string) string {
	return fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", class)
}

func (d *Document) Root() *html.Node { return d.root }

func (d *Document) Classes() Classes { return d.classes }

func (d *Document) Canvas() *Component { return d.canvas }

func (d *Document) Sidebar() *Component { return d.sidebar }

func (d *Document) Logger() *zap.Logger { return d.logger }

// Revision increases on every structural or attribute change.
func (d *Document) Revision() uint64 { return d.revision }

func (d *Document) touch() { d.revision++ }

// Node returns the Node wrapping el, creating it on first use. It returns nil
// for anything that is not an element.
func (d *Document) Node(el *html.Node) *Node {
	if el == nil || el.Type != html.ElementNode {
		return nil
	}
	if n, ok := d.nodes[el]; ok {
		return n
	}
	n := &Node{el: el, doc: d}
	d.nodes[el] = n
	return n
}

// ComponentFor returns the component bound to el, or nil.
func (d *Document) ComponentFor(el *html.Node) *Component {
	if n, ok := d.nodes[el]; ok {
		return n.component
	}
	return nil
}

// ByID returns the component with the given identifier, or nil.
func (d *Document) ByID(id string) *Component {
	return d.byID[id]
}

// Components returns the components attached under the root, in document order.
func (d *Document) Components() []*Component {
	var out []*Component
	var walk func(*html.Node)
	walk = func(el *html.Node) {
		if c := d.ComponentFor(el); c != nil {
			out = append(out, c)
		}
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(d.root)
	return out
}

// Find returns the Node of the first element matching an XPath expression.
func (d *Document) Find(xpath string) (*Node, error) {
	el, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", xpath, err)
	}
	if el == nil {
		return nil, fmt.Errorf("%w %q", ErrNotFound, xpath)
	}
	return d.Node(el), nil
}

// Resolve finds a component by "#<id>" or by an XPath expression. An XPath
// match on a plain element resolves to its closest component ancestor.
func (d *Document) Resolve(ref string) (*Component, error) {
	if id, ok := strings.CutPrefix(ref, "#"); ok {
		if c := d.ByID(id); c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("%w component %q", ErrNotFound, id)
	}
	n, err := d.Find(ref)
	if err != nil {
		return nil, err
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.component != nil {
			return cur.component, nil
		}
	}
	return nil, fmt.Errorf("%w component for %q", ErrNotFound, ref)
}

// XPathOf returns the XPath of an element attached under the root, or "".
func (d *Document) XPathOf(el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}
	top := el
	for top.Parent != nil {
		top = top.Parent
	}
	if top != d.root {
		return ""
	}
	return d.Node(el).XPath()
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// bind attaches a new component of the given kind to el, or returns the one
// already bound.
func (d *Document) bind(el *html.Node, kind Kind) *Component {
	n := d.Node(el)
	if n.component != nil {
		return n.component
	}
	c := &Component{id: uuid.New(), kind: kind, policy: policyFor(kind), node: n}
	n.component = c
	d.byID[c.ID()] = c
	if c.CanBeDragged() {
		n.SetAttr("draggable", "true")
	}
	return c
}

// bindDescendants binds every unbound component element under el.
func (d *Document) bindDescendants(el *html.Node) {
	for _, match := range htmlquery.Find(el, "."+classXPath(d.classes.Component)) {
		d.bind(match, KindForTag(match.Data))
	}
}

// release forgets n and its subtree. Used for discarded clones.
func (d *Document) release(n *Node) {
	var walk func(*html.Node)
	walk = func(el *html.Node) {
		if node, ok := d.nodes[el]; ok {
			if node.component != nil {
				delete(d.byID, node.component.ID())
			}
			delete(d.nodes, el)
		}
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n.el)
}
