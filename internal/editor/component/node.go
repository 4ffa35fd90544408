// internal/editor/component/node.go
package component

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Node wraps one element of the visual tree. Navigation only sees element
// children; text and comments stay in the HTML tree untouched. There is
// exactly one Node per element within a Document, so Nodes compare by
// pointer.
type Node struct {
	el        *html.Node
	doc       *Document
	component *Component
}

// Element returns the wrapped HTML element.
func (n *Node) Element() *html.Node { return n.el }

// Component returns the bound component, or nil for plain elements.
func (n *Node) Component() *Component { return n.component }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Tag returns the lower-cased tag name.
func (n *Node) Tag() string { return strings.ToLower(n.el.Data) }

// Parent returns the parent element, or nil when detached or at the root.
func (n *Node) Parent() *Node {
	p := n.el.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return n.doc.Node(p)
}

// Children returns the element children in visual order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, n.doc.Node(c))
		}
	}
	return out
}

// LastChild returns the last element child, or nil.
func (n *Node) LastChild() *Node {
	for c := n.el.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return n.doc.Node(c)
		}
	}
	return nil
}

// NextSibling returns the next element sibling, or nil.
func (n *Node) NextSibling() *Node {
	for s := n.el.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return n.doc.Node(s)
		}
	}
	return nil
}

// PrevSibling returns the previous element sibling, or nil.
func (n *Node) PrevSibling() *Node {
	for s := n.el.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return n.doc.Node(s)
		}
	}
	return nil
}

// Index returns the position among element siblings, or -1 when detached.
func (n *Node) Index() int {
	parent := n.Parent()
	if parent == nil {
		return -1
	}
	for i, c := range parent.Children() {
		if c == n {
			return i
		}
	}
	return -1
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	if other == nil {
		return false
	}
	for el := other.el; el != nil; el = el.Parent {
		if el == n.el {
			return true
		}
	}
	return false
}

// InsertBefore moves child under n, before anchor, or last when anchor is
// nil. A child that already has a parent is detached first. It returns false
// and changes nothing when the insertion would create a cycle, when the
// nodes belong to different documents or when anchor is not a child of n.
func (n *Node) InsertBefore(child, anchor *Node) bool {
	if child == nil || child.doc != n.doc || child.Contains(n) {
		return false
	}
	if anchor != nil {
		if anchor.el.Parent != n.el {
			return false
		}
		if anchor == child {
			return true
		}
	}
	if child.el.Parent != nil {
		child.el.Parent.RemoveChild(child.el)
	}
	var ref *html.Node
	if anchor != nil {
		ref = anchor.el
	}
	n.el.InsertBefore(child.el, ref)
	n.doc.touch()
	return true
}

// Remove detaches child from n. It is a no-op when child is not a child of n.
func (n *Node) Remove(child *Node) {
	if child == nil || child.el.Parent != n.el {
		return
	}
	n.el.RemoveChild(child.el)
	n.doc.touch()
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.el.Parent == nil {
		return
	}
	n.el.Parent.RemoveChild(n.el)
	n.doc.touch()
}

// Attr returns the value of an attribute, or "".
func (n *Node) Attr(key string) string {
	return htmlquery.SelectAttr(n.el, key)
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.el.Attr {
		if a.Key == key {
			if a.Val == val {
				return
			}
			n.el.Attr[i].Val = val
			n.doc.touch()
			return
		}
	}
	n.el.Attr = append(n.el.Attr, html.Attribute{Key: key, Val: val})
	n.doc.touch()
}

func (n *Node) classes() []string {
	return strings.Fields(n.Attr("class"))
}

// HasClass reports whether the element carries class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class if missing.
func (n *Node) AddClass(class string) {
	if n.HasClass(class) {
		return
	}
	n.SetAttr("class", strings.TrimSpace(strings.Join(append(n.classes(), class), " ")))
}

// RemoveClass removes every occurrence of class.
func (n *Node) RemoveClass(class string) {
	if !n.HasClass(class) {
		return
	}
	var kept []string
	for _, c := range n.classes() {
		if c != class {
			kept = append(kept, c)
		}
	}
	n.SetAttr("class", strings.Join(kept, " "))
}

// XPath returns an XPath expression that selects this element, anchored on
// the nearest ancestor with an id.
func (n *Node) XPath() string {
	var path []string
	for el := n.el; el != nil && el.Type != html.DocumentNode; el = el.Parent {
		if el.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(el.Data)
		if id := htmlquery.SelectAttr(el, "id"); id != "" {
			path = append(path, fmt.Sprintf(`//*[@id=%s]`, xpathLiteral(id)))
			break
		}

		// XPath indices are 1-based.
		index := 1
		for prev := el.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

func (n *Node) String() string {
	if n.component != nil {
		return fmt.Sprintf("<%s %s %s>", n.Tag(), n.component.kind, n.component.ID())
	}
	return fmt.Sprintf("<%s>", n.Tag())
}

// xpathLiteral quotes s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a value holding both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	for i, p := range parts {
		parts[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(parts, `, "'", `) + ")"
}
