// internal/browser/layout/layout.go
package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/xkilldash9x/dropzone/internal/browser/style"
	"golang.org/x/net/html"
)

// -- Core Structures: Box Model and Dimensions --

type Rect struct {
	X, Y, Width, Height float64
}

// ExpandedBy returns a new rectangle expanded by the edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// Contains reports whether the point lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

type Edges struct {
	Top, Right, Bottom, Left float64
}

func (e Edges) horizontal() float64 { return e.Left + e.Right }
func (e Edges) vertical() float64   { return e.Top + e.Bottom }

// Dimensions defines the geometry of a layout box.
type Dimensions struct {
	// Content area (x, y) relative to the viewport.
	Content Rect

	Padding Edges
	Border  Edges
	Margin  Edges
}

// MarginBox returns the rectangle enclosing the margin area.
func (d Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// BorderBox returns the rectangle enclosing the border area.
func (d Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// PaddingBox returns the rectangle enclosing the padding area.
func (d Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

type BoxType int

const (
	BlockBox BoxType = iota
	InlineBox
	InlineBlockBox
	AnonymousBlockBox
)

// LayoutBox is a node in the Layout Tree.
type LayoutBox struct {
	Dimensions      Dimensions
	BoxType         BoxType
	StyledNode      *style.StyledNode
	Children        []*LayoutBox
	ContainingBlock *LayoutBox

	// Height resolved before layout, used for percentage heights of children.
	definiteHeight    float64
	hasDefiniteHeight bool
	// Widest line produced by inline flow; feeds shrink-to-fit.
	lineWidth float64
}

func NewLayoutBox(boxType BoxType, styledNode *style.StyledNode) *LayoutBox {
	return &LayoutBox{BoxType: boxType, StyledNode: styledNode}
}

// IsBlockLevel checks if the box participates in block flow.
func (b *LayoutBox) IsBlockLevel() bool {
	return b.BoxType == BlockBox || b.BoxType == AnonymousBlockBox
}

// inlineContainer returns the anonymous block collecting a run of inline
// children, creating it when the previous child is block-level.
func (b *LayoutBox) inlineContainer() *LayoutBox {
	if n := len(b.Children); n > 0 && b.Children[n-1].BoxType == AnonymousBlockBox {
		return b.Children[n-1]
	}
	anon := NewLayoutBox(AnonymousBlockBox, nil)
	b.Children = append(b.Children, anon)
	return anon
}

// -- Engine Core --

type Engine struct {
	viewportWidth  float64
	viewportHeight float64
}

func NewEngine(viewportWidth, viewportHeight float64) *Engine {
	return &Engine{viewportWidth: viewportWidth, viewportHeight: viewportHeight}
}

// BuildAndLayoutTree builds the layout tree for a style tree and lays it out
// against the viewport.
func (e *Engine) BuildAndLayoutTree(styleRoot *style.StyledNode) *LayoutBox {
	if styleRoot == nil {
		return nil
	}
	root := e.BuildLayoutTree(styleRoot)
	if root == nil {
		return nil
	}
	root.Dimensions.Content = Rect{Width: e.viewportWidth}
	root.ContainingBlock = nil
	root.Layout(e)
	return root
}

// BuildLayoutTree maps styled nodes to boxes. Nodes with display:none and
// whitespace-only text produce no box.
func (e *Engine) BuildLayoutTree(styledNode *style.StyledNode) *LayoutBox {
	display := styledNode.Display()
	if display == style.DisplayNone {
		return nil
	}

	node := styledNode.Node
	isRoot := node.Parent == nil || node.Type == html.DocumentNode
	if isRoot {
		display = style.DisplayBlock
	}

	var root *LayoutBox
	switch display {
	case style.DisplayBlock:
		root = NewLayoutBox(BlockBox, styledNode)
	case style.DisplayInlineBlock:
		root = NewLayoutBox(InlineBlockBox, styledNode)
	default:
		if node.Type == html.TextNode && strings.TrimSpace(node.Data) == "" {
			return nil
		}
		root = NewLayoutBox(InlineBox, styledNode)
	}

	for _, childStyled := range styledNode.Children {
		if childBox := e.BuildLayoutTree(childStyled); childBox != nil {
			e.addChildToBox(root, childBox)
		}
	}
	return root
}

// addChildToBox keeps block containers free of mixed content: inline
// children of a block go into anonymous blocks.
func (e *Engine) addChildToBox(root *LayoutBox, childBox *LayoutBox) {
	switch root.BoxType {
	case BlockBox, InlineBlockBox:
		if childBox.IsBlockLevel() {
			root.Children = append(root.Children, childBox)
			return
		}
		container := root.inlineContainer()
		container.Children = append(container.Children, childBox)
	default:
		root.Children = append(root.Children, childBox)
	}
}

// -- Layout Algorithms --

type LayoutContext struct {
	CurrentY          float64
	MaxNegativeMargin float64
	MaxPositiveMargin float64
}

func NewLayoutContext(startY float64) *LayoutContext {
	return &LayoutContext{CurrentY: startY}
}

func (lc *LayoutContext) AddToMarginTotals(margin float64) {
	if margin > 0 {
		lc.MaxPositiveMargin = math.Max(lc.MaxPositiveMargin, margin)
	} else if margin < lc.MaxNegativeMargin {
		lc.MaxNegativeMargin = margin
	}
}

func (lc *LayoutContext) CalculateCollapsedMargin() float64 {
	return lc.MaxPositiveMargin + lc.MaxNegativeMargin
}

func (lc *LayoutContext) ResetMargins() {
	lc.MaxNegativeMargin = 0
	lc.MaxPositiveMargin = 0
}

// Layout calculates the dimensions and position recursively. Block boxes
// expect their parent to have set Content.Y; inline-level boxes are laid out
// with their margin box at the origin and translated into place by the line.
func (b *LayoutBox) Layout(e *Engine) {
	switch b.BoxType {
	case BlockBox:
		b.layoutBlock(e)
	case InlineBlockBox:
		b.layoutInlineBlock(e)
	case AnonymousBlockBox:
		b.layoutAnonymous(e)
	case InlineBox:
		b.layoutInline(e)
	}
}

func (b *LayoutBox) layoutBlock(e *Engine) {
	b.calculateBlockWidthAndEdges(e)

	d := &b.Dimensions
	if cb := b.ContainingBlock; cb != nil {
		d.Content.X = cb.Dimensions.Content.X + d.Margin.Left + d.Border.Left + d.Padding.Left
	} else {
		d.Content.X = d.Margin.Left + d.Border.Left + d.Padding.Left
		d.Content.Y = d.Margin.Top + d.Border.Top + d.Padding.Top
	}

	b.calculateBlockHeight(e, b.layoutBlockFlow(e))
}

func (b *LayoutBox) layoutInlineBlock(e *Engine) {
	b.calculateBlockWidthAndEdges(e)

	d := &b.Dimensions
	d.Content.X = d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = d.Margin.Top + d.Border.Top + d.Padding.Top

	sn := b.StyledNode
	if style.IsAuto(sn.Lookup("width", "auto")) {
		if isReplaced(sn.Node) {
			d.Content.Width = intrinsicSize(sn, "width")
		} else {
			// Shrink-to-fit: lay out at the available width, then again at the used width.
			d.Content.Width = math.Max(0, b.containingWidth(e)-d.Margin.horizontal()-d.Border.horizontal()-d.Padding.horizontal())
			b.layoutBlockFlow(e)
			d.Content.Width = math.Min(d.Content.Width, b.contentExtent())
		}
	}

	contentHeight := b.layoutBlockFlow(e)
	if isReplaced(sn.Node) && style.IsAuto(sn.Lookup("height", "auto")) {
		contentHeight = intrinsicSize(sn, "height")
	}
	b.calculateBlockHeight(e, contentHeight)
}

func (b *LayoutBox) layoutAnonymous(e *Engine) {
	b.Dimensions.Content.Height = b.layoutInlineFlow(e)
}

// layoutInline sizes an inline box around its fragments on a single line.
func (b *LayoutBox) layoutInline(e *Engine) {
	sn := b.StyledNode
	d := &b.Dimensions

	if sn.Node.Type == html.TextNode {
		text := strings.Join(strings.Fields(sn.Node.Data), " ")
		d.Content = Rect{Width: style.MeasureText(text, style.GetFontSize(sn)), Height: style.LineHeight(sn)}
		return
	}

	b.calculateInlineEdges(e)
	d.Content.X = d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = d.Border.Top + d.Padding.Top

	width, height := 0.0, style.LineHeight(sn)
	for _, child := range b.Children {
		child.ContainingBlock = b
		child.Layout(e)
		child.translate(d.Content.X+width, d.Content.Y)
		box := child.Dimensions.MarginBox()
		width += box.Width
		height = math.Max(height, box.Height)
	}
	d.Content.Width = width
	d.Content.Height = height
}

func (b *LayoutBox) layoutBlockFlow(e *Engine) float64 {
	d := b.Dimensions
	context := NewLayoutContext(d.Content.Y)

	for _, child := range b.Children {
		child.ContainingBlock = b

		if child.BoxType == AnonymousBlockBox {
			context.CurrentY += context.CalculateCollapsedMargin()
			context.ResetMargins()

			child.Dimensions.Content = Rect{X: d.Content.X, Y: context.CurrentY, Width: d.Content.Width}
			child.Layout(e)
			context.CurrentY += child.Dimensions.Content.Height
			continue
		}

		child.calculateBlockWidthAndEdges(e)
		cd := &child.Dimensions
		context.AddToMarginTotals(cd.Margin.Top)
		collapsedTopMargin := context.CalculateCollapsedMargin()
		cd.Content.Y = context.CurrentY + collapsedTopMargin + cd.Border.Top + cd.Padding.Top

		child.Layout(e)

		context.CurrentY += collapsedTopMargin + cd.Border.Top + cd.Padding.Top +
			cd.Content.Height +
			cd.Padding.Bottom + cd.Border.Bottom
		context.ResetMargins()
		context.AddToMarginTotals(cd.Margin.Bottom)
	}

	context.CurrentY += context.CalculateCollapsedMargin()
	return context.CurrentY - d.Content.Y
}

// -- Inline Formatting Context (IFC) and Line Breaking --

type LineBox struct {
	Rect
	Fragments []*LayoutBox
}

// layoutInlineFlow breaks the children into lines and returns the total
// height. Fragments align to the top of their line.
func (b *LayoutBox) layoutInlineFlow(e *Engine) float64 {
	d := b.Dimensions
	minLineHeight := style.BaseFontSize * style.DefaultLineHeight
	if owner := b.ContainingBlock; owner != nil && owner.StyledNode != nil {
		minLineHeight = style.LineHeight(owner.StyledNode)
	}

	var lines []*LineBox
	line := &LineBox{Rect: Rect{X: d.Content.X, Y: d.Content.Y}}
	lines = append(lines, line)
	b.lineWidth = 0

	for _, child := range b.Children {
		child.ContainingBlock = b
		child.Layout(e)
		box := child.Dimensions.MarginBox()

		if line.Width+box.Width > d.Content.Width && line.Width > 0 {
			next := &LineBox{Rect: Rect{X: d.Content.X, Y: line.Y + math.Max(line.Height, minLineHeight)}}
			lines = append(lines, next)
			line = next
		}

		child.translate(line.X+line.Width, line.Y)
		line.Fragments = append(line.Fragments, child)
		line.Width += box.Width
		line.Height = math.Max(line.Height, box.Height)
		b.lineWidth = math.Max(b.lineWidth, line.Width)
	}

	total := 0.0
	for _, l := range lines {
		total += math.Max(l.Height, minLineHeight)
	}
	return total
}

// translate moves a box and its whole subtree.
func (b *LayoutBox) translate(dx, dy float64) {
	b.Dimensions.Content.X += dx
	b.Dimensions.Content.Y += dy
	for _, child := range b.Children {
		child.translate(dx, dy)
	}
}

// -- Box Model Calculations --

// containingWidth skips inline ancestors, whose width is not known until
// their children are laid out.
func (b *LayoutBox) containingWidth(e *Engine) float64 {
	cb := b.ContainingBlock
	for cb != nil && cb.BoxType == InlineBox {
		cb = cb.ContainingBlock
	}
	if cb == nil {
		return e.viewportWidth
	}
	return cb.Dimensions.Content.Width
}

func (b *LayoutBox) length(e *Engine, prop, fallback string, reference float64) float64 {
	sn := b.StyledNode
	return style.ParseLength(sn.Lookup(prop, fallback), style.GetFontSize(sn), reference, e.viewportWidth, e.viewportHeight)
}

func (b *LayoutBox) resolveEdges(e *Engine, cbWidth float64) {
	d := &b.Dimensions
	edge := func(pattern string) Edges {
		side := func(s string) float64 {
			return b.length(e, strings.Replace(pattern, "*", s, 1), "0", cbWidth)
		}
		return Edges{Top: side("top"), Right: side("right"), Bottom: side("bottom"), Left: side("left")}
	}
	d.Padding = edge("padding-*")
	d.Border = edge("border-*-width")
	d.Margin = edge("margin-*")
}

func (b *LayoutBox) borderBoxSizing() bool {
	return strings.TrimSpace(b.StyledNode.Lookup("box-sizing", "content-box")) == "border-box"
}

// calculateBlockWidthAndEdges resolves edges and the used width, centering
// on auto margins.
func (b *LayoutBox) calculateBlockWidthAndEdges(e *Engine) {
	sn := b.StyledNode
	d := &b.Dimensions
	cbWidth := b.containingWidth(e)
	b.resolveEdges(e, cbWidth)
	b.resolveDefiniteHeight(e)

	if sn.Node.Type == html.DocumentNode {
		d.Content.Width = cbWidth
		return
	}

	frame := d.Border.horizontal() + d.Padding.horizontal()
	widthValue := sn.Lookup("width", "auto")
	if style.IsAuto(widthValue) {
		if b.BoxType == BlockBox {
			d.Content.Width = math.Max(0, cbWidth-frame-d.Margin.horizontal())
		}
		return
	}

	width := b.length(e, "width", "auto", cbWidth)
	if b.borderBoxSizing() {
		width = math.Max(0, width-frame)
	}
	d.Content.Width = width

	if b.BoxType != BlockBox {
		return
	}
	leftAuto := style.IsAuto(sn.Lookup("margin-left", "0"))
	rightAuto := style.IsAuto(sn.Lookup("margin-right", "0"))
	remaining := cbWidth - width - frame
	switch {
	case leftAuto && rightAuto:
		d.Margin.Left = math.Max(0, remaining/2)
		d.Margin.Right = math.Max(0, remaining/2)
	case leftAuto:
		d.Margin.Left = math.Max(0, remaining-d.Margin.Right)
	}
}

// calculateInlineEdges resolves edges of a non-replaced inline box. Vertical
// margins do not apply to inline boxes.
func (b *LayoutBox) calculateInlineEdges(e *Engine) {
	b.resolveEdges(e, b.containingWidth(e))
	b.Dimensions.Margin.Top = 0
	b.Dimensions.Margin.Bottom = 0
}

func (b *LayoutBox) resolveDefiniteHeight(e *Engine) {
	b.hasDefiniteHeight = false
	sn := b.StyledNode
	if sn.Node.Type == html.DocumentNode || b.ContainingBlock == nil {
		b.definiteHeight, b.hasDefiniteHeight = e.viewportHeight, true
		return
	}
	value := strings.TrimSpace(sn.Lookup("height", "auto"))
	if style.IsAuto(value) {
		return
	}
	if strings.HasSuffix(value, "%") {
		cb := b.ContainingBlock
		for cb != nil && cb.BoxType == AnonymousBlockBox {
			cb = cb.ContainingBlock
		}
		if cb == nil || !cb.hasDefiniteHeight {
			return
		}
		b.definiteHeight = b.length(e, "height", "auto", cb.definiteHeight)
	} else {
		b.definiteHeight = b.length(e, "height", "auto", 0)
	}
	if b.borderBoxSizing() {
		b.definiteHeight = math.Max(0, b.definiteHeight-b.Dimensions.Border.vertical()-b.Dimensions.Padding.vertical())
	}
	b.hasDefiniteHeight = true
}

// calculateBlockHeight applies explicit height and min-height over the
// content height.
func (b *LayoutBox) calculateBlockHeight(e *Engine, contentHeight float64) {
	height := contentHeight
	if b.hasDefiniteHeight && b.ContainingBlock != nil {
		height = b.definiteHeight
	}
	if minValue := b.StyledNode.Lookup("min-height", "auto"); !style.IsAuto(minValue) {
		height = math.Max(height, b.length(e, "min-height", "auto", 0))
	}
	b.Dimensions.Content.Height = height
}

// contentExtent returns the width used by in-flow content, measured from
// the content edge.
func (b *LayoutBox) contentExtent() float64 {
	extent := 0.0
	for _, child := range b.Children {
		if child.BoxType == AnonymousBlockBox {
			extent = math.Max(extent, child.lineWidth)
			continue
		}
		box := child.Dimensions.MarginBox()
		extent = math.Max(extent, box.X+box.Width-b.Dimensions.Content.X)
	}
	return extent
}

func isReplaced(n *html.Node) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, "img")
}

// intrinsicSize reads the width or height attribute of a replaced element.
func intrinsicSize(sn *style.StyledNode, dimension string) float64 {
	for _, a := range sn.Node.Attr {
		if a.Key == dimension {
			return style.ParseLength(a.Val, style.GetFontSize(sn), 0, 0, 0)
		}
	}
	return 0
}

// -- Queries --

// FindLayoutBoxForNode returns the box generated for node, or nil.
func (b *LayoutBox) FindLayoutBoxForNode(node *html.Node) *LayoutBox {
	if b.StyledNode != nil && b.StyledNode.Node == node {
		return b
	}
	for _, child := range b.Children {
		if found := child.FindLayoutBoxForNode(node); found != nil {
			return found
		}
	}
	return nil
}

// GetElementGeometry returns the border box of the first element matching
// the XPath selector.
func (e *Engine) GetElementGeometry(root *LayoutBox, selector string) (Rect, error) {
	if root == nil || root.StyledNode == nil {
		return Rect{}, fmt.Errorf("layout tree is empty")
	}
	node, err := htmlquery.Query(root.StyledNode.Node, selector)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid xpath selector %q: %w", selector, err)
	}
	if node == nil {
		return Rect{}, fmt.Errorf("no element matches %q", selector)
	}
	box := root.FindLayoutBoxForNode(node)
	if box == nil {
		return Rect{}, fmt.Errorf("element %q generates no box", selector)
	}
	return box.Dimensions.BorderBox(), nil
}

// BorderBoxes maps every element that generated a box to its border box.
func (b *LayoutBox) BorderBoxes() map[*html.Node]Rect {
	boxes := make(map[*html.Node]Rect)
	var walk func(*LayoutBox)
	walk = func(box *LayoutBox) {
		if box.StyledNode != nil && box.StyledNode.Node.Type == html.ElementNode {
			boxes[box.StyledNode.Node] = box.Dimensions.BorderBox()
		}
		for _, child := range box.Children {
			walk(child)
		}
	}
	walk(b)
	return boxes
}
