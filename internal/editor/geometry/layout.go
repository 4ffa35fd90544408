// internal/editor/geometry/layout.go
package geometry

import (
	"strings"

	"github.com/xkilldash9x/dropzone/internal/browser/layout"
	"github.com/xkilldash9x/dropzone/internal/browser/parser"
	"github.com/xkilldash9x/dropzone/internal/browser/style"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Source is the document a geometry backend measures.
type Source interface {
	Root() *html.Node
	Revision() uint64
}

// Layout computes boxes with the in-process style and layout engines. The
// result is cached until the source's revision changes.
type Layout struct {
	src            Source
	sheets         []parser.StyleSheet
	viewportWidth  float64
	viewportHeight float64
	logger         *zap.Logger

	computed bool
	revision uint64
	boxes    map[*html.Node]Rect
}

// NewLayout creates a layout backed query. stylesheets are CSS sources applied
// after any <style> elements of the document.
func NewLayout(src Source, viewportWidth, viewportHeight float64, stylesheets []string, logger *zap.Logger) *Layout {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Layout{
		src:            src,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		logger:         logger.Named("geometry"),
	}
	for _, css := range stylesheets {
		l.sheets = append(l.sheets, parser.NewParser(css).Parse())
	}
	return l
}

func (l *Layout) Box(n *html.Node) (Rect, bool) {
	l.refresh()
	r, ok := l.boxes[n]
	return r, ok
}

// Boxes returns every laid out element with its box.
func (l *Layout) Boxes() map[*html.Node]Rect {
	l.refresh()
	return l.boxes
}

func (l *Layout) refresh() {
	if l.computed && l.revision == l.src.Revision() {
		return
	}

	engine := style.NewEngine()
	engine.SetViewport(l.viewportWidth, l.viewportHeight)
	root := l.src.Root()
	for _, css := range embeddedStyles(root) {
		engine.AddAuthorSheet(parser.NewParser(css).Parse())
	}
	for _, sheet := range l.sheets {
		engine.AddAuthorSheet(sheet)
	}

	tree := layout.NewEngine(l.viewportWidth, l.viewportHeight).BuildAndLayoutTree(engine.BuildTree(root, nil))
	if tree != nil {
		l.boxes = tree.BorderBoxes()
	} else {
		l.boxes = nil
	}
	l.computed = true
	l.revision = l.src.Revision()
	l.logger.Debug("Layout recomputed.", zap.Uint64("revision", l.revision), zap.Int("boxes", len(l.boxes)))
}

// embeddedStyles returns the text of every <style> element under root.
func embeddedStyles(root *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "style") {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			out = append(out, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}
