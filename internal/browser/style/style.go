// internal/browser/style/style.go
package style

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xkilldash9x/dropzone/internal/browser/parser"
	"golang.org/x/net/html"
)

const (
	BaseFontSize      = 16.0 // Root font size in px.
	DefaultLineHeight = 1.2  // Multiplier for 'line-height: normal'.
)

// DefaultUserAgentCSS carries the few user agent rules that change geometry.
const DefaultUserAgentCSS = `
body { margin: 8px; }
input { width: 150px; height: 20px; border-width: 2px; }
`

// Engine computes styles for a DOM tree: the cascade over the user agent and
// author sheets, inline style attributes and inheritance.
type Engine struct {
	userAgentSheets []parser.StyleSheet
	authorSheets    []parser.StyleSheet
	viewportWidth   float64
	viewportHeight  float64
}

func NewEngine() *Engine {
	return &Engine{
		userAgentSheets: []parser.StyleSheet{parser.NewParser(DefaultUserAgentCSS).Parse()},
	}
}

// AddAuthorSheet adds a stylesheet provided by the page author.
func (se *Engine) AddAuthorSheet(sheet parser.StyleSheet) {
	se.authorSheets = append(se.authorSheets, sheet)
}

// SetViewport sets the dimensions used for viewport-relative units.
func (se *Engine) SetViewport(width, height float64) {
	se.viewportWidth = width
	se.viewportHeight = height
}

// StyledNode is a DOM node combined with its computed styles.
type StyledNode struct {
	Node           *html.Node
	ComputedStyles map[parser.Property]parser.Value
	Children       []*StyledNode
}

// -- Style Tree Construction --

// BuildTree computes styles for node and its subtree. parent supplies
// inherited values and may be nil for the root.
func (se *Engine) BuildTree(node *html.Node, parent *StyledNode) *StyledNode {
	switch node.Type {
	case html.CommentNode, html.DoctypeNode:
		return nil
	}

	computed := make(map[parser.Property]parser.Value)
	if node.Type == html.ElementNode {
		computed = se.CalculateStyles(node)
	}
	sn := &StyledNode{Node: node, ComputedStyles: computed}

	if parent != nil {
		inheritStyles(sn, parent)
	} else if _, ok := sn.ComputedStyles["font-size"]; !ok {
		sn.ComputedStyles["font-size"] = parser.Value(fmt.Sprintf("%gpx", BaseFontSize))
	}
	se.resolveFontMetrics(sn, parent)

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if child := se.BuildTree(c, sn); child != nil {
			sn.Children = append(sn.Children, child)
		}
	}
	return sn
}

var inheritedProperties = []parser.Property{"font-size", "line-height", "visibility"}

func inheritStyles(child, parent *StyledNode) {
	for prop, val := range child.ComputedStyles {
		if val == "inherit" {
			if pv, ok := parent.ComputedStyles[prop]; ok {
				child.ComputedStyles[prop] = pv
			} else {
				delete(child.ComputedStyles, prop)
			}
		}
	}
	for _, prop := range inheritedProperties {
		if _, ok := child.ComputedStyles[prop]; ok {
			continue
		}
		if pv, ok := parent.ComputedStyles[prop]; ok {
			child.ComputedStyles[prop] = pv
		}
	}
}

// resolveFontMetrics turns font-size and line-height into absolute px so
// descendants inherit resolved values.
func (se *Engine) resolveFontMetrics(sn, parent *StyledNode) {
	parentFontSize := BaseFontSize
	if parent != nil {
		parentFontSize = GetFontSize(parent)
	}
	if v, ok := sn.ComputedStyles["font-size"]; ok {
		size := ParseLength(string(v), parentFontSize, parentFontSize, se.viewportWidth, se.viewportHeight)
		sn.ComputedStyles["font-size"] = parser.Value(fmt.Sprintf("%gpx", size))
	}
	fontSize := GetFontSize(sn)
	if v, ok := sn.ComputedStyles["line-height"]; ok {
		sn.ComputedStyles["line-height"] = parser.Value(fmt.Sprintf("%gpx", se.resolveLineHeight(string(v), fontSize)))
	}
}

func (se *Engine) resolveLineHeight(value string, fontSize float64) float64 {
	value = strings.TrimSpace(value)
	if value == "normal" {
		return fontSize * DefaultLineHeight
	}
	// A bare number is a multiplier of the font size.
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return fontSize * f
	}
	return ParseLength(value, fontSize, fontSize, se.viewportWidth, se.viewportHeight)
}

// -- The Cascade --

type origin int

const (
	originUserAgent origin = iota
	originAuthor
	originInline
)

type rankedDeclaration struct {
	decl        parser.Declaration
	origin      origin
	specificity [3]int
	order       int
}

func (d rankedDeclaration) priority() int {
	switch d.origin {
	case originUserAgent:
		if d.decl.Important {
			return 5
		}
		return 1
	case originAuthor:
		if d.decl.Important {
			return 4
		}
		return 2
	default:
		if d.decl.Important {
			return 4
		}
		return 3
	}
}

// CalculateStyles runs the cascade for one element.
func (se *Engine) CalculateStyles(node *html.Node) map[parser.Property]parser.Value {
	var ranked []rankedDeclaration
	order := 0
	collect := func(sheets []parser.StyleSheet, o origin) {
		for _, sheet := range sheets {
			for _, rule := range sheet.Rules {
				weight, ok := bestMatch(node, rule.Selectors)
				if !ok {
					continue
				}
				for _, decl := range rule.Declarations {
					ranked = append(ranked, rankedDeclaration{decl: decl, origin: o, specificity: weight, order: order})
					order++
				}
			}
		}
	}
	collect(se.userAgentSheets, originUserAgent)
	collect(se.authorSheets, originAuthor)

	for _, attr := range node.Attr {
		if attr.Key != "style" {
			continue
		}
		for _, decl := range parser.ParseInline(attr.Val) {
			ranked = append(ranked, rankedDeclaration{decl: decl, origin: originInline, specificity: [3]int{1, 0, 0}, order: order})
			order++
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if pa, pb := a.priority(), b.priority(); pa != pb {
			return pa < pb
		}
		for k := 0; k < 3; k++ {
			if a.specificity[k] != b.specificity[k] {
				return a.specificity[k] < b.specificity[k]
			}
		}
		return a.order < b.order
	})

	styles := make(map[parser.Property]parser.Value)
	for _, d := range ranked {
		// Shorthands expand in cascade order so a later longhand wins over an earlier shorthand.
		expandInto(styles, d.decl.Property, d.decl.Value)
	}
	return styles
}

func expandInto(styles map[parser.Property]parser.Value, prop parser.Property, val parser.Value) {
	switch prop {
	case "margin", "padding":
		expandBoxShorthand(styles, string(prop), "%s-%s", val)
	case "border-width":
		expandBoxShorthand(styles, "border", "%s-%s-width", val)
	case "border":
		width := parser.Value("0")
		for _, part := range strings.Fields(string(val)) {
			if looksLikeLength(part) {
				width = parser.Value(part)
				break
			}
		}
		for _, side := range []string{"top", "right", "bottom", "left"} {
			styles[parser.Property("border-"+side+"-width")] = width
		}
	default:
		styles[prop] = val
	}
}

func expandBoxShorthand(styles map[parser.Property]parser.Value, base, pattern string, val parser.Value) {
	parts := strings.Fields(string(val))
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	for side, v := range map[string]string{"top": top, "right": right, "bottom": bottom, "left": left} {
		styles[parser.Property(fmt.Sprintf(pattern, base, side))] = parser.Value(v)
	}
}

func looksLikeLength(s string) bool {
	if s == "thin" || s == "medium" || s == "thick" {
		return true
	}
	return len(s) > 0 && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

// -- Selector Matching --

// bestMatch returns the highest specificity among the selectors that match node.
func bestMatch(node *html.Node, selectors []parser.ComplexSelector) ([3]int, bool) {
	var best [3]int
	found := false
	for _, sel := range selectors {
		if len(sel.Steps) == 0 || !matchStep(node, sel, len(sel.Steps)-1) {
			continue
		}
		a, b, c := sel.Specificity()
		weight := [3]int{a, b, c}
		if !found || lessSpecific(best, weight) {
			best = weight
		}
		found = true
	}
	return best, found
}

func lessSpecific(a, b [3]int) bool {
	for k := 0; k < 3; k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

func matchStep(node *html.Node, sel parser.ComplexSelector, index int) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	step := sel.Steps[index]
	if !matchesSimple(node, step.Selector) {
		return false
	}
	if index == 0 {
		return true
	}
	switch step.Combinator {
	case parser.CombinatorChild:
		return matchStep(node.Parent, sel, index-1)
	default:
		for anc := node.Parent; anc != nil; anc = anc.Parent {
			if matchStep(anc, sel, index-1) {
				return true
			}
		}
		return false
	}
}

func matchesSimple(node *html.Node, s parser.SimpleSelector) bool {
	if s.TagName != "" && s.TagName != "*" && !strings.EqualFold(node.Data, s.TagName) {
		return false
	}
	if s.ID != "" && attr(node, "id") != s.ID {
		return false
	}
	if len(s.Classes) > 0 {
		have := strings.Fields(attr(node, "class"))
		for _, want := range s.Classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	return true
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// -- Computed Value Accessors --

// Lookup returns the computed value of property, or fallback.
func (sn *StyledNode) Lookup(property, fallback string) string {
	if v, ok := sn.ComputedStyles[parser.Property(property)]; ok {
		return string(v)
	}
	return fallback
}

type DisplayType int

const (
	DisplayInline DisplayType = iota
	DisplayBlock
	DisplayInlineBlock
	DisplayNone
)

// Display returns the outer display type, falling back to the element default.
func (sn *StyledNode) Display() DisplayType {
	if sn.Node.Type == html.TextNode {
		return DisplayInline
	}
	switch strings.TrimSpace(sn.Lookup("display", "")) {
	case "block", "flex", "grid", "table", "list-item":
		return DisplayBlock
	case "inline-block", "inline-flex", "inline-grid":
		return DisplayInlineBlock
	case "inline":
		return DisplayInline
	case "none":
		return DisplayNone
	}
	return defaultDisplay(sn.Node)
}

// IsVisible reports whether the node paints (it still occupies space when hidden).
func (sn *StyledNode) IsVisible() bool {
	return sn.Lookup("visibility", "visible") != "hidden"
}

func defaultDisplay(node *html.Node) DisplayType {
	if node.Type == html.DocumentNode {
		return DisplayBlock
	}
	if node.Type != html.ElementNode {
		return DisplayInline
	}
	switch strings.ToLower(node.Data) {
	case "head", "script", "style", "title", "meta", "link", "template":
		return DisplayNone
	case "html", "body", "div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "form", "header", "footer", "section", "article",
		"nav", "main", "aside", "fieldset", "table":
		return DisplayBlock
	case "input", "button", "textarea", "select", "img":
		return DisplayInlineBlock
	default:
		return DisplayInline
	}
}

// GetFontSize returns the resolved font size of sn in px.
func GetFontSize(sn *StyledNode) float64 {
	if sn == nil {
		return BaseFontSize
	}
	if v, ok := sn.ComputedStyles["font-size"]; ok {
		if size, ok := parsePx(string(v)); ok {
			return size
		}
	}
	return BaseFontSize
}

// LineHeight returns the resolved line height of sn in px.
func LineHeight(sn *StyledNode) float64 {
	if v, ok := sn.ComputedStyles["line-height"]; ok {
		if lh, ok := parsePx(string(v)); ok {
			return lh
		}
	}
	return GetFontSize(sn) * DefaultLineHeight
}

// MeasureText estimates the advance of a text run with a fixed per-glyph width.
func MeasureText(text string, fontSize float64) float64 {
	return float64(len([]rune(text))) * fontSize * 0.6
}

// ParseLength resolves a CSS length. Percentages resolve against reference;
// "auto" and unparseable values resolve to 0.
func ParseLength(value string, fontSize, reference, viewportWidth, viewportHeight float64) float64 {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "auto" || value == "normal" {
		return 0
	}
	switch value {
	case "thin":
		return 1
	case "medium":
		return 3
	case "thick":
		return 5
	}

	units := []struct {
		suffix string
		scale  func(float64) float64
	}{
		{"px", func(v float64) float64 { return v }},
		{"%", func(v float64) float64 { return reference * v / 100 }},
		{"rem", func(v float64) float64 { return v * BaseFontSize }},
		{"em", func(v float64) float64 { return v * fontSize }},
		{"vw", func(v float64) float64 { return viewportWidth * v / 100 }},
		{"vh", func(v float64) float64 { return viewportHeight * v / 100 }},
		{"pt", func(v float64) float64 { return v * 4 / 3 }},
	}
	for _, u := range units {
		if !strings.HasSuffix(value, u.suffix) {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSuffix(value, u.suffix), 64); err == nil {
			return u.scale(f)
		}
		return 0
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return 0
}

// IsAuto reports whether a length property is unset or "auto".
func IsAuto(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == "auto"
}

func parsePx(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "px"), 64)
	return f, err == nil
}
