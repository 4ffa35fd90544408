// internal/editor/component/kind.go
package component

import "strings"

// Kind classifies a component. It is fixed when the component is bound.
type Kind int

const (
	Generic Kind = iota
	Image
	Input
	Text
	Form
	Canvas
	Sidebar
)

func (k Kind) String() string {
	switch k {
	case Generic:
		return "generic"
	case Image:
		return "image"
	case Input:
		return "input"
	case Text:
		return "text"
	case Form:
		return "form"
	case Canvas:
		return "canvas"
	case Sidebar:
		return "sidebar"
	default:
		return "unknown"
	}
}

// KindForTag maps an element tag to the kind of component it produces.
// Canvas and Sidebar are recognized by class, never by tag.
func KindForTag(tag string) Kind {
	switch strings.ToLower(tag) {
	case "img":
		return Image
	case "input":
		return Input
	case "span":
		return Text
	case "form":
		return Form
	default:
		return Generic
	}
}
