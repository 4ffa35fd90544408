// internal/editor/component/policy.go
package component

// policy decides draggability and containment for one kind.
type policy interface {
	canBeDragged() bool
	canAdopt(self, candidate *Component) bool
}

// containerPolicy accepts any candidate except the forbidden kind, provided
// the receiver is attached, outside the sidebar and not a pending preview.
type containerPolicy struct {
	forbidden Kind
	draggable bool
}

func (p containerPolicy) canBeDragged() bool { return p.draggable }

func (p containerPolicy) canAdopt(self, candidate *Component) bool {
	return self.node.Parent() != nil &&
		!self.InSidebar() &&
		!self.IsPreview() &&
		candidate.kind != p.forbidden
}

// closedPolicy never adopts. Leaves and the sidebar use it.
type closedPolicy struct {
	draggable bool
}

func (p closedPolicy) canBeDragged() bool                     { return p.draggable }
func (closedPolicy) canAdopt(self, candidate *Component) bool { return false }

var policies = map[Kind]policy{
	Generic: containerPolicy{forbidden: Input, draggable: true},
	Canvas:  containerPolicy{forbidden: Input, draggable: false},
	Form:    containerPolicy{forbidden: Form, draggable: true},
	Image:   closedPolicy{draggable: true},
	Input:   closedPolicy{draggable: true},
	Text:    closedPolicy{draggable: true},
	Sidebar: closedPolicy{draggable: false},
}

func policyFor(k Kind) policy {
	if p, ok := policies[k]; ok {
		return p
	}
	return policies[Generic]
}
