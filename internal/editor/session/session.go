// internal/editor/session/session.go
package session

import (
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/placement"
	"go.uber.org/zap"
)

// Session is the state of the drag in flight, if any.
type Session struct {
	dragged *component.Component
}

// Dragged returns the component being dragged, or nil when idle.
func (s *Session) Dragged() *component.Component { return s.dragged }

// Active reports whether a drag is in flight.
func (s *Session) Active() bool { return s.dragged != nil }

// Controller drives the drag lifecycle from gesture events. Every entry point
// is safe to call in any state; events that make no sense in the current
// state are ignored.
type Controller struct {
	session  Session
	resolver *placement.Resolver
	logger   *zap.Logger
}

func NewController(resolver *placement.Resolver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{resolver: resolver, logger: logger.Named("session")}
}

// Session exposes the current session for inspection.
func (c *Controller) Session() *Session { return &c.session }

// OnDragStart begins dragging comp and materializes its preview.
func (c *Controller) OnDragStart(comp *component.Component) {
	if comp == nil {
		c.logger.Debug("Ignoring drag start without a component.")
		return
	}
	if comp == c.session.dragged {
		return
	}
	if !comp.CanBeDragged() {
		c.logger.Debug("Ignoring drag start on a fixed component.",
			zap.String("component", comp.ID()), zap.Stringer("kind", comp.Kind()))
		return
	}
	if prev := c.session.dragged; prev != nil {
		c.logger.Debug("Drag started before the previous one ended; cancelling it.",
			zap.String("previous", prev.ID()), zap.String("component", comp.ID()))
		c.cancel(prev)
	}

	c.session.dragged = comp
	comp.Preview()
	c.logger.Debug("Drag started.", zap.String("component", comp.ID()), zap.Stringer("kind", comp.Kind()))
}

// OnDragOver repositions the preview for a pointer over comp at page
// coordinates (x, y). When nothing there accepts the drop, or the only taker
// is the dragged component itself, the preview is taken out of the tree
// instead; a palette clone stays cached until the drag ends.
func (c *Controller) OnDragOver(comp *component.Component, x, y float64) {
	dragged := c.session.dragged
	if dragged == nil || comp == nil {
		return
	}

	droppable := comp.DroppableTarget(dragged)
	if droppable == nil || c.insideDrag(dragged, droppable) {
		dragged.SetTarget(nil)
		dragged.HidePreview()
		return
	}

	preview := dragged.Preview()
	dragged.SetTarget(droppable)
	receiver := droppable.Node()
	anchor := c.resolver.ClosestPosition(receiver, preview.Node(), x, y)
	if !receiver.InsertBefore(preview.Node(), anchor) {
		c.logger.Debug("Preview could not be placed.",
			zap.String("component", dragged.ID()), zap.String("receiver", droppable.ID()))
	}
}

// insideDrag reports whether the receiver lies inside the dragged component
// or its preview, itself included. Such a receiver cannot take the preview.
func (c *Controller) insideDrag(dragged, droppable *component.Component) bool {
	if dragged.Node().Contains(droppable.Node()) {
		return true
	}
	p := dragged.Previewed()
	return p != nil && p.Node().Contains(droppable.Node())
}

// OnDragEnd commits the preview when a target was found and cancels the drop
// otherwise. The session ends either way.
func (c *Controller) OnDragEnd(comp *component.Component) {
	dragged := c.session.dragged
	if dragged == nil {
		return
	}
	if comp != nil && comp != dragged {
		c.logger.Debug("Drag end reported for another component.",
			zap.String("dragged", dragged.ID()), zap.String("component", comp.ID()))
	}

	if target := dragged.Target(); target != nil {
		dragged.Finalize()
		c.logger.Debug("Drop committed.", zap.String("component", dragged.ID()), zap.String("target", target.ID()))
	} else {
		dragged.DiscardPreview()
		c.logger.Debug("Drop cancelled.", zap.String("component", dragged.ID()))
	}
	dragged.SetTarget(nil)
	c.session.dragged = nil
}

// Cancel abandons the drag in flight, if any, without committing it.
func (c *Controller) Cancel() {
	if dragged := c.session.dragged; dragged != nil {
		c.logger.Debug("Drag abandoned.", zap.String("component", dragged.ID()))
		c.cancel(dragged)
	}
}

func (c *Controller) cancel(comp *component.Component) {
	comp.DiscardPreview()
	comp.SetTarget(nil)
	c.session.dragged = nil
}
